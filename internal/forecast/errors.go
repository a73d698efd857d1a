package forecast

import (
	"errors"
	"fmt"
)

// ErrInvalidHorizon is returned when a negative horizon is requested.
var ErrInvalidHorizon = errors.New("forecast horizon must not be negative")

// UnknownStationError reports a station id that is not in the registry.
type UnknownStationError struct {
	ID string
}

func (e *UnknownStationError) Error() string {
	return fmt.Sprintf("no station found with id %q", e.ID)
}

// InsufficientHistoryError reports that the raw source returned fewer usable
// rows than the history window needs.
type InsufficientHistoryError struct {
	Required  int
	Available int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history: need %d usable rows, got %d", e.Required, e.Available)
}

// CacheDeserializationError reports a cached payload that could not be decoded.
type CacheDeserializationError struct {
	Key string
	Err error
}

func (e *CacheDeserializationError) Error() string {
	return fmt.Sprintf("corrupt cache entry %q: %v", e.Key, e.Err)
}

func (e *CacheDeserializationError) Unwrap() error {
	return e.Err
}

// ModelInferenceError reports a shape mismatch or an internal failure of a
// predictive model. It is never retried.
type ModelInferenceError struct {
	Model string
	Err   error
}

func (e *ModelInferenceError) Error() string {
	return fmt.Sprintf("model %s inference failed: %v", e.Model, e.Err)
}

func (e *ModelInferenceError) Unwrap() error {
	return e.Err
}
