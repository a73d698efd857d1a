package forecast

import (
	"context"
	"errors"
	"time"
)

// StationResolver looks stations up by id.
type StationResolver interface {
	Lookup(id string) (Station, error)
}

// ObservationSource abstracts a raw hourly data source (e.g. Meteostat, Open-Meteo).
// It may return fewer rows than requested; callers must check.
type ObservationSource interface {
	Name() string
	FetchHourly(ctx context.Context, lat, lon float64, start, end time.Time) ([]Observation, error)
}

// ErrCacheMiss is returned by HistoryCache.Get when no live entry exists.
var ErrCacheMiss = errors.New("history cache miss")

// HistoryCache is the contract the memory and Redis backed window caches satisfy.
// Get returns ErrCacheMiss on a miss and a *CacheDeserializationError when the
// payload is corrupt.
type HistoryCache interface {
	Get(ctx context.Context, key string) (*HistoryWindow, error)
	Set(ctx context.Context, key string, window *HistoryWindow, ttl time.Duration) error
}

// Predictor wraps one or more trained models behind a single block
// prediction call. Implementations must be deterministic for a given window.
type Predictor interface {
	// BlockSize is the number of hours one PredictBlock call can produce.
	BlockSize() int
	// PredictBlock returns at least block values for each modeled variable.
	PredictBlock(ctx context.Context, window *HistoryWindow, block int) (PartialForecast, error)
}
