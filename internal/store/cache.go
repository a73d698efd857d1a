package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/i474232898/weather-forecast/internal/forecast"
)

var (
	// ErrNotFound is returned when no live entry exists for a key.
	ErrNotFound = forecast.ErrCacheMiss
)

// Backend is a byte-oriented key/value store with expiry.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Close() error
}

// HistoryCache stores engineered history windows in a Backend.
// It takes no per-key lock: concurrent writers for the same key both succeed
// and the last write wins.
type HistoryCache struct {
	backend Backend
}

// NewHistoryCache creates a HistoryCache over backend.
func NewHistoryCache(backend Backend) *HistoryCache {
	return &HistoryCache{backend: backend}
}

// Get returns the cached window for key. A payload that cannot be decoded is
// reported as *forecast.CacheDeserializationError.
func (c *HistoryCache) Get(ctx context.Context, key string) (*forecast.HistoryWindow, error) {
	data, err := c.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	w, err := DecodeWindow(data)
	if err != nil {
		return nil, &forecast.CacheDeserializationError{Key: key, Err: err}
	}
	return w, nil
}

// Set serializes window and stores it under key for ttl.
func (c *HistoryCache) Set(ctx context.Context, key string, window *forecast.HistoryWindow, ttl time.Duration) error {
	data, err := EncodeWindow(window)
	if err != nil {
		return fmt.Errorf("encode history window: %w", err)
	}
	return c.backend.Set(ctx, key, data, ttl)
}
