package store

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time // zero means no expiry
}

// MemoryStore is a concurrency-safe in-memory Backend with per-key expiry.
type MemoryStore struct {
	mu sync.RWMutex

	// key: cache key, value: serialized payload
	data map[string]memoryEntry

	// retention configuration
	maxEntries int // max number of keys kept (0 = unlimited)

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore.
// If maxEntries is <= 0, it is treated as unlimited.
func NewMemoryStore(maxEntries int) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]memoryEntry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the payload stored under key, or ErrNotFound when it is
// absent or expired.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	if !ok || s.expired(e) {
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.payload...), nil
}

// Set stores payload under key and enforces retention.
func (s *MemoryStore) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	e := memoryEntry{payload: append([]byte(nil), payload...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = e

	// Enforce retention by age.
	for k, v := range s.data {
		if s.expired(v) {
			delete(s.data, k)
		}
	}

	// Enforce retention by count, evicting the entries closest to expiry.
	for s.maxEntries > 0 && len(s.data) > s.maxEntries {
		victim, ok := s.soonestExpiring(key)
		if !ok {
			break
		}
		delete(s.data, victim)
	}
	return nil
}

// soonestExpiring returns the key expiring first, skipping keep. Entries
// without expiry sort last.
func (s *MemoryStore) soonestExpiring(keep string) (string, bool) {
	var (
		victim string
		best   time.Time
		found  bool
	)
	for k, v := range s.data {
		if k == keep {
			continue
		}
		switch {
		case !found:
		case v.expiresAt.IsZero():
			continue
		case !best.IsZero() && !v.expiresAt.Before(best):
			continue
		}
		victim, best, found = k, v.expiresAt, true
	}
	return victim, found
}

// Close is a no-op; it lets MemoryStore stand in for closable backends.
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}
