package lockout

import (
	"context"
	"sync"
	"time"
)

type counter struct {
	count     int
	expiresAt time.Time
}

// InMemoryStore counts failures in a map with per-key expiry. Used in tests
// and when no Redis is configured.
type InMemoryStore struct {
	mu       sync.Mutex
	counters map[string]counter
	now      func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		counters: make(map[string]counter),
		now:      time.Now,
	}
}

// WithClock overrides the clock. Tests only.
func (s *InMemoryStore) WithClock(now func() time.Time) *InMemoryStore {
	s.now = now
	return s
}

func (s *InMemoryStore) Increment(_ context.Context, key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c, ok := s.counters[key]
	if !ok || now.After(c.expiresAt) {
		c = counter{count: 0, expiresAt: now.Add(window)}
	}
	c.count++
	s.counters[key] = c
	return c.count, nil
}

func (s *InMemoryStore) Count(_ context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok || s.now().After(c.expiresAt) {
		return 0, nil
	}
	return c.count, nil
}

func (s *InMemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counters, key)
	return nil
}
