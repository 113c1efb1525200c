package memory

import (
	"context"
	"sync"

	id "felicity/pkg/domain"
	audit "felicity/pkg/platform/audit"
)

// InMemoryStore holds audit events in memory. Used in tests and when no
// database or broker is configured.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByIdentity returns all events recorded for one identity, in order.
func (s *InMemoryStore) ListByIdentity(_ context.Context, identityID id.IdentityID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Event
	for _, event := range s.events {
		if event.IdentityID == identityID {
			out = append(out, event)
		}
	}
	return out, nil
}

// ListAll returns every recorded event in append order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...), nil
}
