package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"felicity/internal/event/models"
	id "felicity/pkg/domain"
	"felicity/pkg/platform/sentinel"
)

// InMemory keeps events in a map guarded by one mutex. The mutex makes every
// register a single critical section, which is exactly the atomicity the
// registration protocol demands.
type InMemory struct {
	mu     sync.RWMutex
	events map[id.EventID]*models.Event
}

func NewInMemory() *InMemory {
	return &InMemory{events: make(map[id.EventID]*models.Event)}
}

func (s *InMemory) CreateIfNameAvailable(_ context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nameTaken(event.Name, event.ID) {
		return sentinel.ErrAlreadyUsed
	}
	s.events[event.ID] = cloneEvent(event)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, eventID id.EventID) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[eventID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneEvent(event), nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Event, 0, len(s.events))
	for _, event := range s.events {
		out = append(out, cloneEvent(event))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) Update(_ context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.events[event.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if s.nameTaken(event.Name, event.ID) {
		return sentinel.ErrAlreadyUsed
	}

	updated := cloneEvent(event)
	// Registrations only change through Register/CancelRegistration.
	updated.Registrations = existing.Registrations
	s.events[event.ID] = updated
	return nil
}

func (s *InMemory) Delete(_ context.Context, eventID id.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[eventID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.events, eventID)
	return nil
}

func (s *InMemory) Register(_ context.Context, registration *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[registration.EventID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if event.ActiveRegistration(registration.ParticipantID) != nil {
		return sentinel.ErrAlreadyUsed
	}
	if event.ActiveCount() >= event.RegistrationLimit {
		return sentinel.ErrCapacityExhausted
	}

	event.Registrations = append(event.Registrations, *registration)
	return nil
}

func (s *InMemory) CancelRegistration(_ context.Context, eventID id.EventID, participantID id.IdentityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[eventID]
	if !ok {
		return sentinel.ErrNotFound
	}
	active := event.ActiveRegistration(participantID)
	if active == nil {
		return sentinel.ErrNotFound
	}
	active.Status = models.StatusCancelled
	return nil
}

func (s *InMemory) nameTaken(name string, selfID id.EventID) bool {
	lowered := strings.ToLower(name)
	for _, existing := range s.events {
		if existing.ID != selfID && strings.ToLower(existing.Name) == lowered {
			return true
		}
	}
	return false
}

func cloneEvent(event *models.Event) *models.Event {
	clone := *event
	clone.Tags = append([]string(nil), event.Tags...)
	clone.Registrations = append([]models.Registration(nil), event.Registrations...)
	return &clone
}
