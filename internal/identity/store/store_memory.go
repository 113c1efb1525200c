package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"felicity/internal/identity/models"
	id "felicity/pkg/domain"
	"felicity/pkg/platform/sentinel"
)

// InMemory keeps identities in a map guarded by a mutex. Used in tests and
// when no database is configured.
type InMemory struct {
	mu         sync.RWMutex
	identities map[id.IdentityID]*models.Identity
}

func NewInMemory() *InMemory {
	return &InMemory{identities: make(map[id.IdentityID]*models.Identity)}
}

func (s *InMemory) CreateIfEmailAvailable(_ context.Context, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lowered := strings.ToLower(identity.Email)
	for _, existing := range s.identities {
		if strings.ToLower(existing.Email) == lowered {
			return sentinel.ErrAlreadyUsed
		}
	}

	clone := *identity
	s.identities[identity.ID] = &clone
	return nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lowered := strings.ToLower(email)
	for _, identity := range s.identities {
		if strings.ToLower(identity.Email) == lowered {
			clone := *identity
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByID(_ context.Context, identityID id.IdentityID) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.identities[identityID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *identity
	return &clone, nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Identity, 0, len(s.identities))
	for _, identity := range s.identities {
		clone := *identity
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
