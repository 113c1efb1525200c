// Package store persists identities. Both implementations enforce
// case-insensitive email uniqueness atomically: the memory store under its
// mutex, the postgres store via a unique index on lower(email).
package store

import (
	"context"

	"felicity/internal/identity/models"
	id "felicity/pkg/domain"
)

// Store is the identity persistence contract.
//
// FindByEmail returns the record including the password hash; it exists for
// the authentication service only. Every other read path goes through
// FindByID or List, which callers sanitize before returning.
type Store interface {
	// CreateIfEmailAvailable persists the identity if no other identity
	// holds the same email (case-insensitive). Returns
	// sentinel.ErrAlreadyUsed when the email is taken.
	CreateIfEmailAvailable(ctx context.Context, identity *models.Identity) error

	// FindByEmail looks up an identity by email, case-insensitively.
	// Returns sentinel.ErrNotFound when absent.
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)

	// FindByID looks up an identity by ID. Returns sentinel.ErrNotFound
	// when absent.
	FindByID(ctx context.Context, identityID id.IdentityID) (*models.Identity, error)

	// List returns all identities in creation order.
	List(ctx context.Context) ([]*models.Identity, error)
}
