// Package store persists events and their registrations. The register
// operation is the one place that needs a true atomic conditional write: the
// capacity predicate and the append must be indivisible, or concurrent
// registrants racing on the same event would jointly overshoot the limit.
package store

import (
	"context"

	"felicity/internal/event/models"
	id "felicity/pkg/domain"
)

// Store is the event persistence contract.
//
// Register is the atomic registration append. It fails with
// sentinel.ErrNotFound when the event is missing, sentinel.ErrAlreadyUsed
// when the participant already holds an active registration, and
// sentinel.ErrCapacityExhausted when the active count has reached the limit.
// The deadline check stays in the service: it compares against request time
// and involves no contended state.
type Store interface {
	// CreateIfNameAvailable persists the event if no other event holds the
	// same name (case-insensitive). Returns sentinel.ErrAlreadyUsed when
	// the name is taken.
	CreateIfNameAvailable(ctx context.Context, event *models.Event) error

	// FindByID loads an event with its registrations. Returns
	// sentinel.ErrNotFound when absent.
	FindByID(ctx context.Context, eventID id.EventID) (*models.Event, error)

	// List returns all events with their registrations, in creation order.
	List(ctx context.Context) ([]*models.Event, error)

	// Update persists the event's metadata. Renames re-check name
	// uniqueness (sentinel.ErrAlreadyUsed). Registrations are not touched.
	Update(ctx context.Context, event *models.Event) error

	// Delete removes the event and its registrations as one unit.
	Delete(ctx context.Context, eventID id.EventID) error

	// Register atomically appends the registration while the capacity
	// predicate still holds.
	Register(ctx context.Context, registration *models.Registration) error

	// CancelRegistration flips the participant's active registration to
	// cancelled, freeing capacity. Returns sentinel.ErrNotFound when the
	// participant has no active registration on the event.
	CancelRegistration(ctx context.Context, eventID id.EventID, participantID id.IdentityID) error
}
