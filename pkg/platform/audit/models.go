// Package audit captures key domain actions as append-only events. Events
// are emitted from services, never from stores, and are already redacted at
// construction: no passwords, tokens, or raw headers ever enter an Event.
package audit

import (
	"context"
	"time"

	id "felicity/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose, enabling
// different retention and routing.
type EventCategory string

const (
	// CategorySecurity covers events relevant to security monitoring:
	// auth failures, lockouts, forbidden access attempts.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine domain actions useful for
	// operational visibility: signups, event lifecycle, registrations.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category   EventCategory `json:"category"`
	Action     Action        `json:"action"`
	Timestamp  time.Time     `json:"timestamp"`
	IdentityID id.IdentityID `json:"identity_id,omitempty"`
	Email      string        `json:"email,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	RequestID  string        `json:"request_id,omitempty"`
	ClientIP   string        `json:"client_ip,omitempty"`
	Device     string        `json:"device,omitempty"`
}

// Action names what happened.
type Action string

const (
	ActionIdentityCreated Action = "identity_created"
	ActionLoginSucceeded  Action = "login_succeeded"
	ActionAuthFailed      Action = "auth_failed"
	ActionAuthLockedOut   Action = "auth_locked_out"

	ActionEventCreated          Action = "event_created"
	ActionEventUpdated          Action = "event_updated"
	ActionEventDeleted          Action = "event_deleted"
	ActionRegistrationCreated   Action = "registration_created"
	ActionRegistrationCancelled Action = "registration_cancelled"
)

// Category routes an action to its event category.
func (a Action) Category() EventCategory {
	switch a {
	case ActionAuthFailed, ActionAuthLockedOut:
		return CategorySecurity
	default:
		return CategoryOperations
	}
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
