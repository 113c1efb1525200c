// Package models defines events and their embedded registrations. Event
// state (Open, Full, DeadlinePassed) is derived at read time from the
// deadline, the limit, and the non-cancelled registration count; it is never
// stored, so it can't go stale.
package models

import (
	"strings"
	"time"

	id "felicity/pkg/domain"
	dErrors "felicity/pkg/domain-errors"
)

// RegistrationStatus tracks a registration's lifecycle. Only Cancelled frees
// capacity; Attended and Waitlisted still count against the limit.
type RegistrationStatus string

const (
	StatusRegistered RegistrationStatus = "registered"
	StatusCancelled  RegistrationStatus = "cancelled"
	StatusAttended   RegistrationStatus = "attended"
	StatusWaitlisted RegistrationStatus = "waitlisted"
)

// Registration links a participant to an event.
type Registration struct {
	ID            id.RegistrationID  `json:"id"`
	EventID       id.EventID         `json:"event_id"`
	ParticipantID id.IdentityID      `json:"participant_id"`
	Status        RegistrationStatus `json:"status"`
	FormResponses map[string]any     `json:"form_responses,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// Active reports whether the registration consumes capacity.
func (r *Registration) Active() bool {
	return r.Status != StatusCancelled
}

// EventState is the derived lifecycle state exposed in reads.
type EventState string

const (
	StateOpen           EventState = "open"
	StateFull           EventState = "full"
	StateDeadlinePassed EventState = "deadline_passed"
)

// Event is the aggregate root for a registrable event.
//
// Invariants:
//   - Name is unique case-insensitively (enforced by the store)
//   - RegistrationLimit > 0, RegistrationFee >= 0, EndDate >= StartDate
//   - count(active registrations) <= RegistrationLimit at all times
//   - At most one active registration per participant
//   - OwnerID resolves to an Organizer or Admin and never changes
type Event struct {
	ID                   id.EventID    `json:"id"`
	Name                 string        `json:"name"`
	Description          string        `json:"description"`
	Eligibility          string        `json:"eligibility"`
	RegistrationDeadline time.Time     `json:"registration_deadline"`
	StartDate            time.Time     `json:"start_date"`
	EndDate              time.Time     `json:"end_date"`
	RegistrationLimit    int           `json:"registration_limit"`
	RegistrationFee      int64         `json:"registration_fee"`
	Tags                 []string      `json:"tags"`
	OwnerID              id.IdentityID `json:"owner_id"`

	Registrations []Registration `json:"registrations,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks required fields and numeric ranges.
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "event name is required")
	}
	if e.RegistrationDeadline.IsZero() || e.StartDate.IsZero() || e.EndDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "registration deadline, start date, and end date are required")
	}
	if e.EndDate.Before(e.StartDate) {
		return dErrors.New(dErrors.CodeValidation, "end date must not precede start date")
	}
	if e.RegistrationLimit <= 0 {
		return dErrors.New(dErrors.CodeValidation, "registration limit must be positive")
	}
	if e.RegistrationFee < 0 {
		return dErrors.New(dErrors.CodeValidation, "registration fee must not be negative")
	}
	if e.OwnerID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "event owner is required")
	}
	return nil
}

// ActiveCount returns the number of registrations consuming capacity.
func (e *Event) ActiveCount() int {
	count := 0
	for i := range e.Registrations {
		if e.Registrations[i].Active() {
			count++
		}
	}
	return count
}

// ActiveRegistration returns the participant's active registration, if any.
func (e *Event) ActiveRegistration(participantID id.IdentityID) *Registration {
	for i := range e.Registrations {
		r := &e.Registrations[i]
		if r.ParticipantID == participantID && r.Active() {
			return r
		}
	}
	return nil
}

// StateAt derives the event state at the given instant. DeadlinePassed wins
// over Full: once the deadline is gone, capacity no longer matters.
func (e *Event) StateAt(now time.Time) EventState {
	if now.After(e.RegistrationDeadline) {
		return StateDeadlinePassed
	}
	if e.ActiveCount() >= e.RegistrationLimit {
		return StateFull
	}
	return StateOpen
}

// Patch carries the mutable fields of an update. Nil means "leave as is".
// Owner and registrations are deliberately absent: the owner is immutable
// and registrations only change through the registration protocol.
type Patch struct {
	Name                 *string    `json:"name"`
	Description          *string    `json:"description"`
	Eligibility          *string    `json:"eligibility"`
	RegistrationDeadline *time.Time `json:"registration_deadline"`
	StartDate            *time.Time `json:"start_date"`
	EndDate              *time.Time `json:"end_date"`
	RegistrationLimit    *int       `json:"registration_limit"`
	RegistrationFee      *int64     `json:"registration_fee"`
	Tags                 *[]string  `json:"tags"`
}

// Apply overlays the patch onto the event and revalidates.
func (e *Event) Apply(p Patch, now time.Time) error {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Eligibility != nil {
		e.Eligibility = *p.Eligibility
	}
	if p.RegistrationDeadline != nil {
		e.RegistrationDeadline = *p.RegistrationDeadline
	}
	if p.StartDate != nil {
		e.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		e.EndDate = *p.EndDate
	}
	if p.RegistrationLimit != nil {
		e.RegistrationLimit = *p.RegistrationLimit
	}
	if p.RegistrationFee != nil {
		e.RegistrationFee = *p.RegistrationFee
	}
	if p.Tags != nil {
		e.Tags = *p.Tags
	}
	e.UpdatedAt = now
	return e.Validate()
}
