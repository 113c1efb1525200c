// Package domain holds shared domain primitives: typed identifiers and the
// role enum. Typed IDs prevent cross-type assignment at compile time, so an
// event ID can never be passed where an identity ID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "felicity/pkg/domain-errors"
)

// IdentityID identifies an identity (participant, organizer, or admin).
type IdentityID uuid.UUID

// EventID identifies an event.
type EventID uuid.UUID

// RegistrationID identifies a single registration entry within an event.
type RegistrationID uuid.UUID

func (id IdentityID) String() string     { return uuid.UUID(id).String() }
func (id EventID) String() string        { return uuid.UUID(id).String() }
func (id RegistrationID) String() string { return uuid.UUID(id).String() }

func (id IdentityID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id RegistrationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText implementations keep JSON output as canonical UUID strings.

func (id IdentityID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id EventID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id RegistrationID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *IdentityID) UnmarshalText(text []byte) error {
	parsed, err := parseUUID(string(text))
	if err != nil {
		return err
	}
	*id = IdentityID(parsed)
	return nil
}

func (id *EventID) UnmarshalText(text []byte) error {
	parsed, err := parseUUID(string(text))
	if err != nil {
		return err
	}
	*id = EventID(parsed)
	return nil
}

func (id *RegistrationID) UnmarshalText(text []byte) error {
	parsed, err := parseUUID(string(text))
	if err != nil {
		return err
	}
	*id = RegistrationID(parsed)
	return nil
}

// ParseIdentityID parses an identity ID from its string form. IDs must be
// valid, non-empty, non-nil UUIDs; anything else is rejected at the trust
// boundary.
func ParseIdentityID(s string) (IdentityID, error) {
	parsed, err := parseUUID(s)
	if err != nil {
		return IdentityID{}, err
	}
	return IdentityID(parsed), nil
}

// ParseEventID parses an event ID from its string form.
func ParseEventID(s string) (EventID, error) {
	parsed, err := parseUUID(s)
	if err != nil {
		return EventID{}, err
	}
	return EventID(parsed), nil
}

// ParseRegistrationID parses a registration ID from its string form.
func ParseRegistrationID(s string) (RegistrationID, error) {
	parsed, err := parseUUID(s)
	if err != nil {
		return RegistrationID{}, err
	}
	return RegistrationID(parsed), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "id cannot be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "id cannot be the nil UUID")
	}
	return parsed, nil
}
