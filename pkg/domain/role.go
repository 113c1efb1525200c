package domain

import dErrors "felicity/pkg/domain-errors"

// Role selects exactly one identity variant and drives every capability
// check. Roles are fixed at creation time.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleOrganizer   Role = "organizer"
	RoleAdmin       Role = "admin"
)

// ParseRole validates a role tag coming from an untrusted source (request
// body, token claims).
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleParticipant, RoleOrganizer, RoleAdmin:
		return Role(s), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown role")
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}
