// Package models defines the polymorphic identity record: one base identity
// plus exactly one role-selected variant payload. The variant invariants are
// revalidated on every write, not just at signup, because the organization
// name / participant type / email-domain consistency can drift if any one
// field is edited in isolation.
package models

import (
	"regexp"
	"strings"
	"time"

	id "felicity/pkg/domain"
	dErrors "felicity/pkg/domain-errors"
)

// ParticipantType classifies a participant relative to the host institute.
type ParticipantType string

const (
	ParticipantIIIT    ParticipantType = "IIIT"
	ParticipantNonIIIT ParticipantType = "Non-IIIT"
)

func (t ParticipantType) Valid() bool {
	return t == ParticipantIIIT || t == ParticipantNonIIIT
}

// OrganizerCategory classifies the organizing body behind an organizer
// identity.
type OrganizerCategory string

const (
	CategoryClub     OrganizerCategory = "Club"
	CategoryCouncil  OrganizerCategory = "Council"
	CategoryFestTeam OrganizerCategory = "FestTeam"
)

func (c OrganizerCategory) Valid() bool {
	return c == CategoryClub || c == CategoryCouncil || c == CategoryFestTeam
}

// ParticipantProfile is the variant payload for Role == participant.
type ParticipantProfile struct {
	ContactNumber string          `json:"contact_number"`
	OrgName       string          `json:"org_name"`
	Type          ParticipantType `json:"participant_type"`
}

// OrganizerProfile is the variant payload for Role == organizer.
type OrganizerProfile struct {
	Category     OrganizerCategory `json:"category"`
	DisplayName  string            `json:"display_name"`
	Description  string            `json:"description"`
	ContactEmail string            `json:"contact_email"`
}

// Identity is a tagged union: the Role tag selects which variant pointer is
// populated. Admins carry no variant payload.
//
// Invariants:
//   - Email is unique case-insensitively (enforced by the store) and matches
//     the configured pattern
//   - Role is fixed at creation and selects exactly one variant
//   - PasswordHash never appears in JSON output
//   - Institute consistency: OrgName equal to the institute name forces
//     ParticipantIIIT and an institute email domain; any other OrgName forces
//     ParticipantNonIIIT
type Identity struct {
	ID           id.IdentityID `json:"id"`
	FirstName    string        `json:"first_name"`
	LastName     string        `json:"last_name"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	Role         id.Role       `json:"role"`

	Participant *ParticipantProfile `json:"participant,omitempty"`
	Organizer   *OrganizerProfile   `json:"organizer,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Rules holds the immutable validation configuration loaded at startup.
type Rules struct {
	EmailPattern                   *regexp.Regexp
	InstituteName                  string
	InstituteEmailDomain           string
	RequireInstituteOrganizerEmail bool
}

// Validate checks the base fields and the variant invariants for the
// identity's role. It is called before every persist, initial or not.
func (i *Identity) Validate(rules Rules) error {
	if i.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if rules.EmailPattern != nil && !rules.EmailPattern.MatchString(i.Email) {
		return dErrors.New(dErrors.CodeValidation, "email format is invalid")
	}
	if i.PasswordHash == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	if !i.Role.Valid() {
		return dErrors.New(dErrors.CodeValidation, "unknown role")
	}

	switch i.Role {
	case id.RoleParticipant:
		if i.Organizer != nil {
			return dErrors.New(dErrors.CodeValidation, "participant cannot carry an organizer profile")
		}
		return i.validateParticipant(rules)
	case id.RoleOrganizer:
		if i.Participant != nil {
			return dErrors.New(dErrors.CodeValidation, "organizer cannot carry a participant profile")
		}
		return i.validateOrganizer(rules)
	case id.RoleAdmin:
		if i.Participant != nil || i.Organizer != nil {
			return dErrors.New(dErrors.CodeValidation, "admin carries no profile")
		}
		return nil
	}
	return dErrors.New(dErrors.CodeValidation, "unknown role")
}

func (i *Identity) validateParticipant(rules Rules) error {
	p := i.Participant
	if p == nil {
		return dErrors.New(dErrors.CodeValidation, "participant profile is required")
	}
	if i.FirstName == "" || i.LastName == "" {
		return dErrors.New(dErrors.CodeValidation, "first and last name are required")
	}
	if p.ContactNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "contact number is required")
	}
	if p.OrgName == "" {
		return dErrors.New(dErrors.CodeValidation, "organization name is required")
	}
	if !p.Type.Valid() {
		return dErrors.New(dErrors.CodeValidation, "participant type must be IIIT or Non-IIIT")
	}

	fromInstitute := strings.EqualFold(p.OrgName, rules.InstituteName)
	if fromInstitute && p.Type != ParticipantIIIT {
		return dErrors.New(dErrors.CodeValidation, "institute members must register with the IIIT participant type")
	}
	if !fromInstitute && p.Type != ParticipantNonIIIT {
		return dErrors.New(dErrors.CodeValidation, "IIIT participant type requires the institute organization name")
	}
	if p.Type == ParticipantIIIT && !hasDomain(i.Email, rules.InstituteEmailDomain) {
		return dErrors.New(dErrors.CodeValidation, "IIIT participants must use an institute email address")
	}
	return nil
}

func (i *Identity) validateOrganizer(rules Rules) error {
	o := i.Organizer
	if o == nil {
		return dErrors.New(dErrors.CodeValidation, "organizer profile is required")
	}
	if o.DisplayName == "" {
		return dErrors.New(dErrors.CodeValidation, "organizer name is required")
	}
	if !o.Category.Valid() {
		return dErrors.New(dErrors.CodeValidation, "category must be Club, Council, or FestTeam")
	}
	if rules.RequireInstituteOrganizerEmail {
		contact := o.ContactEmail
		if contact == "" {
			contact = i.Email
		}
		if !hasDomain(contact, rules.InstituteEmailDomain) {
			return dErrors.New(dErrors.CodeValidation, "organizer contact email must use the institute domain")
		}
	}
	return nil
}

func hasDomain(email, domain string) bool {
	if domain == "" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(email), strings.ToLower(domain))
}

// Sanitized returns a copy safe for API responses: the password hash is
// dropped. The json:"-" tag already hides it from encoding; clearing it too
// keeps accidental logging of the struct harmless.
func (i *Identity) Sanitized() *Identity {
	clean := *i
	clean.PasswordHash = ""
	if i.Participant != nil {
		p := *i.Participant
		clean.Participant = &p
	}
	if i.Organizer != nil {
		o := *i.Organizer
		clean.Organizer = &o
	}
	return &clean
}
