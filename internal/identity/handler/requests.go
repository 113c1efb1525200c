package handler

import (
	"strings"

	valid "github.com/asaskevich/govalidator"

	"felicity/internal/identity/models"
	"felicity/internal/identity/service"
	dErrors "felicity/pkg/domain-errors"
)

// SignupRequest is the HTTP request body for POST /auth/signup. Signup only
// creates participants; organizers are provisioned by admins.
type SignupRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ContactNumber   string `json:"contact_number"`
	OrgName         string `json:"org_name"`
	ParticipantType string `json:"participant_type"`
}

// Validate checks field presence and basic shape. The variant invariants
// (institute consistency) are enforced by the identity model at write time.
func (r *SignupRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "Required fields are missing")
	}
	if !valid.IsEmail(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "email format is invalid")
	}
	return nil
}

func (r *SignupRequest) toInput() service.ParticipantSignup {
	return service.ParticipantSignup{
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Email:         r.Email,
		Password:      r.Password,
		ContactNumber: r.ContactNumber,
		OrgName:       r.OrgName,
		Type:          models.ParticipantType(r.ParticipantType),
	}
}

// CreateOrganizerRequest is the HTTP request body for POST /users.
type CreateOrganizerRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Category     string `json:"category"`
	DisplayName  string `json:"display_name"`
	Description  string `json:"description"`
	ContactEmail string `json:"contact_email"`
}

func (r *CreateOrganizerRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "Required fields are missing")
	}
	if !valid.IsEmail(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "email format is invalid")
	}
	if r.ContactEmail != "" && !valid.IsEmail(r.ContactEmail) {
		return dErrors.New(dErrors.CodeValidation, "contact email format is invalid")
	}
	return nil
}

func (r *CreateOrganizerRequest) toInput() service.OrganizerSignup {
	return service.OrganizerSignup{
		Email:        r.Email,
		Password:     r.Password,
		Category:     models.OrganizerCategory(r.Category),
		DisplayName:  r.DisplayName,
		Description:  r.Description,
		ContactEmail: r.ContactEmail,
	}
}
