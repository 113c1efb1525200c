package handler

import (
	"strings"
	"time"

	"felicity/internal/event/models"
	"felicity/internal/event/service"
	dErrors "felicity/pkg/domain-errors"
)

// CreateEventRequest is the HTTP request body for POST /events.
type CreateEventRequest struct {
	Name                 string    `json:"name"`
	Description          string    `json:"description"`
	Eligibility          string    `json:"eligibility"`
	RegistrationDeadline time.Time `json:"registration_deadline"`
	StartDate            time.Time `json:"start_date"`
	EndDate              time.Time `json:"end_date"`
	RegistrationLimit    int       `json:"registration_limit"`
	RegistrationFee      int64     `json:"registration_fee"`
	Tags                 []string  `json:"tags"`
}

func (r *CreateEventRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "event name is required")
	}
	return nil
}

func (r *CreateEventRequest) toInput() service.CreateEvent {
	return service.CreateEvent{
		Name:                 r.Name,
		Description:          r.Description,
		Eligibility:          r.Eligibility,
		RegistrationDeadline: r.RegistrationDeadline,
		StartDate:            r.StartDate,
		EndDate:              r.EndDate,
		RegistrationLimit:    r.RegistrationLimit,
		RegistrationFee:      r.RegistrationFee,
		Tags:                 r.Tags,
	}
}

// UpdateEventRequest is the HTTP request body for PUT /events/{id}. The
// field set mirrors models.Patch; owner and registrations are absent on
// purpose, and DisallowUnknownFields in the decoder rejects attempts to
// smuggle them in.
type UpdateEventRequest struct {
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

func (r *UpdateEventRequest) toPatch() models.Patch {
	return models.Patch{
		Name:                 r.Name,
		Description:          r.Description,
		Eligibility:          r.Eligibility,
		RegistrationDeadline: r.RegistrationDeadline,
		StartDate:            r.StartDate,
		EndDate:              r.EndDate,
		RegistrationLimit:    r.RegistrationLimit,
		RegistrationFee:      r.RegistrationFee,
		Tags:                 r.Tags,
	}
}

// RegisterRequest is the optional HTTP request body for
// POST /events/{id}/register.
type RegisterRequest struct {
	FormResponses map[string]any `json:"form_responses"`
}
