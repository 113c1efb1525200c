// Package service orchestrates the event lifecycle and the registration
// protocol. The service owns the deadline check and the policy gates; the
// store owns the atomic capacity-and-duplicate enforcement.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	eventmetrics "felicity/internal/event/metrics"
	"felicity/internal/event/models"
	identitymodels "felicity/internal/identity/models"
	"felicity/internal/policy"
	id "felicity/pkg/domain"
	dErrors "felicity/pkg/domain-errors"
	"felicity/pkg/platform/audit"
	"felicity/pkg/platform/sentinel"
	"felicity/pkg/requestcontext"
)

const tracerName = "felicity/event"

type Store interface {
	CreateIfNameAvailable(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, eventID id.EventID) (*models.Event, error)
	List(ctx context.Context) ([]*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, eventID id.EventID) error
	Register(ctx context.Context, registration *models.Registration) error
	CancelRegistration(ctx context.Context, eventID id.EventID, participantID id.IdentityID) error
}

// IdentityReader resolves event owners for read summaries.
type IdentityReader interface {
	FindByID(ctx context.Context, identityID id.IdentityID) (*identitymodels.Identity, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service manages events and registrations.
type Service struct {
	events     Store
	identities IdentityReader
	logger     *slog.Logger
	publisher  AuditPublisher
	metrics    *eventmetrics.Metrics
	tracer     trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *eventmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(events Store, identities IdentityReader, opts ...Option) *Service {
	s := &Service{
		events:     events,
		identities: identities,
		logger:     slog.Default(),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateEvent carries the fields for a new event.
type CreateEvent struct {
	Name                 string
	Description          string
	Eligibility          string
	RegistrationDeadline time.Time
	StartDate            time.Time
	EndDate              time.Time
	RegistrationLimit    int
	RegistrationFee      int64
	Tags                 []string
}

// OwnerSummary is the public owner projection attached to event reads.
type OwnerSummary struct {
	ID          id.IdentityID `json:"id"`
	DisplayName string        `json:"display_name,omitempty"`
	Email       string        `json:"email"`
}

// View is an event enriched with its derived state for reads.
type View struct {
	*models.Event
	State       models.EventState `json:"state"`
	ActiveCount int               `json:"active_count"`
	Owner       *OwnerSummary     `json:"owner,omitempty"`
}

// Ticket is what a participant gets back from a successful registration.
type Ticket struct {
	EventID        id.EventID        `json:"event_id"`
	RegistrationID id.RegistrationID `json:"registration_id"`
}

// Create persists a new event owned by the caller.
func (s *Service) Create(ctx context.Context, input CreateEvent) (*models.Event, error) {
	role := requestcontext.Role(ctx)
	if err := policy.Authorize(role, policy.CapCreateEvent); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	event := &models.Event{
		ID:                   id.EventID(uuid.New()),
		Name:                 input.Name,
		Description:          input.Description,
		Eligibility:          input.Eligibility,
		RegistrationDeadline: input.RegistrationDeadline,
		StartDate:            input.StartDate,
		EndDate:              input.EndDate,
		RegistrationLimit:    input.RegistrationLimit,
		RegistrationFee:      input.RegistrationFee,
		Tags:                 input.Tags,
		OwnerID:              requestcontext.IdentityID(ctx),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	if err := s.events.CreateIfNameAvailable(ctx, event); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "event name must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create event")
	}

	s.emit(ctx, audit.Event{
		Action:     audit.ActionEventCreated,
		Timestamp:  now,
		IdentityID: event.OwnerID,
		Reason:     event.Name,
	})
	if s.metrics != nil {
		s.metrics.IncrementEventCreated()
	}
	return event, nil
}

// Get returns one event with derived state. Public.
func (s *Service) Get(ctx context.Context, eventID id.EventID) (*View, error) {
	event, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, event), nil
}

// List returns all events with derived state and owner summaries. Public.
func (s *Service) List(ctx context.Context) ([]*View, error) {
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list events")
	}
	views := make([]*View, len(events))
	for i, event := range events {
		views[i] = s.view(ctx, event)
	}
	return views, nil
}

// Update applies a patch to an event the caller owns (or any event, for
// admins). The owner field and the registration collection are not
// patchable; the handler rejects unknown fields before the patch gets here.
func (s *Service) Update(ctx context.Context, eventID id.EventID, patch models.Patch) (*models.Event, error) {
	event, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	err = policy.AuthorizeOwner(requestcontext.Role(ctx), policy.CapMutateEvent,
		requestcontext.IdentityID(ctx), event.OwnerID)
	if err != nil {
		return nil, err
	}

	if err := event.Apply(patch, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.events.Update(ctx, event); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "event name must be unique")
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update event")
	}

	s.emit(ctx, audit.Event{
		Action:     audit.ActionEventUpdated,
		Timestamp:  requestcontext.Now(ctx),
		IdentityID: requestcontext.IdentityID(ctx),
		Reason:     event.Name,
	})
	return event, nil
}

// Delete removes an event and its registrations as one unit.
func (s *Service) Delete(ctx context.Context, eventID id.EventID) error {
	event, err := s.load(ctx, eventID)
	if err != nil {
		return err
	}
	err = policy.AuthorizeOwner(requestcontext.Role(ctx), policy.CapMutateEvent,
		requestcontext.IdentityID(ctx), event.OwnerID)
	if err != nil {
		return err
	}

	if err := s.events.Delete(ctx, eventID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete event")
	}

	s.emit(ctx, audit.Event{
		Action:     audit.ActionEventDeleted,
		Timestamp:  requestcontext.Now(ctx),
		IdentityID: requestcontext.IdentityID(ctx),
		Reason:     event.Name,
	})
	return nil
}

// Register runs the registration protocol for the calling participant.
//
// The deadline check compares the request-scoped time against the deadline;
// the duplicate pre-read gives a friendly error in the common case; the
// store's atomic append is the actual enforcement of both capacity and
// uniqueness under concurrency.
func (s *Service) Register(ctx context.Context, eventID id.EventID, formResponses map[string]any) (ticket *Ticket, err error) {
	ctx, span := s.tracer.Start(ctx, "event.register",
		trace.WithAttributes(attribute.String("event.id", eventID.String())))
	defer func() {
		span.SetAttributes(attribute.String("outcome", registerOutcome(err)))
		span.End()
	}()

	if err := policy.Authorize(requestcontext.Role(ctx), policy.CapRegisterForEvent); err != nil {
		return nil, err
	}
	participantID := requestcontext.IdentityID(ctx)

	event, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	if now.After(event.RegistrationDeadline) {
		s.reject("deadline_passed")
		return nil, dErrors.New(dErrors.CodeDeadlinePassed, "registration deadline has passed")
	}
	if event.ActiveRegistration(participantID) != nil {
		s.reject("already_registered")
		return nil, dErrors.New(dErrors.CodeAlreadyRegistered, "already registered for this event")
	}

	registration := &models.Registration{
		ID:            id.RegistrationID(uuid.New()),
		EventID:       eventID,
		ParticipantID: participantID,
		Status:        models.StatusRegistered,
		FormResponses: formResponses,
		CreatedAt:     now,
	}
	if err := s.events.Register(ctx, registration); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		case errors.Is(err, sentinel.ErrCapacityExhausted):
			s.reject("capacity_reached")
			return nil, dErrors.New(dErrors.CodeCapacityReached, "event has reached its registration limit")
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			s.reject("already_registered")
			return nil, dErrors.New(dErrors.CodeAlreadyRegistered, "already registered for this event")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register")
		}
	}

	s.emit(ctx, audit.Event{
		Action:     audit.ActionRegistrationCreated,
		Timestamp:  now,
		IdentityID: participantID,
		Reason:     event.Name,
	})
	if s.metrics != nil {
		s.metrics.IncrementRegistration()
	}
	return &Ticket{EventID: eventID, RegistrationID: registration.ID}, nil
}

// Cancel soft-cancels the caller's active registration, freeing capacity.
func (s *Service) Cancel(ctx context.Context, eventID id.EventID) error {
	if err := policy.Authorize(requestcontext.Role(ctx), policy.CapRegisterForEvent); err != nil {
		return err
	}
	participantID := requestcontext.IdentityID(ctx)

	if err := s.events.CancelRegistration(ctx, eventID, participantID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "no active registration for this event")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to cancel registration")
	}

	s.emit(ctx, audit.Event{
		Action:     audit.ActionRegistrationCancelled,
		Timestamp:  requestcontext.Now(ctx),
		IdentityID: participantID,
	})
	if s.metrics != nil {
		s.metrics.IncrementCancellation()
	}
	return nil
}

// ListRegistrations returns an event's registrations for its owner or an
// admin.
func (s *Service) ListRegistrations(ctx context.Context, eventID id.EventID) ([]models.Registration, error) {
	event, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	err = policy.AuthorizeOwner(requestcontext.Role(ctx), policy.CapMutateEvent,
		requestcontext.IdentityID(ctx), event.OwnerID)
	if err != nil {
		return nil, err
	}
	return event.Registrations, nil
}

func (s *Service) load(ctx context.Context, eventID id.EventID) (*models.Event, error) {
	if eventID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "event id is required")
	}
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}
	return event, nil
}

// view derives state, hides the raw registration list from public reads, and
// attaches an owner summary when the owner resolves.
func (s *Service) view(ctx context.Context, event *models.Event) *View {
	now := requestcontext.Now(ctx)
	v := &View{
		Event:       event,
		State:       event.StateAt(now),
		ActiveCount: event.ActiveCount(),
	}
	event.Registrations = nil

	if s.identities != nil {
		if owner, err := s.identities.FindByID(ctx, event.OwnerID); err == nil {
			summary := &OwnerSummary{ID: owner.ID, Email: owner.Email}
			if owner.Organizer != nil {
				summary.DisplayName = owner.Organizer.DisplayName
			}
			v.Owner = summary
		}
	}
	return v
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.publisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	event.ClientIP = requestcontext.ClientIP(ctx)
	event.Device = requestcontext.DeviceSummary(ctx)
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

func (s *Service) reject(reason string) {
	if s.metrics != nil {
		s.metrics.IncrementRejection(reason)
	}
}

func registerOutcome(err error) string {
	if err == nil {
		return "registered"
	}
	return string(dErrors.CodeOf(err))
}
