// Package service orchestrates identity creation and reads. Creation hashes
// the password, validates the variant invariants, and relies on the store for
// atomic email uniqueness. Reads return sanitized records only; the password
// hash leaves this package solely through the store's FindByEmail, which the
// authentication service consumes.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	identitymetrics "felicity/internal/identity/metrics"
	"felicity/internal/identity/models"
	"felicity/internal/policy"
	id "felicity/pkg/domain"
	dErrors "felicity/pkg/domain-errors"
	"felicity/pkg/platform/audit"
	"felicity/pkg/platform/sentinel"
	"felicity/pkg/requestcontext"
)

// bcryptCost matches the cost the stored hashes were minted with.
const bcryptCost = 10

type Store interface {
	CreateIfEmailAvailable(ctx context.Context, identity *models.Identity) error
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)
	FindByID(ctx context.Context, identityID id.IdentityID) (*models.Identity, error)
	List(ctx context.Context) ([]*models.Identity, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service manages the identity lifecycle.
type Service struct {
	identities Store
	rules      models.Rules
	logger     *slog.Logger
	publisher  AuditPublisher
	metrics    *identitymetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *identitymetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(identities Store, rules models.Rules, opts ...Option) *Service {
	s := &Service{
		identities: identities,
		rules:      rules,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParticipantSignup carries the fields a participant provides at signup.
type ParticipantSignup struct {
	FirstName     string
	LastName      string
	Email         string
	Password      string
	ContactNumber string
	OrgName       string
	Type          models.ParticipantType
}

// OrganizerSignup carries the fields for admin-provisioned organizers.
type OrganizerSignup struct {
	Email        string
	Password     string
	Category     models.OrganizerCategory
	DisplayName  string
	Description  string
	ContactEmail string
}

// CreateParticipant registers a new participant identity. Open to
// unauthenticated callers; this is the public signup path.
func (s *Service) CreateParticipant(ctx context.Context, input ParticipantSignup) (*models.Identity, error) {
	identity := &models.Identity{
		ID:        id.IdentityID(uuid.New()),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Email:     strings.TrimSpace(input.Email),
		Role:      id.RoleParticipant,
		Participant: &models.ParticipantProfile{
			ContactNumber: strings.TrimSpace(input.ContactNumber),
			OrgName:       strings.TrimSpace(input.OrgName),
			Type:          input.Type,
		},
	}
	return s.create(ctx, identity, input.Password)
}

// CreateOrganizer provisions an organizer identity. Admin-only; organizers
// never arrive through public signup.
func (s *Service) CreateOrganizer(ctx context.Context, input OrganizerSignup) (*models.Identity, error) {
	if err := policy.Authorize(requestcontext.Role(ctx), policy.CapCreateOrganizer); err != nil {
		return nil, err
	}

	identity := &models.Identity{
		ID:    id.IdentityID(uuid.New()),
		Email: strings.TrimSpace(input.Email),
		Role:  id.RoleOrganizer,
		Organizer: &models.OrganizerProfile{
			Category:     input.Category,
			DisplayName:  strings.TrimSpace(input.DisplayName),
			Description:  strings.TrimSpace(input.Description),
			ContactEmail: strings.TrimSpace(input.ContactEmail),
		},
	}
	return s.create(ctx, identity, input.Password)
}

// EnsureAdmin provisions the bootstrap admin if it does not already exist.
// Called at startup; a no-op when the email is taken or not configured.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.identities.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up admin identity")
	}

	identity := &models.Identity{
		ID:    id.IdentityID(uuid.New()),
		Email: email,
		Role:  id.RoleAdmin,
	}
	if _, err := s.create(ctx, identity, password); err != nil {
		// A concurrent replica may have seeded it first.
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			return nil
		}
		return err
	}
	s.logger.InfoContext(ctx, "bootstrap admin provisioned", "email", email)
	return nil
}

func (s *Service) create(ctx context.Context, identity *models.Identity, password string) (*models.Identity, error) {
	start := time.Now()
	defer s.observeCreate(start)

	if password == "" {
		s.rejectSignup()
		return nil, dErrors.New(dErrors.CodeValidation, "password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	identity.PasswordHash = string(hash)

	now := requestcontext.Now(ctx)
	identity.CreatedAt = now
	identity.UpdatedAt = now

	if err := identity.Validate(s.rules); err != nil {
		s.rejectSignup()
		return nil, err
	}

	if err := s.identities.CreateIfEmailAvailable(ctx, identity); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			s.rejectSignup()
			return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create identity")
	}

	s.emit(ctx, audit.Event{
		Action:     audit.ActionIdentityCreated,
		Timestamp:  now,
		IdentityID: identity.ID,
		Email:      identity.Email,
		Reason:     string(identity.Role),
	})
	if s.metrics != nil {
		s.metrics.IncrementCreated(string(identity.Role))
	}
	return identity.Sanitized(), nil
}

// Get returns one sanitized identity. Callers may read their own record;
// admins may read any.
func (s *Service) Get(ctx context.Context, identityID id.IdentityID) (*models.Identity, error) {
	if identityID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "identity id is required")
	}
	err := policy.AuthorizeOwner(requestcontext.Role(ctx), policy.CapReadIdentity,
		requestcontext.IdentityID(ctx), identityID)
	if err != nil {
		return nil, err
	}

	identity, err := s.identities.FindByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "identity not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}
	return identity.Sanitized(), nil
}

// List returns all identities, sanitized. Admin only.
func (s *Service) List(ctx context.Context) ([]*models.Identity, error) {
	if err := policy.Authorize(requestcontext.Role(ctx), policy.CapListIdentities); err != nil {
		return nil, err
	}

	identities, err := s.identities.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list identities")
	}
	out := make([]*models.Identity, len(identities))
	for i, identity := range identities {
		out[i] = identity.Sanitized()
	}
	return out, nil
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

func (s *Service) observeCreate(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveCreate(start)
	}
}

func (s *Service) rejectSignup() {
	if s.metrics != nil {
		s.metrics.IncrementSignupRejected()
	}
}
