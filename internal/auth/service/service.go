// Package service implements credential verification and session token
// issuance. Every failure path for credentials — unknown email, wrong
// password, locked-out pair — returns the same coded error, so callers
// cannot distinguish which accounts exist.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	authmetrics "felicity/internal/auth/metrics"
	"felicity/internal/identity/models"
	id "felicity/pkg/domain"
	dErrors "felicity/pkg/domain-errors"
	"felicity/pkg/platform/audit"
	"felicity/pkg/platform/sentinel"
	"felicity/pkg/requestcontext"
)

// dummyHash is a valid bcrypt hash of a random string. When the email is
// unknown we still run a compare against it, so the unknown-email path costs
// the same as the wrong-password path.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// ErrInvalidCredentials is the single generic error for every credential
// failure. Message and code are identical across paths.
var ErrInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "Invalid email or password")

type IdentityReader interface {
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)
}

type TokenIssuer interface {
	GenerateToken(identityID id.IdentityID, email string, role id.Role, now time.Time) (string, error)
	TTL() time.Duration
}

type Lockout interface {
	Check(ctx context.Context, email, clientIP string) error
	RecordFailure(ctx context.Context, email, clientIP string) (lockedOut bool, err error)
	Reset(ctx context.Context, email, clientIP string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service verifies credentials and issues tokens.
type Service struct {
	identities IdentityReader
	tokens     TokenIssuer
	lockout    Lockout
	logger     *slog.Logger
	publisher  AuditPublisher
	metrics    *authmetrics.Metrics
}

type Option func(*Service)

func WithLockout(l Lockout) Option {
	return func(s *Service) { s.lockout = l }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *authmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(identities IdentityReader, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		identities: identities,
		tokens:     tokens,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginResult carries everything the handler needs for dual token delivery.
type LoginResult struct {
	Token       string
	RedirectURL string
	ExpiresAt   time.Time
}

// Login verifies the credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "Required fields are missing")
	}

	clientIP := requestcontext.ClientIP(ctx)
	now := requestcontext.Now(ctx)

	if s.lockout != nil {
		if err := s.lockout.Check(ctx, email, clientIP); err != nil {
			s.countFailure("locked_out")
			return nil, err
		}
	}

	identity, err := s.identities.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up identity")
	}

	storedHash := dummyHash
	if identity != nil {
		storedHash = identity.PasswordHash
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password))

	if identity == nil || compareErr != nil {
		s.recordFailure(ctx, email, clientIP, now)
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(identity.ID, identity.Email, identity.Role, now)
	if err != nil {
		return nil, err
	}

	if s.lockout != nil {
		if err := s.lockout.Reset(ctx, email, clientIP); err != nil {
			s.logger.WarnContext(ctx, "lockout reset failed", "error", err)
		}
	}

	s.emit(ctx, audit.Event{
		Action:     audit.ActionLoginSucceeded,
		Timestamp:  now,
		IdentityID: identity.ID,
		Email:      identity.Email,
	})
	s.countSuccess()

	return &LoginResult{
		Token:       token,
		RedirectURL: fmt.Sprintf("/user/%s/dashboard", identity.ID),
		ExpiresAt:   now.Add(s.tokens.TTL()),
	}, nil
}

func (s *Service) recordFailure(ctx context.Context, email, clientIP string, now time.Time) {
	s.countFailure("bad_credentials")
	s.emit(ctx, audit.Event{
		Action:    audit.ActionAuthFailed,
		Timestamp: now,
		Email:     email,
	})

	if s.lockout == nil {
		return
	}
	lockedOut, err := s.lockout.RecordFailure(ctx, email, clientIP)
	if err != nil {
		s.logger.WarnContext(ctx, "lockout record failed", "error", err)
		return
	}
	if lockedOut {
		s.emit(ctx, audit.Event{
			Action:    audit.ActionAuthLockedOut,
			Timestamp: now,
			Email:     email,
			Reason:    "failed attempt threshold reached",
		})
	}
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

func (s *Service) countSuccess() {
	if s.metrics != nil {
		s.metrics.IncrementLoginSucceeded()
	}
}

func (s *Service) countFailure(reason string) {
	if s.metrics != nil {
		s.metrics.IncrementLoginFailed(reason)
	}
}
