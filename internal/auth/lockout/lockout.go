// Package lockout throttles repeated login failures. Failures are counted
// per email+IP pair inside a sliding window; once the threshold is hit,
// further logins for that pair are rejected until the window expires.
//
// The caller must return the same generic response for "locked out" as for
// "wrong password" so the lockout itself does not become an enumeration
// oracle.
package lockout

import (
	"context"
	"fmt"
	"strings"
	"time"

	dErrors "felicity/pkg/domain-errors"
)

// Store counts failures. Counters expire on their own after the window; the
// service never reads a counter older than the window it was started with.
type Store interface {
	// Increment bumps the counter for key, starting the expiry window on
	// first increment, and returns the new count.
	Increment(ctx context.Context, key string, window time.Duration) (int, error)

	// Count returns the current counter value, zero when absent or expired.
	Count(ctx context.Context, key string) (int, error)

	// Reset clears the counter.
	Reset(ctx context.Context, key string) error
}

// Service applies the lockout policy on top of a counter store.
type Service struct {
	store    Store
	attempts int
	window   time.Duration
}

func NewService(store Store, attempts int, window time.Duration) *Service {
	return &Service{store: store, attempts: attempts, window: window}
}

// ErrLockedOut is the coded error for a locked-out pair. The handler maps it
// to the same generic 401 body as a bad password.
var ErrLockedOut = dErrors.New(dErrors.CodeUnauthorized, "Invalid email or password")

// Check fails when the email+IP pair has exhausted its attempts.
func (s *Service) Check(ctx context.Context, email, clientIP string) error {
	count, err := s.store.Count(ctx, key(email, clientIP))
	if err != nil {
		// A broken counter store must not take down logins.
		return nil
	}
	if count >= s.attempts {
		return ErrLockedOut
	}
	return nil
}

// RecordFailure counts one failed attempt and reports whether the pair just
// became locked out.
func (s *Service) RecordFailure(ctx context.Context, email, clientIP string) (lockedOut bool, err error) {
	count, err := s.store.Increment(ctx, key(email, clientIP), s.window)
	if err != nil {
		return false, fmt.Errorf("record login failure: %w", err)
	}
	return count == s.attempts, nil
}

// Reset clears the counter after a successful login.
func (s *Service) Reset(ctx context.Context, email, clientIP string) error {
	return s.store.Reset(ctx, key(email, clientIP))
}

func key(email, clientIP string) string {
	return strings.ToLower(email) + "|" + clientIP
}
