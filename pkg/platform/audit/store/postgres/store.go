// Package postgres persists audit events through database/sql with the pq
// driver. The audit trail is append-only; nothing in the service deletes or
// rewrites rows.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	audit "felicity/pkg/platform/audit"
)

// Store implements audit.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store. The caller owns the *sql.DB
// lifecycle (opened with the pq driver).
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append writes one audit event.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	var identityID any
	if !event.IdentityID.IsNil() {
		identityID = event.IdentityID.String()
	}

	query := `
		INSERT INTO audit_events
			(id, category, action, identity_id, email, reason, request_id, client_ip, device, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		string(event.Category),
		string(event.Action),
		identityID,
		event.Email,
		event.Reason,
		event.RequestID,
		event.ClientIP,
		event.Device,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}
