package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the full DDL for the service. Statements are idempotent so
// EnsureSchema can run on every startup.
//
// The partial unique index on registrations is load-bearing: it makes the
// duplicate-registration check part of the same atomic write as the capacity
// check, so two concurrent registrations from one participant cannot both
// land even if both pass the service-level pre-read.
const Schema = `
CREATE TABLE IF NOT EXISTS identities (
	id UUID PRIMARY KEY,
	email TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	contact_number TEXT,
	org_name TEXT,
	participant_type TEXT,
	org_category TEXT,
	display_name TEXT,
	description TEXT,
	contact_email TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS identities_email_lower_idx
	ON identities (lower(email));

CREATE TABLE IF NOT EXISTS events (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL,
	eligibility TEXT NOT NULL,
	registration_deadline TIMESTAMPTZ NOT NULL,
	start_date TIMESTAMPTZ NOT NULL,
	end_date TIMESTAMPTZ NOT NULL,
	registration_limit INT NOT NULL,
	registration_fee BIGINT NOT NULL DEFAULT 0,
	tags TEXT[] NOT NULL DEFAULT '{}',
	owner_id UUID NOT NULL REFERENCES identities(id),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS events_name_lower_idx
	ON events (lower(name));

CREATE TABLE IF NOT EXISTS registrations (
	id UUID PRIMARY KEY,
	event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	participant_id UUID NOT NULL REFERENCES identities(id),
	status TEXT NOT NULL,
	form_responses JSONB,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS registrations_active_unique_idx
	ON registrations (event_id, participant_id)
	WHERE status <> 'cancelled';

CREATE INDEX IF NOT EXISTS registrations_event_idx
	ON registrations (event_id);

CREATE TABLE IF NOT EXISTS audit_events (
	id UUID PRIMARY KEY,
	category TEXT NOT NULL,
	action TEXT NOT NULL,
	identity_id UUID,
	email TEXT NOT NULL DEFAULT '',
	reason TEXT NOT NULL DEFAULT '',
	request_id TEXT NOT NULL DEFAULT '',
	client_ip TEXT NOT NULL DEFAULT '',
	device TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema applies the DDL. Safe to call on every startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
