package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"felicity/internal/identity/models"
	id "felicity/pkg/domain"
	"felicity/pkg/platform/sentinel"
)

// Postgres persists identities in PostgreSQL. The variant payload is stored
// flat: each variant's columns are nullable and only the columns for the
// identity's role are populated.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const identityColumns = `
	id, email, password_hash, role, first_name, last_name,
	contact_number, org_name, participant_type,
	org_category, display_name, description, contact_email,
	created_at, updated_at
`

func (s *Postgres) CreateIfEmailAvailable(ctx context.Context, identity *models.Identity) error {
	var (
		contactNumber, orgName, participantType   *string
		category, displayName, desc, contactEmail *string
	)
	if p := identity.Participant; p != nil {
		contactNumber = &p.ContactNumber
		orgName = &p.OrgName
		participantType = (*string)(&p.Type)
	}
	if o := identity.Organizer; o != nil {
		category = (*string)(&o.Category)
		displayName = &o.DisplayName
		desc = &o.Description
		contactEmail = &o.ContactEmail
	}

	query := `
		INSERT INTO identities (` + identityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.pool.Exec(ctx, query,
		identity.ID.String(), identity.Email, identity.PasswordHash, string(identity.Role),
		identity.FirstName, identity.LastName,
		contactNumber, orgName, participantType,
		category, displayName, desc, contactEmail,
		identity.CreatedAt, identity.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create identity: %w", err)
	}
	return nil
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE lower(email) = lower($1)`
	return s.scanOne(s.pool.QueryRow(ctx, query, email))
}

func (s *Postgres) FindByID(ctx context.Context, identityID id.IdentityID) (*models.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE id = $1`
	return s.scanOne(s.pool.QueryRow(ctx, query, identityID.String()))
}

func (s *Postgres) List(ctx context.Context) ([]*models.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities ORDER BY created_at`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var out []*models.Identity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	return out, nil
}

func (s *Postgres) scanOne(row pgx.Row) (*models.Identity, error) {
	identity, err := scanIdentity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return identity, nil
}

func scanIdentity(row pgx.Row) (*models.Identity, error) {
	var (
		identity models.Identity
		rawID    string
		role     string

		contactNumber, orgName, participantType   *string
		category, displayName, desc, contactEmail *string
	)
	err := row.Scan(
		&rawID, &identity.Email, &identity.PasswordHash, &role,
		&identity.FirstName, &identity.LastName,
		&contactNumber, &orgName, &participantType,
		&category, &displayName, &desc, &contactEmail,
		&identity.CreatedAt, &identity.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan identity: %w", err)
	}
	identityID, err := id.ParseIdentityID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan identity id: %w", err)
	}
	identity.ID = identityID
	identity.Role = id.Role(role)

	switch identity.Role {
	case id.RoleParticipant:
		identity.Participant = &models.ParticipantProfile{
			ContactNumber: deref(contactNumber),
			OrgName:       deref(orgName),
			Type:          models.ParticipantType(deref(participantType)),
		}
	case id.RoleOrganizer:
		identity.Organizer = &models.OrganizerProfile{
			Category:     models.OrganizerCategory(deref(category)),
			DisplayName:  deref(displayName),
			Description:  deref(desc),
			ContactEmail: deref(contactEmail),
		}
	}
	return &identity, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
