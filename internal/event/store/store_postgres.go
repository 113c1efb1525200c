package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"felicity/internal/event/models"
	id "felicity/pkg/domain"
	"felicity/pkg/platform/sentinel"
)

// Postgres persists events in PostgreSQL.
//
// Register runs in a transaction that locks the event row with FOR UPDATE
// before counting active registrations, serializing concurrent registrants
// on the same event. A single INSERT..SELECT with a count predicate is not
// enough under READ COMMITTED: two concurrent statements would both count
// against snapshots taken before either commits. The partial unique index on
// (event_id, participant_id) closes the remaining duplicate race.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) CreateIfNameAvailable(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events
			(id, name, description, eligibility, registration_deadline,
			 start_date, end_date, registration_limit, registration_fee,
			 tags, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.pool.Exec(ctx, query,
		event.ID.String(), event.Name, event.Description, event.Eligibility,
		event.RegistrationDeadline, event.StartDate, event.EndDate,
		event.RegistrationLimit, event.RegistrationFee,
		event.Tags, event.OwnerID.String(),
		event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, eventID id.EventID) (*models.Event, error) {
	query := `
		SELECT id, name, description, eligibility, registration_deadline,
		       start_date, end_date, registration_limit, registration_fee,
		       tags, owner_id, created_at, updated_at
		FROM events WHERE id = $1
	`
	event, err := scanEvent(s.pool.QueryRow(ctx, query, eventID.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}

	registrations, err := s.loadRegistrations(ctx, eventID)
	if err != nil {
		return nil, err
	}
	event.Registrations = registrations
	return event, nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.Event, error) {
	query := `
		SELECT id, name, description, eligibility, registration_deadline,
		       start_date, end_date, registration_limit, registration_fee,
		       tags, owner_id, created_at, updated_at
		FROM events ORDER BY created_at
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	byID := make(map[id.EventID]*models.Event)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
		byID[event.ID] = event
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	regRows, err := s.pool.Query(ctx, `
		SELECT id, event_id, participant_id, status, form_responses, created_at
		FROM registrations ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer regRows.Close()

	for regRows.Next() {
		registration, err := scanRegistration(regRows)
		if err != nil {
			return nil, err
		}
		if event, ok := byID[registration.EventID]; ok {
			event.Registrations = append(event.Registrations, *registration)
		}
	}
	if err := regRows.Err(); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return events, nil
}

func (s *Postgres) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events SET
			name = $2, description = $3, eligibility = $4,
			registration_deadline = $5, start_date = $6, end_date = $7,
			registration_limit = $8, registration_fee = $9, tags = $10,
			updated_at = $11
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query,
		event.ID.String(), event.Name, event.Description, event.Eligibility,
		event.RegistrationDeadline, event.StartDate, event.EndDate,
		event.RegistrationLimit, event.RegistrationFee, event.Tags,
		event.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, eventID id.EventID) error {
	// Registrations go with the event via ON DELETE CASCADE.
	tag, err := s.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, eventID.String())
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Register(ctx context.Context, registration *models.Registration) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin registration: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var limit int
	err = tx.QueryRow(ctx,
		`SELECT registration_limit FROM events WHERE id = $1 FOR UPDATE`,
		registration.EventID.String(),
	).Scan(&limit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("lock event: %w", err)
	}

	var active int
	err = tx.QueryRow(ctx,
		`SELECT count(*) FROM registrations WHERE event_id = $1 AND status <> 'cancelled'`,
		registration.EventID.String(),
	).Scan(&active)
	if err != nil {
		return fmt.Errorf("count registrations: %w", err)
	}
	if active >= limit {
		return sentinel.ErrCapacityExhausted
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO registrations (id, event_id, participant_id, status, form_responses, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		registration.ID.String(), registration.EventID.String(),
		registration.ParticipantID.String(), string(registration.Status),
		registration.FormResponses, registration.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert registration: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit registration: %w", err)
	}
	return nil
}

func (s *Postgres) CancelRegistration(ctx context.Context, eventID id.EventID, participantID id.IdentityID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE registrations SET status = 'cancelled'
		WHERE event_id = $1 AND participant_id = $2 AND status <> 'cancelled'
	`, eventID.String(), participantID.String())
	if err != nil {
		return fmt.Errorf("cancel registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) loadRegistrations(ctx context.Context, eventID id.EventID) ([]models.Registration, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, event_id, participant_id, status, form_responses, created_at
		FROM registrations WHERE event_id = $1 ORDER BY created_at
	`, eventID.String())
	if err != nil {
		return nil, fmt.Errorf("load registrations: %w", err)
	}
	defer rows.Close()

	var out []models.Registration
	for rows.Next() {
		registration, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *registration)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load registrations: %w", err)
	}
	return out, nil
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var (
		event          models.Event
		rawID, ownerID string
	)
	err := row.Scan(
		&rawID, &event.Name, &event.Description, &event.Eligibility,
		&event.RegistrationDeadline, &event.StartDate, &event.EndDate,
		&event.RegistrationLimit, &event.RegistrationFee,
		&event.Tags, &ownerID, &event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}

	eventID, err := id.ParseEventID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan event id: %w", err)
	}
	owner, err := id.ParseIdentityID(ownerID)
	if err != nil {
		return nil, fmt.Errorf("scan event owner: %w", err)
	}
	event.ID = eventID
	event.OwnerID = owner
	return &event, nil
}

func scanRegistration(row pgx.Row) (*models.Registration, error) {
	var (
		registration                models.Registration
		rawID, eventID, participant string
		status                      string
	)
	err := row.Scan(&rawID, &eventID, &participant, &status,
		&registration.FormResponses, &registration.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan registration: %w", err)
	}

	registrationID, err := id.ParseRegistrationID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan registration id: %w", err)
	}
	parsedEventID, err := id.ParseEventID(eventID)
	if err != nil {
		return nil, fmt.Errorf("scan registration event id: %w", err)
	}
	participantID, err := id.ParseIdentityID(participant)
	if err != nil {
		return nil, fmt.Errorf("scan registration participant id: %w", err)
	}
	registration.ID = registrationID
	registration.EventID = parsedEventID
	registration.ParticipantID = participantID
	registration.Status = models.RegistrationStatus(status)
	return &registration, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
