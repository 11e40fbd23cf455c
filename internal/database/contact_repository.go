// internal/database/contact_repository.go
package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/mwiater/pythia/internal/errdefs"
)

const contactQueueSchema = `
	CREATE TABLE IF NOT EXISTS contact_queue (
		id UUID PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL,
		date_of_birth TEXT NOT NULL DEFAULT '',
		contact_type TEXT NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL DEFAULT '',
		final_prompt TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'waiting',
		grade INT,
		payload JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// Connect opens a connection pool against the queue database and verifies it
// answers before handing it back.
func Connect(ctx context.Context, url string, log *logrus.Logger) (*pgxpool.Pool, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errdefs.Configuration("database url is not configured")
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, errdefs.Persistence("connect to database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errdefs.Persistence("ping database: %w", err)
	}

	if log != nil {
		log.WithField("component", "database").Info("Connected to contact queue database")
	}
	return pool, nil
}

// ContactRepository handles contact queue database operations.
type ContactRepository struct {
	pool *pgxpool.Pool
	log  *logrus.Logger
}

// NewContactRepository creates a repository over an open pool.
func NewContactRepository(pool *pgxpool.Pool, log *logrus.Logger) *ContactRepository {
	if log == nil {
		log = logrus.New()
	}
	return &ContactRepository{pool: pool, log: log}
}

// EnsureSchema creates the contact_queue table when it does not exist yet.
func (r *ContactRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, contactQueueSchema); err != nil {
		return errdefs.Persistence("ensure contact_queue schema: %w", err)
	}
	return nil
}

// Create inserts a submission into the queue. A missing ID gets a fresh UUID
// and the row starts in the waiting status unless one is set.
func (r *ContactRepository) Create(ctx context.Context, contact *Contact) error {
	if contact == nil {
		return errdefs.Persistence("create contact: nil contact")
	}
	if !ValidContactType(contact.ContactType) {
		return errdefs.Validation("unknown contact type %q", contact.ContactType)
	}
	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	if contact.Status == "" {
		contact.Status = StatusWaiting
	}

	query := `
		INSERT INTO contact_queue (id, first_name, last_name, email, date_of_birth, contact_type, question, answer, final_prompt, status, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		contact.ID, contact.FirstName, contact.LastName, contact.Email, contact.DateOfBirth,
		contact.ContactType, contact.Question, contact.Answer, contact.FinalPrompt,
		contact.Status, contact.Payload,
	).Scan(&contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		return errdefs.Persistence("create contact: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"contact_id":   contact.ID,
		"contact_type": contact.ContactType,
	}).Debug("Contact queued")
	return nil
}

// GetByID retrieves a contact by its ID.
func (r *ContactRepository) GetByID(ctx context.Context, id string) (*Contact, error) {
	query := `
		SELECT id, first_name, last_name, email, date_of_birth, contact_type, question, answer, final_prompt, status, grade, payload, created_at, updated_at
		FROM contact_queue
		WHERE id = $1
	`
	contact := &Contact{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&contact.ID, &contact.FirstName, &contact.LastName, &contact.Email, &contact.DateOfBirth,
		&contact.ContactType, &contact.Question, &contact.Answer, &contact.FinalPrompt,
		&contact.Status, &contact.Grade, &contact.Payload,
		&contact.CreatedAt, &contact.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errdefs.Persistence("contact not found: %s", id)
	}
	if err != nil {
		return nil, errdefs.Persistence("get contact: %w", err)
	}
	return contact, nil
}

// ListByStatus returns the queue slice in arrival order.
func (r *ContactRepository) ListByStatus(ctx context.Context, status string) ([]*Contact, error) {
	query := `
		SELECT id, first_name, last_name, email, date_of_birth, contact_type, question, answer, final_prompt, status, grade, payload, created_at, updated_at
		FROM contact_queue
		WHERE status = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		return nil, errdefs.Persistence("list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []*Contact{}
	for rows.Next() {
		contact := &Contact{}
		err := rows.Scan(
			&contact.ID, &contact.FirstName, &contact.LastName, &contact.Email, &contact.DateOfBirth,
			&contact.ContactType, &contact.Question, &contact.Answer, &contact.FinalPrompt,
			&contact.Status, &contact.Grade, &contact.Payload,
			&contact.CreatedAt, &contact.UpdatedAt,
		)
		if err != nil {
			return nil, errdefs.Persistence("scan contact row: %w", err)
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, errdefs.Persistence("list contacts: %w", err)
	}
	return contacts, nil
}

// SaveAnswer records the generated answer for a contact, together with the
// prompt that produced it.
func (r *ContactRepository) SaveAnswer(ctx context.Context, id, answer, finalPrompt string) error {
	query := `
		UPDATE contact_queue
		SET answer = $2, final_prompt = $3, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, id, answer, finalPrompt)
	if err != nil {
		return errdefs.Persistence("save answer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return errdefs.Persistence("contact not found: %s", id)
	}
	return nil
}

// CloseContact marks a contact closed with its helpdesk evaluation.
func (r *ContactRepository) CloseContact(ctx context.Context, id string, grade int) error {
	if !ValidGrade(grade) {
		return errdefs.Validation("grade must be between 1 and 5, got %d", grade)
	}

	query := `
		UPDATE contact_queue
		SET status = $2, grade = $3, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, id, StatusClosed, grade)
	if err != nil {
		return errdefs.Persistence("close contact: %w", err)
	}
	if result.RowsAffected() == 0 {
		return errdefs.Persistence("contact not found: %s", id)
	}

	r.log.WithFields(logrus.Fields{
		"contact_id": id,
		"grade":      grade,
	}).Info("Contact closed")
	return nil
}
