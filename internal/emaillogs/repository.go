// Package emaillogs records every notification delivery attempt so
// moderators can audit what the platform sent and why a message failed.
package emaillogs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openclass/backend/internal/domain"
	"github.com/openclass/backend/internal/models"
)

const logColumns = `id, workshop_id, profile_id, email_type, recipient_email, subject, status, sent_at, error_message, created_at`

// Repository is the PostgreSQL-backed email log store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email log repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a pending log entry.
func (r *Repository) Create(ctx context.Context, l *models.EmailLog) error {
	const q = `INSERT INTO email_logs (workshop_id, profile_id, email_type, recipient_email, subject, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	if l.Status == "" {
		l.Status = models.EmailLogStatusPending
	}
	return r.pool.QueryRow(ctx, q, l.WorkshopID, l.ProfileID, l.EmailType,
		l.RecipientEmail, l.Subject, l.Status).Scan(&l.ID, &l.CreatedAt)
}

// MarkSent stamps a log entry as delivered.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	const q = `UPDATE email_logs SET status = $1, sent_at = $2, error_message = '' WHERE id = $3`
	tag, err := r.pool.Exec(ctx, q, models.EmailLogStatusSent, sentAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("email log %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// MarkFailed stamps a log entry as failed with the delivery error.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	const q = `UPDATE email_logs SET status = $1, error_message = $2 WHERE id = $3`
	tag, err := r.pool.Exec(ctx, q, models.EmailLogStatusFailed, reason, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("email log %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// GetByID returns a log entry.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.EmailLog, error) {
	q := `SELECT ` + logColumns + ` FROM email_logs WHERE id = $1`
	var l models.EmailLog
	err := r.pool.QueryRow(ctx, q, id).Scan(&l.ID, &l.WorkshopID, &l.ProfileID, &l.EmailType,
		&l.RecipientEmail, &l.Subject, &l.Status, &l.SentAt, &l.ErrorMessage, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("email log %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &l, nil
}

// ListByWorkshop returns a workshop's delivery log, newest first.
func (r *Repository) ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]models.EmailLog, error) {
	q := `SELECT ` + logColumns + ` FROM email_logs WHERE workshop_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, q, workshopID)
}

// ListFailed returns failed deliveries for operator inspection.
func (r *Repository) ListFailed(ctx context.Context) ([]models.EmailLog, error) {
	q := `SELECT ` + logColumns + ` FROM email_logs WHERE status = 'failed' ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *Repository) list(ctx context.Context, q string, arg interface{}) ([]models.EmailLog, error) {
	rows, err := r.pool.Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *Repository) scanAll(rows pgx.Rows) ([]models.EmailLog, error) {
	var list []models.EmailLog
	for rows.Next() {
		var l models.EmailLog
		err := rows.Scan(&l.ID, &l.WorkshopID, &l.ProfileID, &l.EmailType,
			&l.RecipientEmail, &l.Subject, &l.Status, &l.SentAt, &l.ErrorMessage, &l.CreatedAt)
		if err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}
