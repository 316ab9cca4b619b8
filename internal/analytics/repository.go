// Package analytics aggregates per-workshop engagement numbers for
// animators and moderators.
package analytics

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openclass/backend/internal/domain"
)

// WorkshopStats is the aggregate view of one workshop.
type WorkshopStats struct {
	WorkshopID            uuid.UUID `json:"workshop_id"`
	Seats                 int       `json:"seats"`
	RegistrationsTotal    int       `json:"registrations_total"`
	RegistrationsPending  int       `json:"registrations_pending"`
	RegistrationsAccepted int       `json:"registrations_accepted"`
	RegistrationsRefused  int       `json:"registrations_refused"`
	RegistrationsCanceled int       `json:"registrations_canceled"`
	Attendees             int       `json:"attendees"`
	Questions             int       `json:"questions"`
	Feedback              int       `json:"feedback"`
	SeatsLeft             int       `json:"seats_left"`
}

// Repository computes aggregates straight from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an analytics repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WorkshopStats returns the aggregate view of one workshop.
func (r *Repository) WorkshopStats(ctx context.Context, workshopID uuid.UUID) (*WorkshopStats, error) {
	const q = `SELECT
		w.seats,
		COUNT(r.id),
		COUNT(r.id) FILTER (WHERE r.status = 'pending'),
		COUNT(r.id) FILTER (WHERE r.status = 'accepted'),
		COUNT(r.id) FILTER (WHERE r.status = 'refused'),
		COUNT(r.id) FILTER (WHERE r.status = 'canceled'),
		COUNT(r.id) FILTER (WHERE r.status = 'accepted' AND r.present),
		(SELECT COUNT(*) FROM questions q WHERE q.workshop_id = w.id),
		(SELECT COUNT(*) FROM feedback f WHERE f.workshop_id = w.id)
	FROM workshops w
	LEFT JOIN registrations r ON r.workshop_id = w.id
	WHERE w.id = $1
	GROUP BY w.id`

	stats := WorkshopStats{WorkshopID: workshopID}
	err := r.pool.QueryRow(ctx, q, workshopID).Scan(
		&stats.Seats,
		&stats.RegistrationsTotal,
		&stats.RegistrationsPending,
		&stats.RegistrationsAccepted,
		&stats.RegistrationsRefused,
		&stats.RegistrationsCanceled,
		&stats.Attendees,
		&stats.Questions,
		&stats.Feedback,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("workshop %s: %w", workshopID, domain.ErrNotFound)
		}
		return nil, err
	}
	stats.SeatsLeft = stats.Seats - stats.RegistrationsAccepted
	if stats.SeatsLeft < 0 {
		stats.SeatsLeft = 0
	}
	return &stats, nil
}
