package registrations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openclass/backend/internal/domain"
	"github.com/openclass/backend/internal/models"
)

const regColumns = `id, workshop_id, profile_id, status, registered_at, canceled_at, present`

// Repository is the PostgreSQL-backed registration store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registration repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a registration. The unique (workshop_id, profile_id)
// constraint is not pre-checked; a violation becomes domain.ErrConflict.
func (r *Repository) Create(ctx context.Context, reg *models.Registration) error {
	const q = `INSERT INTO registrations (workshop_id, profile_id, status, registered_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err := r.pool.QueryRow(ctx, q, reg.WorkshopID, reg.ProfileID, reg.Status, reg.RegisteredAt).
		Scan(&reg.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("profile already registered to workshop: %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}

// GetByID returns a registration by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	q := `SELECT ` + regColumns + ` FROM registrations WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, q, id))
}

// GetByWorkshopAndProfile returns the registration for the pair.
func (r *Repository) GetByWorkshopAndProfile(ctx context.Context, workshopID, profileID uuid.UUID) (*models.Registration, error) {
	q := `SELECT ` + regColumns + ` FROM registrations WHERE workshop_id = $1 AND profile_id = $2`
	return r.scanOne(r.pool.QueryRow(ctx, q, workshopID, profileID))
}

// Update persists status, cancel date and presence.
func (r *Repository) Update(ctx context.Context, reg *models.Registration) error {
	const q = `UPDATE registrations SET status = $1, canceled_at = $2, present = $3 WHERE id = $4`
	tag, err := r.pool.Exec(ctx, q, reg.Status, reg.CanceledAt, reg.Present, reg.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("registration %s: %w", reg.ID, domain.ErrNotFound)
	}
	return nil
}

// ListByWorkshop returns all registrations for a workshop, oldest first.
func (r *Repository) ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]models.Registration, error) {
	q := `SELECT ` + regColumns + ` FROM registrations WHERE workshop_id = $1 ORDER BY registered_at ASC`
	return r.list(ctx, q, workshopID)
}

// ListByProfile returns all registrations held by a profile, newest first.
func (r *Repository) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]models.Registration, error) {
	q := `SELECT ` + regColumns + ` FROM registrations WHERE profile_id = $1 ORDER BY registered_at DESC`
	return r.list(ctx, q, profileID)
}

// CountAccepted returns the number of accepted registrations for a workshop.
func (r *Repository) CountAccepted(ctx context.Context, workshopID uuid.UUID) (int, error) {
	const q = `SELECT COUNT(*) FROM registrations WHERE workshop_id = $1 AND status = 'accepted'`
	var n int
	err := r.pool.QueryRow(ctx, q, workshopID).Scan(&n)
	return n, err
}

func (r *Repository) list(ctx context.Context, q string, arg interface{}) ([]models.Registration, error) {
	rows, err := r.pool.Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Registration
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(&reg.ID, &reg.WorkshopID, &reg.ProfileID, &reg.Status,
			&reg.RegisteredAt, &reg.CanceledAt, &reg.Present); err != nil {
			return nil, err
		}
		list = append(list, reg)
	}
	return list, rows.Err()
}

func (r *Repository) scanOne(row pgx.Row) (*models.Registration, error) {
	var reg models.Registration
	err := row.Scan(&reg.ID, &reg.WorkshopID, &reg.ProfileID, &reg.Status,
		&reg.RegisteredAt, &reg.CanceledAt, &reg.Present)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("registration: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return &reg, nil
}
