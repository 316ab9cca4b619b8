package workshops

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

const workshopColumns = `id, animator_id, title, description, required_materials, objectives, requirements,
	seats, submitted_at, decided_at, starts_at, duration_seconds, policy, location, cover_key, status,
	created_at, updated_at`

// Repository is the PostgreSQL-backed workshop store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a workshop repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new workshop.
func (r *Repository) Create(ctx context.Context, w *models.Workshop) error {
	const q = `INSERT INTO workshops (animator_id, title, description, required_materials, objectives,
			requirements, seats, submitted_at, starts_at, duration_seconds, policy, location, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, w.AnimatorID, w.Title, w.Description, w.RequiredMaterials,
		w.Objectives, w.Requirements, w.Seats, w.SubmittedAt, w.StartsAt,
		int64(w.Duration/time.Second), w.Policy, w.Location, w.Status).
		Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
}

// GetByID returns a workshop by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Workshop, error) {
	q := `SELECT ` + workshopColumns + ` FROM workshops WHERE id = $1`
	w, err := scanWorkshop(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("workshop %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return w, nil
}

// Update persists all mutable workshop fields.
func (r *Repository) Update(ctx context.Context, w *models.Workshop) error {
	const q = `UPDATE workshops SET title = $1, description = $2, required_materials = $3, objectives = $4,
			requirements = $5, seats = $6, decided_at = $7, starts_at = $8, duration_seconds = $9,
			policy = $10, location = $11, cover_key = $12, status = $13, updated_at = NOW()
		WHERE id = $14`
	tag, err := r.pool.Exec(ctx, q, w.Title, w.Description, w.RequiredMaterials, w.Objectives,
		w.Requirements, w.Seats, w.DecidedAt, w.StartsAt, int64(w.Duration/time.Second),
		w.Policy, w.Location, w.CoverKey, w.Status, w.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workshop %s: %w", w.ID, domain.ErrNotFound)
	}
	return nil
}

// List returns workshops matching the filter, soonest first.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.Workshop, error) {
	q := `SELECT ` + workshopColumns + ` FROM workshops w`
	var (
		cond string
		args []interface{}
	)
	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		if cond == "" {
			cond = " WHERE "
		} else {
			cond += " AND "
		}
		cond += fmt.Sprintf(clause, len(args))
	}
	if f.Status != "" {
		add("w.status = $%d", f.Status)
	}
	if f.AnimatorID != nil {
		add("w.animator_id = $%d", *f.AnimatorID)
	}
	if f.After != nil {
		add("w.starts_at > $%d", *f.After)
	}
	if f.TagID != nil {
		add("EXISTS (SELECT 1 FROM workshop_topics t WHERE t.workshop_id = w.id AND t.tag_id = $%d)", *f.TagID)
	}
	rows, err := r.pool.Query(ctx, q+cond+" ORDER BY starts_at ASC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Workshop
	for rows.Next() {
		w, err := scanWorkshop(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *w)
	}
	return list, rows.Err()
}

// HasRegistration reports whether a registration row exists for the pair.
func (r *Repository) HasRegistration(ctx context.Context, workshopID, profileID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM registrations WHERE workshop_id = $1 AND profile_id = $2)`
	var exists bool
	err := r.pool.QueryRow(ctx, q, workshopID, profileID).Scan(&exists)
	return exists, err
}

// SetTopics replaces the workshop's tag set in one transaction.
func (r *Repository) SetTopics(ctx context.Context, workshopID uuid.UUID, tagIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM workshop_topics WHERE workshop_id = $1`, workshopID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO workshop_topics (workshop_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			workshopID, tagID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ListTopics returns the workshop's tags.
func (r *Repository) ListTopics(ctx context.Context, workshopID uuid.UUID) ([]models.Tag, error) {
	const q = `SELECT t.id, t.name FROM tags t
		JOIN workshop_topics wt ON wt.tag_id = t.id
		WHERE wt.workshop_id = $1 ORDER BY t.name`
	rows, err := r.pool.Query(ctx, q, workshopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// ListRecipients returns accepted registrants' emails for notifications.
func (r *Repository) ListRecipients(ctx context.Context, workshopID uuid.UUID, presentOnly bool) ([]Recipient, error) {
	q := `SELECT p.id, u.email FROM registrations reg
		JOIN profiles p ON p.id = reg.profile_id
		JOIN users u ON u.id = p.user_id
		WHERE reg.workshop_id = $1 AND reg.status = 'accepted'`
	if presentOnly {
		q += ` AND reg.present`
	}
	rows, err := r.pool.Query(ctx, q, workshopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Recipient
	for rows.Next() {
		var rec Recipient
		if err := rows.Scan(&rec.ProfileID, &rec.Email); err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWorkshop(row rowScanner) (*models.Workshop, error) {
	var (
		w       models.Workshop
		seconds int64
	)
	err := row.Scan(&w.ID, &w.AnimatorID, &w.Title, &w.Description, &w.RequiredMaterials,
		&w.Objectives, &w.Requirements, &w.Seats, &w.SubmittedAt, &w.DecidedAt, &w.StartsAt,
		&seconds, &w.Policy, &w.Location, &w.CoverKey, &w.Status, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	w.Duration = time.Duration(seconds) * time.Second
	return &w, nil
}
