package badges

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openclass/backend/internal/domain"
	"github.com/openclass/backend/internal/models"
)

const badgeColumns = `id, name, description, image_key, kind, attendance_threshold`

// Repository is the PostgreSQL-backed badge store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a badge repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a badge.
func (r *Repository) Create(ctx context.Context, b *models.Badge) error {
	const q = `INSERT INTO badges (name, description, image_key, kind, attendance_threshold)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	return r.pool.QueryRow(ctx, q, b.Name, b.Description, b.ImageKey, b.Kind, b.AttendanceThreshold).
		Scan(&b.ID)
}

// GetByID returns a badge by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Badge, error) {
	q := `SELECT ` + badgeColumns + ` FROM badges WHERE id = $1`
	var b models.Badge
	err := r.pool.QueryRow(ctx, q, id).Scan(&b.ID, &b.Name, &b.Description,
		&b.ImageKey, &b.Kind, &b.AttendanceThreshold)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("badge %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &b, nil
}

// Update persists a badge's mutable fields.
func (r *Repository) Update(ctx context.Context, b *models.Badge) error {
	const q = `UPDATE badges
		SET name = $1, description = $2, image_key = $3, kind = $4, attendance_threshold = $5
		WHERE id = $6`
	tag, err := r.pool.Exec(ctx, q, b.Name, b.Description, b.ImageKey, b.Kind, b.AttendanceThreshold, b.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("badge %s: %w", b.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a badge; awards cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM badges WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("badge %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// List returns the whole catalog.
func (r *Repository) List(ctx context.Context) ([]models.Badge, error) {
	q := `SELECT ` + badgeColumns + ` FROM badges ORDER BY name ASC`
	return r.list(ctx, q)
}

// ListAttendance returns badges of the attendance kind.
func (r *Repository) ListAttendance(ctx context.Context) ([]models.Badge, error) {
	q := `SELECT ` + badgeColumns + ` FROM badges WHERE kind = 'attendance' ORDER BY attendance_threshold ASC`
	return r.list(ctx, q)
}

// Award inserts an award; an existing (badge, profile) pair is kept as is.
func (r *Repository) Award(ctx context.Context, pb *models.ProfileBadge) error {
	const q = `INSERT INTO profile_badges (badge_id, profile_id, priority, awarded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (badge_id, profile_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, q, pb.BadgeID, pb.ProfileID, pb.Priority, pb.AwardedAt)
	return err
}

// HasBadge reports whether the profile holds the badge.
func (r *Repository) HasBadge(ctx context.Context, badgeID, profileID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM profile_badges WHERE badge_id = $1 AND profile_id = $2)`
	var held bool
	err := r.pool.QueryRow(ctx, q, badgeID, profileID).Scan(&held)
	return held, err
}

// ListByProfile returns the profile's awards, highest priority first.
func (r *Repository) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]models.ProfileBadge, error) {
	const q = `SELECT badge_id, profile_id, priority, awarded_at
		FROM profile_badges
		WHERE profile_id = $1
		ORDER BY priority DESC, awarded_at ASC`
	rows, err := r.pool.Query(ctx, q, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.ProfileBadge
	for rows.Next() {
		var pb models.ProfileBadge
		if err := rows.Scan(&pb.BadgeID, &pb.ProfileID, &pb.Priority, &pb.AwardedAt); err != nil {
			return nil, err
		}
		list = append(list, pb)
	}
	return list, rows.Err()
}

// SetPriority reorders a held badge.
func (r *Repository) SetPriority(ctx context.Context, badgeID, profileID uuid.UUID, priority int) error {
	const q = `UPDATE profile_badges SET priority = $1 WHERE badge_id = $2 AND profile_id = $3`
	tag, err := r.pool.Exec(ctx, q, priority, badgeID, profileID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("award: %w", domain.ErrNotFound)
	}
	return nil
}

// CountAttendance counts workshops the profile attended.
func (r *Repository) CountAttendance(ctx context.Context, profileID uuid.UUID) (int, error) {
	const q = `SELECT COUNT(*) FROM registrations WHERE profile_id = $1 AND status = 'accepted' AND present`
	var n int
	err := r.pool.QueryRow(ctx, q, profileID).Scan(&n)
	return n, err
}

func (r *Repository) list(ctx context.Context, q string) ([]models.Badge, error) {
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Badge
	for rows.Next() {
		var b models.Badge
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.ImageKey, &b.Kind, &b.AttendanceThreshold); err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}
