package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openclass/backend/internal/domain"
	"github.com/openclass/backend/internal/models"
)

const profileColumns = `id, user_id, gender, score, phone_number, birthday, verification_token, verified, photo_key, enrolled_at`

// Repository is the PostgreSQL-backed profile store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a profile repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns a profile by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, q, id))
}

// GetByUserID returns the profile owned by a user.
func (r *Repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, q, userID))
}

// GetByVerificationToken returns the profile holding a non-empty token.
func (r *Repository) GetByVerificationToken(ctx context.Context, token string) (*models.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM profiles WHERE verification_token = $1 AND verification_token <> ''`
	return r.scanOne(r.pool.QueryRow(ctx, q, token))
}

// Update persists the profile's mutable fields.
func (r *Repository) Update(ctx context.Context, p *models.Profile) error {
	const q = `UPDATE profiles
		SET gender = $1, phone_number = $2, birthday = $3,
		    verification_token = $4, verified = $5, photo_key = $6
		WHERE id = $7`
	tag, err := r.pool.Exec(ctx, q, p.Gender, p.PhoneNumber, p.Birthday,
		p.VerificationToken, p.Verified, p.PhotoKey, p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile %s: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

// GetUser returns the owning user record.
func (r *Repository) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	const q = `SELECT id, email, password_hash, first_name, last_name, role, created_at, updated_at
		FROM users WHERE id = $1`
	var u models.User
	err := r.pool.QueryRow(ctx, q, userID).Scan(&u.ID, &u.Email, &u.Password,
		&u.FirstName, &u.LastName, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
		}
		return nil, err
	}
	return &u, nil
}

// SetUserEmail updates the account email, translating the unique constraint
// into domain.ErrConflict.
func (r *Repository) SetUserEmail(ctx context.Context, userID uuid.UUID, email string) error {
	const q = `UPDATE users SET email = $1, updated_at = NOW() WHERE id = $2`
	tag, err := r.pool.Exec(ctx, q, email, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("email already in use: %w", domain.ErrConflict)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return nil
}

// SetUserNames updates the account's first and last name.
func (r *Repository) SetUserNames(ctx context.Context, userID uuid.UUID, firstName, lastName string) error {
	const q = `UPDATE users SET first_name = $1, last_name = $2, updated_at = NOW() WHERE id = $3`
	tag, err := r.pool.Exec(ctx, q, firstName, lastName, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return nil
}

// AddScore atomically adds delta to the profile score and returns the result.
func (r *Repository) AddScore(ctx context.Context, profileID uuid.UUID, delta int) (int, error) {
	const q = `UPDATE profiles SET score = GREATEST(score + $1, 0) WHERE id = $2 RETURNING score`
	var score int
	err := r.pool.QueryRow(ctx, q, delta, profileID).Scan(&score)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("profile %s: %w", profileID, domain.ErrNotFound)
		}
		return 0, err
	}
	return score, nil
}

// SetInterests replaces the profile's interest tags.
func (r *Repository) SetInterests(ctx context.Context, profileID uuid.UUID, tagIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM profile_interests WHERE profile_id = $1`, profileID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO profile_interests (profile_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			profileID, tagID)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ListInterests returns the profile's interest tags.
func (r *Repository) ListInterests(ctx context.Context, profileID uuid.UUID) ([]models.Tag, error) {
	const q = `SELECT t.id, t.name
		FROM tags t
		JOIN profile_interests pi ON pi.tag_id = t.id
		WHERE pi.profile_id = $1
		ORDER BY t.name ASC`
	rows, err := r.pool.Query(ctx, q, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// GetPreference returns the profile's settings row.
func (r *Repository) GetPreference(ctx context.Context, profileID uuid.UUID) (*models.Preference, error) {
	const q = `SELECT profile_id, confidentiality FROM preferences WHERE profile_id = $1`
	var pref models.Preference
	err := r.pool.QueryRow(ctx, q, profileID).Scan(&pref.ProfileID, &pref.Confidentiality)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("preference: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return &pref, nil
}

// SetPreference upserts the profile's settings row.
func (r *Repository) SetPreference(ctx context.Context, pref *models.Preference) error {
	const q = `INSERT INTO preferences (profile_id, confidentiality) VALUES ($1, $2)
		ON CONFLICT (profile_id) DO UPDATE SET confidentiality = EXCLUDED.confidentiality`
	_, err := r.pool.Exec(ctx, q, pref.ProfileID, pref.Confidentiality)
	return err
}

// WorkshopsAttended returns workshops where the profile was accepted and
// marked present.
func (r *Repository) WorkshopsAttended(ctx context.Context, profileID uuid.UUID) ([]models.Workshop, error) {
	const q = `SELECT w.id, w.animator_id, w.title, w.description, w.required_materials,
			w.objectives, w.requirements, w.seats, w.submitted_at, w.decided_at,
			w.starts_at, w.duration_seconds, w.policy, w.location, w.cover_key,
			w.status, w.created_at, w.updated_at
		FROM workshops w
		JOIN registrations r ON r.workshop_id = w.id
		WHERE r.profile_id = $1 AND r.status = 'accepted' AND r.present
		ORDER BY w.starts_at DESC`
	return r.listWorkshops(ctx, q, profileID)
}

// WorkshopsAnimated returns the done workshops the profile animated.
func (r *Repository) WorkshopsAnimated(ctx context.Context, profileID uuid.UUID) ([]models.Workshop, error) {
	const q = `SELECT id, animator_id, title, description, required_materials,
			objectives, requirements, seats, submitted_at, decided_at,
			starts_at, duration_seconds, policy, location, cover_key,
			status, created_at, updated_at
		FROM workshops
		WHERE animator_id = $1 AND status = 'done'
		ORDER BY starts_at DESC`
	return r.listWorkshops(ctx, q, profileID)
}

func (r *Repository) listWorkshops(ctx context.Context, q string, arg interface{}) ([]models.Workshop, error) {
	rows, err := r.pool.Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Workshop
	for rows.Next() {
		var w models.Workshop
		var durationSeconds int64
		err := rows.Scan(&w.ID, &w.AnimatorID, &w.Title, &w.Description, &w.RequiredMaterials,
			&w.Objectives, &w.Requirements, &w.Seats, &w.SubmittedAt, &w.DecidedAt,
			&w.StartsAt, &durationSeconds, &w.Policy, &w.Location, &w.CoverKey,
			&w.Status, &w.CreatedAt, &w.UpdatedAt)
		if err != nil {
			return nil, err
		}
		w.Duration = time.Duration(durationSeconds) * time.Second
		list = append(list, w)
	}
	return list, rows.Err()
}

func (r *Repository) scanOne(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.UserID, &p.Gender, &p.Score, &p.PhoneNumber,
		&p.Birthday, &p.VerificationToken, &p.Verified, &p.PhotoKey, &p.EnrolledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}
