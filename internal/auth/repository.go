package auth

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

const userColumns = `id, email, password_hash, first_name, last_name, role, created_at, updated_at`

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, q, id))
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanOne(r.pool.QueryRow(ctx, q, email))
}

// GetProfileID returns the ID of the profile owned by a user.
func (r *Repository) GetProfileID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT id FROM profiles WHERE user_id = $1`, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("profile for user %s: %w", userID, domain.ErrNotFound)
		}
		return uuid.Nil, err
	}
	return id, nil
}

// Create inserts a user together with an unverified profile and a default
// preference row in one transaction. A taken email is domain.ErrConflict.
func (r *Repository) Create(ctx context.Context, email, passwordHash, firstName, lastName, verificationToken string) (*models.User, *models.Profile, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	const userQ = `INSERT INTO users (email, password_hash, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns
	var u models.User
	err = tx.QueryRow(ctx, userQ, email, passwordHash, firstName, lastName).
		Scan(&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
		}
		return nil, nil, err
	}

	const profileQ = `INSERT INTO profiles (user_id, verification_token)
		VALUES ($1, $2)
		RETURNING id, user_id, gender, score, phone_number, birthday, verification_token, verified, photo_key, enrolled_at`
	var p models.Profile
	err = tx.QueryRow(ctx, profileQ, u.ID, verificationToken).
		Scan(&p.ID, &p.UserID, &p.Gender, &p.Score, &p.PhoneNumber, &p.Birthday,
			&p.VerificationToken, &p.Verified, &p.PhotoKey, &p.EnrolledAt)
	if err != nil {
		return nil, nil, err
	}

	if _, err := tx.Exec(ctx, `INSERT INTO preferences (profile_id) VALUES ($1)`, p.ID); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return &u, &p, nil
}

// SetRole changes a user's role.
func (r *Repository) SetRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	const q = `UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`
	tag, err := r.pool.Exec(ctx, q, role, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return nil
}

// List returns all users for administration.
func (r *Repository) List(ctx context.Context) ([]models.UserPublic, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, email, first_name, last_name, role, created_at FROM users ORDER BY last_name, first_name, email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.UserPublic
	for rows.Next() {
		var u models.UserPublic
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

func (r *Repository) scanOne(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return &u, nil
}
