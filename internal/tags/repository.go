// Package tags manages the shared label catalog used for workshop topics
// and profile interests.
package tags

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

// Repository is the PostgreSQL-backed tag store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a tag repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a tag, translating the unique name constraint into
// domain.ErrConflict.
func (r *Repository) Create(ctx context.Context, t *models.Tag) error {
	const q = `INSERT INTO tags (name) VALUES ($1) RETURNING id`
	err := r.pool.QueryRow(ctx, q, t.Name).Scan(&t.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("tag %q: %w", t.Name, domain.ErrConflict)
		}
		return err
	}
	return nil
}

// GetByID returns a tag by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	const q = `SELECT id, name FROM tags WHERE id = $1`
	var t models.Tag
	if err := r.pool.QueryRow(ctx, q, id).Scan(&t.ID, &t.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("tag %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &t, nil
}

// List returns all tags, alphabetically.
func (r *Repository) List(ctx context.Context) ([]models.Tag, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM tags ORDER BY name ASC`)
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

// Delete removes a tag; topic and interest links cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tag %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
