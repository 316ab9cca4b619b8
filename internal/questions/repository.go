package questions

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openclass/backend/internal/models"
)

// Repository is the PostgreSQL-backed question store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a questions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new question.
func (r *Repository) Create(ctx context.Context, q *models.Question) error {
	const query = `INSERT INTO questions (workshop_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	return r.pool.QueryRow(ctx, query, q.WorkshopID, q.AuthorID, q.Body, q.CreatedAt).Scan(&q.ID)
}

// ListByWorkshop returns a workshop's questions, oldest first.
func (r *Repository) ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]models.Question, error) {
	const query = `SELECT id, workshop_id, author_id, body, created_at
		FROM questions WHERE workshop_id = $1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, workshopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Question
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.WorkshopID, &q.AuthorID, &q.Body, &q.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, q)
	}
	return list, rows.Err()
}

// CountByWorkshop returns the number of questions for a workshop.
func (r *Repository) CountByWorkshop(ctx context.Context, workshopID uuid.UUID) (int, error) {
	const query = `SELECT COUNT(*) FROM questions WHERE workshop_id = $1`
	var n int
	err := r.pool.QueryRow(ctx, query, workshopID).Scan(&n)
	return n, err
}
