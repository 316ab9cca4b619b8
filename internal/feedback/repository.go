package feedback

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

// Repository is the PostgreSQL-backed feedback store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a feedback repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateMCQuestion inserts a catalog question.
func (r *Repository) CreateMCQuestion(ctx context.Context, q *models.MCQuestion) error {
	const sql = `INSERT INTO mc_questions (question) VALUES ($1) RETURNING id`
	return r.pool.QueryRow(ctx, sql, q.Question).Scan(&q.ID)
}

// AddChoice inserts a choice for a catalog question.
func (r *Repository) AddChoice(ctx context.Context, ch *models.Choice) error {
	const sql = `INSERT INTO choices (mc_question_id, label) VALUES ($1, $2) RETURNING id`
	return r.pool.QueryRow(ctx, sql, ch.MCQuestionID, ch.Label).Scan(&ch.ID)
}

// GetMCQuestion returns a catalog question with its choices.
func (r *Repository) GetMCQuestion(ctx context.Context, id uuid.UUID) (*models.MCQuestion, error) {
	const sql = `SELECT id, question FROM mc_questions WHERE id = $1`
	var q models.MCQuestion
	if err := r.pool.QueryRow(ctx, sql, id).Scan(&q.ID, &q.Question); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("mc question %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	choices, err := r.choicesFor(ctx, []uuid.UUID{q.ID})
	if err != nil {
		return nil, err
	}
	q.Choices = choices[q.ID]
	return &q, nil
}

// ListMCQuestions returns the whole catalog with choices.
func (r *Repository) ListMCQuestions(ctx context.Context) ([]models.MCQuestion, error) {
	const sql = `SELECT id, question FROM mc_questions ORDER BY question ASC`
	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.MCQuestion
	var ids []uuid.UUID
	for rows.Next() {
		var q models.MCQuestion
		if err := rows.Scan(&q.ID, &q.Question); err != nil {
			return nil, err
		}
		list = append(list, q)
		ids = append(ids, q.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	choices, err := r.choicesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Choices = choices[list[i].ID]
	}
	return list, nil
}

// SetForm replaces the set of form questions attached to a workshop.
func (r *Repository) SetForm(ctx context.Context, workshopID uuid.UUID, questionIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM workshop_mc_questions WHERE workshop_id = $1`, workshopID); err != nil {
		return err
	}
	for _, qid := range questionIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO workshop_mc_questions (workshop_id, mc_question_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			workshopID, qid)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ListForm returns the workshop's form questions with choices.
func (r *Repository) ListForm(ctx context.Context, workshopID uuid.UUID) ([]models.MCQuestion, error) {
	const sql = `SELECT q.id, q.question
		FROM mc_questions q
		JOIN workshop_mc_questions wq ON wq.mc_question_id = q.id
		WHERE wq.workshop_id = $1
		ORDER BY q.question ASC`
	rows, err := r.pool.Query(ctx, sql, workshopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.MCQuestion
	var ids []uuid.UUID
	for rows.Next() {
		var q models.MCQuestion
		if err := rows.Scan(&q.ID, &q.Question); err != nil {
			return nil, err
		}
		list = append(list, q)
		ids = append(ids, q.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	choices, err := r.choicesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Choices = choices[list[i].ID]
	}
	return list, nil
}

// FormChoiceIDs returns the choice IDs belonging to the workshop's form.
func (r *Repository) FormChoiceIDs(ctx context.Context, workshopID uuid.UUID) (map[uuid.UUID]bool, error) {
	const sql = `SELECT c.id
		FROM choices c
		JOIN workshop_mc_questions wq ON wq.mc_question_id = c.mc_question_id
		WHERE wq.workshop_id = $1`
	rows, err := r.pool.Query(ctx, sql, workshopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	valid := make(map[uuid.UUID]bool)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		valid[id] = true
	}
	return valid, rows.Err()
}

// CreateFeedback inserts a submission and its choice selections in one
// transaction. The (workshop_id, author_id) unique constraint is not
// pre-checked; a violation becomes domain.ErrConflict.
func (r *Repository) CreateFeedback(ctx context.Context, fb *models.Feedback) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const sql = `INSERT INTO feedback (workshop_id, author_id, comment, submitted_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err = tx.QueryRow(ctx, sql, fb.WorkshopID, fb.AuthorID, fb.Comment, fb.SubmittedAt).Scan(&fb.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("feedback already submitted for workshop: %w", domain.ErrConflict)
		}
		return err
	}
	for _, choiceID := range fb.ChoiceIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO feedback_choices (feedback_id, choice_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			fb.ID, choiceID)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ListByWorkshop returns a workshop's submissions with their selections,
// newest first.
func (r *Repository) ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]models.Feedback, error) {
	const sql = `SELECT id, workshop_id, author_id, comment, submitted_at
		FROM feedback WHERE workshop_id = $1 ORDER BY submitted_at DESC`
	rows, err := r.pool.Query(ctx, sql, workshopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Feedback
	for rows.Next() {
		var fb models.Feedback
		if err := rows.Scan(&fb.ID, &fb.WorkshopID, &fb.AuthorID, &fb.Comment, &fb.SubmittedAt); err != nil {
			return nil, err
		}
		list = append(list, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range list {
		choiceIDs, err := r.feedbackChoices(ctx, list[i].ID)
		if err != nil {
			return nil, err
		}
		list[i].ChoiceIDs = choiceIDs
	}
	return list, nil
}

func (r *Repository) feedbackChoices(ctx context.Context, feedbackID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT choice_id FROM feedback_choices WHERE feedback_id = $1`, feedbackID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) choicesFor(ctx context.Context, questionIDs []uuid.UUID) (map[uuid.UUID][]models.Choice, error) {
	out := make(map[uuid.UUID][]models.Choice)
	if len(questionIDs) == 0 {
		return out, nil
	}
	const sql = `SELECT id, mc_question_id, label FROM choices WHERE mc_question_id = ANY($1) ORDER BY label ASC`
	rows, err := r.pool.Query(ctx, sql, questionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ch models.Choice
		if err := rows.Scan(&ch.ID, &ch.MCQuestionID, &ch.Label); err != nil {
			return nil, err
		}
		out[ch.MCQuestionID] = append(out[ch.MCQuestionID], ch)
	}
	return out, rows.Err()
}
