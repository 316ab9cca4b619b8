package memstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/openclass/backend/internal/models"
)

// QuestionStore implements the questions store interface in memory.
type QuestionStore struct {
	db *DB
}

// Create appends a question.
func (s *QuestionStore) Create(ctx context.Context, q *models.Question) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	s.db.questions = append(s.db.questions, *q)
	return nil
}

// ListByWorkshop returns the workshop's questions in insertion order.
func (s *QuestionStore) ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]models.Question, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var list []models.Question
	for _, q := range s.db.questions {
		if q.WorkshopID == workshopID {
			list = append(list, q)
		}
	}
	return list, nil
}
