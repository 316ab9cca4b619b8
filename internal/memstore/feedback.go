package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/openclass/backend/internal/domain"
	"github.com/openclass/backend/internal/models"
)

// FeedbackStore implements the feedback store interface in memory.
type FeedbackStore struct {
	db *DB
}

// CreateMCQuestion inserts a catalog question.
func (s *FeedbackStore) CreateMCQuestion(ctx context.Context, q *models.MCQuestion) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	copied := *q
	s.db.mcQuestions[q.ID] = &copied
	return nil
}

// AddChoice inserts a choice for a catalog question.
func (s *FeedbackStore) AddChoice(ctx context.Context, ch *models.Choice) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.mcQuestions[ch.MCQuestionID]; !ok {
		return fmt.Errorf("mc question %s: %w", ch.MCQuestionID, domain.ErrNotFound)
	}
	if ch.ID == uuid.Nil {
		ch.ID = uuid.New()
	}
	copied := *ch
	s.db.choices[ch.ID] = &copied
	return nil
}

// GetMCQuestion returns a catalog question with its choices.
func (s *FeedbackStore) GetMCQuestion(ctx context.Context, id uuid.UUID) (*models.MCQuestion, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	q, ok := s.db.mcQuestions[id]
	if !ok {
		return nil, fmt.Errorf("mc question %s: %w", id, domain.ErrNotFound)
	}
	copied := *q
	copied.Choices = s.choicesLocked(id)
	return &copied, nil
}

// ListMCQuestions returns the catalog with choices.
func (s *FeedbackStore) ListMCQuestions(ctx context.Context) ([]models.MCQuestion, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var list []models.MCQuestion
	for id, q := range s.db.mcQuestions {
		copied := *q
		copied.Choices = s.choicesLocked(id)
		list = append(list, copied)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Question < list[j].Question })
	return list, nil
}

// SetForm replaces the workshop's form questions.
func (s *FeedbackStore) SetForm(ctx context.Context, workshopID uuid.UUID, questionIDs []uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.forms[workshopID] = append([]uuid.UUID(nil), questionIDs...)
	return nil
}

// ListForm returns the workshop's form questions with choices.
func (s *FeedbackStore) ListForm(ctx context.Context, workshopID uuid.UUID) ([]models.MCQuestion, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var list []models.MCQuestion
	for _, id := range s.db.forms[workshopID] {
		if q, ok := s.db.mcQuestions[id]; ok {
			copied := *q
			copied.Choices = s.choicesLocked(id)
			list = append(list, copied)
		}
	}
	return list, nil
}

// FormChoiceIDs returns the choice IDs of the workshop's form questions.
func (s *FeedbackStore) FormChoiceIDs(ctx context.Context, workshopID uuid.UUID) (map[uuid.UUID]bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	valid := make(map[uuid.UUID]bool)
	for _, qid := range s.db.forms[workshopID] {
		for _, ch := range s.db.choices {
			if ch.MCQuestionID == qid {
				valid[ch.ID] = true
			}
		}
	}
	return valid, nil
}

// CreateFeedback inserts a submission, enforcing (workshop, author)
// uniqueness.
func (s *FeedbackStore) CreateFeedback(ctx context.Context, fb *models.Feedback) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if fb.AuthorID != nil {
		key := pair{fb.WorkshopID, *fb.AuthorID}
		if s.db.feedbackBy[key] {
			return fmt.Errorf("feedback already submitted for workshop: %w", domain.ErrConflict)
		}
		s.db.feedbackBy[key] = true
	}
	if fb.ID == uuid.Nil {
		fb.ID = uuid.New()
	}
	s.db.feedback = append(s.db.feedback, *fb)
	return nil
}

// ListByWorkshop returns the workshop's submissions, newest first.
func (s *FeedbackStore) ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]models.Feedback, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var list []models.Feedback
	for _, fb := range s.db.feedback {
		if fb.WorkshopID == workshopID {
			list = append(list, fb)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SubmittedAt.After(list[j].SubmittedAt) })
	return list, nil
}

func (s *FeedbackStore) choicesLocked(questionID uuid.UUID) []models.Choice {
	var choices []models.Choice
	for _, ch := range s.db.choices {
		if ch.MCQuestionID == questionID {
			choices = append(choices, *ch)
		}
	}
	sort.Slice(choices, func(i, j int) bool { return choices[i].Label < choices[j].Label })
	return choices
}
