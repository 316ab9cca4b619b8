// Package feedback implements post-workshop reviews: a multiple-choice form
// attached to each workshop plus a free-text comment, one submission per
// (workshop, author).
package feedback

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/openclass/backend/internal/domain"
	"github.com/openclass/backend/internal/models"
	"github.com/openclass/backend/pkg/clock"
)

// Store is the persistence boundary for feedback forms and submissions.
type Store interface {
	CreateMCQuestion(ctx context.Context, q *models.MCQuestion) error
	AddChoice(ctx context.Context, ch *models.Choice) error
	GetMCQuestion(ctx context.Context, id uuid.UUID) (*models.MCQuestion, error)
	ListMCQuestions(ctx context.Context) ([]models.MCQuestion, error)
	SetForm(ctx context.Context, workshopID uuid.UUID, questionIDs []uuid.UUID) error
	ListForm(ctx context.Context, workshopID uuid.UUID) ([]models.MCQuestion, error)
	// FormChoiceIDs returns the set of choice IDs belonging to the
	// workshop's form questions.
	FormChoiceIDs(ctx context.Context, workshopID uuid.UUID) (map[uuid.UUID]bool, error)
	// CreateFeedback inserts a submission, returning domain.ErrConflict
	// when the author already reviewed the workshop.
	CreateFeedback(ctx context.Context, fb *models.Feedback) error
	ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]models.Feedback, error)
}

// Workshops resolves workshops for submission gating.
type Workshops interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Workshop, error)
}

// Registrations resolves the author's registration for attendance gating.
type Registrations interface {
	GetByWorkshopAndProfile(ctx context.Context, workshopID, profileID uuid.UUID) (*models.Registration, error)
}

// Service manages the feedback catalog and submissions.
type Service struct {
	store         Store
	workshops     Workshops
	registrations Registrations
	clk           clock.Clock
}

// NewService creates a feedback service.
func NewService(store Store, workshops Workshops, registrations Registrations, clk clock.Clock) *Service {
	return &Service{store: store, workshops: workshops, registrations: registrations, clk: clk}
}

// CreateMCQuestion adds a catalog question.
func (s *Service) CreateMCQuestion(ctx context.Context, question string) (*models.MCQuestion, error) {
	if n := utf8.RuneCountInString(question); n == 0 || n > models.MaxMCQuestion {
		return nil, domain.Invalid("question must be 1-%d characters", models.MaxMCQuestion)
	}
	q := &models.MCQuestion{Question: question}
	if err := s.store.CreateMCQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// AddChoice adds a choice label to a catalog question.
func (s *Service) AddChoice(ctx context.Context, questionID uuid.UUID, label string) (*models.Choice, error) {
	if n := utf8.RuneCountInString(label); n == 0 || n > models.MaxChoiceLabel {
		return nil, domain.Invalid("choice must be 1-%d characters", models.MaxChoiceLabel)
	}
	if _, err := s.store.GetMCQuestion(ctx, questionID); err != nil {
		return nil, err
	}
	ch := &models.Choice{MCQuestionID: questionID, Label: label}
	if err := s.store.AddChoice(ctx, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// ListCatalog returns all catalog questions with their choices.
func (s *Service) ListCatalog(ctx context.Context) ([]models.MCQuestion, error) {
	return s.store.ListMCQuestions(ctx)
}

// SetForm attaches catalog questions to a workshop's feedback form.
func (s *Service) SetForm(ctx context.Context, workshopID uuid.UUID, questionIDs []uuid.UUID) error {
	if _, err := s.workshops.GetByID(ctx, workshopID); err != nil {
		return err
	}
	for _, qid := range questionIDs {
		if _, err := s.store.GetMCQuestion(ctx, qid); err != nil {
			return err
		}
	}
	return s.store.SetForm(ctx, workshopID, questionIDs)
}

// Form returns the workshop's feedback form questions.
func (s *Service) Form(ctx context.Context, workshopID uuid.UUID) ([]models.MCQuestion, error) {
	return s.store.ListForm(ctx, workshopID)
}

// Submit records a review. The workshop must be done, the author must have
// attended (accepted registration, present), the comment must be non-empty
// and every selected choice must belong to the workshop's form. A second
// submission by the same author is a conflict.
func (s *Service) Submit(ctx context.Context, workshopID, authorID uuid.UUID, choiceIDs []uuid.UUID, comment string) (*models.Feedback, error) {
	w, err := s.workshops.GetByID(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	if w.Status != models.WorkshopDone {
		return nil, domain.Invalid("feedback is open once the workshop is done")
	}
	reg, err := s.registrations.GetByWorkshopAndProfile(ctx, workshopID, authorID)
	if err != nil {
		return nil, err
	}
	if !reg.Attended() {
		return nil, domain.Invalid("feedback requires attendance")
	}
	if strings.TrimSpace(comment) == "" {
		return nil, domain.Invalid("comment must not be empty")
	}
	valid, err := s.store.FormChoiceIDs(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	for _, id := range choiceIDs {
		if !valid[id] {
			return nil, domain.Invalid("choice %s is not part of the workshop form", id)
		}
	}

	author := authorID
	fb := &models.Feedback{
		WorkshopID:  workshopID,
		AuthorID:    &author,
		ChoiceIDs:   choiceIDs,
		Comment:     comment,
		SubmittedAt: s.clk.Now(),
	}
	if err := s.store.CreateFeedback(ctx, fb); err != nil {
		return nil, err
	}
	return fb, nil
}

// ListByWorkshop returns a workshop's feedback submissions.
func (s *Service) ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]models.Feedback, error) {
	return s.store.ListByWorkshop(ctx, workshopID)
}
