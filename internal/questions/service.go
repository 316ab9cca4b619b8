// Package questions implements live Q&A: a registered, present attendee may
// ask a free-text question while the workshop is in progress.
package questions

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/openclass/backend/internal/domain"
	"github.com/openclass/backend/internal/models"
	"github.com/openclass/backend/pkg/clock"
)

// Store is the persistence boundary for questions.
type Store interface {
	Create(ctx context.Context, q *models.Question) error
	ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]models.Question, error)
}

// Workshops resolves workshops for the temporal gate.
type Workshops interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Workshop, error)
}

// Registrations resolves the asker's registration for the presence gate.
type Registrations interface {
	GetByWorkshopAndProfile(ctx context.Context, workshopID, profileID uuid.UUID) (*models.Registration, error)
}

// Service gates and records questions.
type Service struct {
	store         Store
	workshops     Workshops
	registrations Registrations
	clk           clock.Clock
}

// NewService creates a question service.
func NewService(store Store, workshops Workshops, registrations Registrations, clk clock.Clock) *Service {
	return &Service{store: store, workshops: workshops, registrations: registrations, clk: clk}
}

// Ask records a question when every gate passes: the workshop exists, the
// asker holds a registration, the asker is marked present, and the workshop
// is currently running. Any violated gate fails without creating anything.
func (s *Service) Ask(ctx context.Context, workshopID, profileID uuid.UUID, body string) (*models.Question, error) {
	w, err := s.workshops.GetByID(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	reg, err := s.registrations.GetByWorkshopAndProfile(ctx, workshopID, profileID)
	if err != nil {
		return nil, err
	}
	if !reg.Present {
		return nil, domain.Invalid("presence has not been confirmed")
	}
	if !w.InProgress(s.clk.Now()) {
		return nil, domain.Invalid("workshop is not in progress")
	}
	if strings.TrimSpace(body) == "" {
		return nil, domain.Invalid("question must not be empty")
	}

	authorID := profileID
	q := &models.Question{
		WorkshopID: workshopID,
		AuthorID:   &authorID,
		Body:       body,
		CreatedAt:  s.clk.Now(),
	}
	if err := s.store.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// ListByWorkshop returns a workshop's questions.
func (s *Service) ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]models.Question, error) {
	return s.store.ListByWorkshop(ctx, workshopID)
}
