// Package registrations manages attendee enrollment and attendance for
// workshops. A profile can hold at most one registration per workshop; the
// database constraint is the authority and double registration surfaces as
// a conflict.
package registrations

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openclass/backend/internal/domain"
	"github.com/openclass/backend/internal/models"
	"github.com/openclass/backend/pkg/clock"
)

// Store is the persistence boundary for registrations.
type Store interface {
	// Create inserts a registration, returning domain.ErrConflict when the
	// (workshop, profile) pair already exists.
	Create(ctx context.Context, reg *models.Registration) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	GetByWorkshopAndProfile(ctx context.Context, workshopID, profileID uuid.UUID) (*models.Registration, error)
	Update(ctx context.Context, reg *models.Registration) error
	ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]models.Registration, error)
	ListByProfile(ctx context.Context, profileID uuid.UUID) ([]models.Registration, error)
	CountAccepted(ctx context.Context, workshopID uuid.UUID) (int, error)
}

// WorkshopDirectory resolves workshops for precondition checks.
type WorkshopDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Workshop, error)
}

// AttendanceHook is invoked after a presence confirmation, fire and forget.
// The badge service uses it for score accrual and attendance badges.
type AttendanceHook interface {
	PresenceConfirmed(ctx context.Context, profileID uuid.UUID)
}

// Service manages the registration lifecycle.
type Service struct {
	store     Store
	workshops WorkshopDirectory
	clk       clock.Clock
	hook      AttendanceHook
	logger    *zap.Logger
}

// NewService creates a registration service. hook may be nil.
func NewService(store Store, workshops WorkshopDirectory, clk clock.Clock, hook AttendanceHook, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, workshops: workshops, clk: clk, hook: hook, logger: logger}
}

// Register enrolls a profile into an accepted, not-yet-started workshop.
// FIFO workshops auto-accept while seats remain; manual ones stay pending
// until the animator decides.
func (s *Service) Register(ctx context.Context, workshopID, profileID uuid.UUID) (*models.Registration, error) {
	w, err := s.workshops.GetByID(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	if w.Status != models.WorkshopAccepted {
		return nil, domain.Invalid("workshop is %s, registration requires an accepted workshop", w.Status)
	}
	now := s.clk.Now()
	if !now.Before(w.StartsAt) {
		return nil, domain.Invalid("workshop has already started")
	}

	status := models.RegistrationPending
	if w.Policy == models.PolicyFIFO {
		accepted, err := s.store.CountAccepted(ctx, workshopID)
		if err != nil {
			return nil, err
		}
		if accepted < w.Seats {
			status = models.RegistrationAccepted
		}
	}

	reg := &models.Registration{
		WorkshopID:   workshopID,
		ProfileID:    profileID,
		Status:       status,
		RegisteredAt: now,
	}
	if err := s.store.Create(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// Decide resolves a pending registration on a manual-policy workshop.
// Only the workshop's animator may decide.
func (s *Service) Decide(ctx context.Context, registrationID, animatorID uuid.UUID, accept bool) (*models.Registration, error) {
	reg, err := s.store.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	w, err := s.workshops.GetByID(ctx, reg.WorkshopID)
	if err != nil {
		return nil, err
	}
	if w.AnimatorID == nil || *w.AnimatorID != animatorID {
		return nil, domain.Invalid("only the animator can decide registrations")
	}
	if reg.Status != models.RegistrationPending {
		return nil, domain.Invalid("registration is %s, only pending registrations can be decided", reg.Status)
	}
	if accept {
		reg.Status = models.RegistrationAccepted
	} else {
		reg.Status = models.RegistrationRefused
	}
	if err := s.store.Update(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// Cancel cancels a pending or accepted registration and stamps the cancel
// date.
func (s *Service) Cancel(ctx context.Context, registrationID, profileID uuid.UUID) (*models.Registration, error) {
	reg, err := s.store.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.ProfileID != profileID {
		return nil, domain.Invalid("registration belongs to another profile")
	}
	if reg.Status != models.RegistrationPending && reg.Status != models.RegistrationAccepted {
		return nil, domain.Invalid("registration is %s and cannot be canceled", reg.Status)
	}
	now := s.clk.Now()
	reg.Status = models.RegistrationCanceled
	reg.CanceledAt = &now
	if err := s.store.Update(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// ConfirmPresence marks the registration present. The caller is responsible
// for invoking this only once the workshop has started; the method itself
// sets the flag unconditionally.
func (s *Service) ConfirmPresence(ctx context.Context, registrationID uuid.UUID) (*models.Registration, error) {
	reg, err := s.store.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	reg.Present = true
	if err := s.store.Update(ctx, reg); err != nil {
		return nil, err
	}
	if s.hook != nil {
		s.hook.PresenceConfirmed(ctx, reg.ProfileID)
	}
	return reg, nil
}

// Get returns a registration by workshop and profile.
func (s *Service) Get(ctx context.Context, workshopID, profileID uuid.UUID) (*models.Registration, error) {
	return s.store.GetByWorkshopAndProfile(ctx, workshopID, profileID)
}

// ListByWorkshop returns a workshop's registrations.
func (s *Service) ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]models.Registration, error) {
	return s.store.ListByWorkshop(ctx, workshopID)
}

// ListByProfile returns a profile's registrations.
func (s *Service) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]models.Registration, error) {
	return s.store.ListByProfile(ctx, profileID)
}
