// Package workshops implements the workshop submission lifecycle: Pending
// submissions are moderated into Accepted or Refused, then move on to Done
// or Canceled.
package workshops

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openclass/backend/internal/domain"
	"github.com/openclass/backend/internal/models"
	"github.com/openclass/backend/pkg/clock"
)

// Filter narrows List results.
type Filter struct {
	Status     models.WorkshopStatus
	TagID      *uuid.UUID
	AnimatorID *uuid.UUID
	After      *time.Time // only workshops starting after this instant
}

// Recipient is a registered profile's delivery address for notifications.
type Recipient struct {
	ProfileID uuid.UUID
	Email     string
}

// Store is the persistence boundary for workshops.
type Store interface {
	Create(ctx context.Context, w *models.Workshop) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Workshop, error)
	Update(ctx context.Context, w *models.Workshop) error
	List(ctx context.Context, f Filter) ([]models.Workshop, error)
	HasRegistration(ctx context.Context, workshopID, profileID uuid.UUID) (bool, error)
	SetTopics(ctx context.Context, workshopID uuid.UUID, tagIDs []uuid.UUID) error
	ListTopics(ctx context.Context, workshopID uuid.UUID) ([]models.Tag, error)
	// ListRecipients returns registered profiles with status Accepted;
	// presentOnly further restricts to those marked present.
	ListRecipients(ctx context.Context, workshopID uuid.UUID, presentOnly bool) ([]Recipient, error)
}

// Notifier delivers lifecycle notifications. All calls are fire and forget:
// implementations log failures and never report them back.
type Notifier interface {
	WorkshopAccepted(ctx context.Context, w *models.Workshop, to []Recipient)
	WorkshopRefused(ctx context.Context, w *models.Workshop, to []Recipient)
	FeedbackRequested(ctx context.Context, w *models.Workshop, to []Recipient)
}

// Service runs the workshop lifecycle over an injected store and clock.
type Service struct {
	store    Store
	clk      clock.Clock
	notifier Notifier
	logger   *zap.Logger
}

// NewService creates a workshop service. notifier may be nil.
func NewService(store Store, clk clock.Clock, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, clk: clk, notifier: notifier, logger: logger}
}

// SubmitInput carries organizer-provided fields for a new submission.
type SubmitInput struct {
	AnimatorID        uuid.UUID
	Title             string
	Description       string
	RequiredMaterials string
	Objectives        string
	Requirements      string
	Seats             int
	StartsAt          time.Time
	Duration          time.Duration
	Policy            models.RegistrationPolicy
	Location          string
}

// Submit validates the input and creates a Pending workshop with the
// submission date set to now.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*models.Workshop, error) {
	now := s.clk.Now()
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, domain.Invalid("description must not be empty")
	}
	if err := validateLocation(in.Location); err != nil {
		return nil, err
	}
	if in.Seats <= 0 {
		return nil, domain.Invalid("seats must be positive")
	}
	if err := validateStart(in.StartsAt, now); err != nil {
		return nil, err
	}
	if in.Duration <= 0 {
		return nil, domain.Invalid("duration must be positive")
	}
	policy := in.Policy
	if policy == "" {
		policy = models.PolicyFIFO
	}
	if policy != models.PolicyFIFO && policy != models.PolicyManual {
		return nil, domain.Invalid("unknown registration policy %q", policy)
	}

	animatorID := in.AnimatorID
	w := &models.Workshop{
		AnimatorID:        &animatorID,
		Title:             in.Title,
		Description:       in.Description,
		RequiredMaterials: in.RequiredMaterials,
		Objectives:        in.Objectives,
		Requirements:      in.Requirements,
		Seats:             in.Seats,
		SubmittedAt:       now,
		StartsAt:          in.StartsAt,
		Duration:          in.Duration,
		Policy:            policy,
		Location:          in.Location,
		Status:            models.WorkshopPending,
	}
	if err := s.store.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// Accept moves a Pending workshop to Accepted and stamps the decision date.
//
// The start-date gate is kept exactly as the legacy system had it: the
// decision is allowed only once the start date has passed.
// TODO: confirm with product whether the gate should instead require the
// start date to be in the future; tests pin the current behavior.
func (s *Service) Accept(ctx context.Context, id uuid.UUID) (*models.Workshop, error) {
	w, err := s.decide(ctx, id, models.WorkshopAccepted)
	if err != nil {
		return nil, err
	}
	s.broadcast(ctx, w, false, func(to []Recipient) {
		s.notifier.WorkshopAccepted(ctx, w, to)
	})
	return w, nil
}

// Refuse moves a Pending workshop to Refused, symmetric to Accept.
func (s *Service) Refuse(ctx context.Context, id uuid.UUID) (*models.Workshop, error) {
	w, err := s.decide(ctx, id, models.WorkshopRefused)
	if err != nil {
		return nil, err
	}
	s.broadcast(ctx, w, false, func(to []Recipient) {
		s.notifier.WorkshopRefused(ctx, w, to)
	})
	return w, nil
}

func (s *Service) decide(ctx context.Context, id uuid.UUID, target models.WorkshopStatus) (*models.Workshop, error) {
	w, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.Status != models.WorkshopPending {
		return nil, domain.Invalid("workshop is %s, only pending workshops can be decided", w.Status)
	}
	now := s.clk.Now()
	if !w.StartsAt.Before(now) {
		return nil, domain.Invalid("workshop start date has not passed")
	}
	w.Status = target
	w.DecidedAt = &now
	if err := s.store.Update(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// MarkDone moves an Accepted workshop to Done once it has finished running,
// then asks the attendees who were present for feedback.
func (s *Service) MarkDone(ctx context.Context, id uuid.UUID) (*models.Workshop, error) {
	w, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.Status != models.WorkshopAccepted {
		return nil, domain.Invalid("workshop is %s, only accepted workshops can be done", w.Status)
	}
	if s.clk.Now().Before(w.EndsAt()) {
		return nil, domain.Invalid("workshop has not finished yet")
	}
	w.Status = models.WorkshopDone
	if err := s.store.Update(ctx, w); err != nil {
		return nil, err
	}
	s.broadcast(ctx, w, true, func(to []Recipient) {
		s.notifier.FeedbackRequested(ctx, w, to)
	})
	return w, nil
}

// Cancel moves a Pending or Accepted workshop to Canceled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*models.Workshop, error) {
	w, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.Status != models.WorkshopPending && w.Status != models.WorkshopAccepted {
		return nil, domain.Invalid("workshop is %s and cannot be canceled", w.Status)
	}
	w.Status = models.WorkshopCanceled
	if err := s.store.Update(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Service) broadcast(ctx context.Context, w *models.Workshop, presentOnly bool, send func([]Recipient)) {
	if s.notifier == nil {
		return
	}
	to, err := s.store.ListRecipients(ctx, w.ID, presentOnly)
	if err != nil {
		s.logger.Warn("list notification recipients failed",
			zap.String("workshop_id", w.ID.String()), zap.Error(err))
		return
	}
	if len(to) > 0 {
		send(to)
	}
}

// UpdateTitle replaces the title if it is non-empty and within the bound.
func (s *Service) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	if err := validateTitle(title); err != nil {
		return err
	}
	return s.mutate(ctx, id, func(w *models.Workshop) { w.Title = title })
}

// UpdateDescription replaces the description if non-empty.
func (s *Service) UpdateDescription(ctx context.Context, id uuid.UUID, description string) error {
	if strings.TrimSpace(description) == "" {
		return domain.Invalid("description must not be empty")
	}
	return s.mutate(ctx, id, func(w *models.Workshop) { w.Description = description })
}

// UpdateRequiredMaterials replaces the required materials if non-empty.
func (s *Service) UpdateRequiredMaterials(ctx context.Context, id uuid.UUID, materials string) error {
	if strings.TrimSpace(materials) == "" {
		return domain.Invalid("required materials must not be empty")
	}
	return s.mutate(ctx, id, func(w *models.Workshop) { w.RequiredMaterials = materials })
}

// UpdateObjectives replaces the objectives if non-empty.
func (s *Service) UpdateObjectives(ctx context.Context, id uuid.UUID, objectives string) error {
	if strings.TrimSpace(objectives) == "" {
		return domain.Invalid("objectives must not be empty")
	}
	return s.mutate(ctx, id, func(w *models.Workshop) { w.Objectives = objectives })
}

// UpdateRequirements replaces the requirements if non-empty.
func (s *Service) UpdateRequirements(ctx context.Context, id uuid.UUID, requirements string) error {
	if strings.TrimSpace(requirements) == "" {
		return domain.Invalid("requirements must not be empty")
	}
	return s.mutate(ctx, id, func(w *models.Workshop) { w.Requirements = requirements })
}

// UpdateSeats replaces the seat count if positive.
func (s *Service) UpdateSeats(ctx context.Context, id uuid.UUID, seats int) error {
	if seats <= 0 {
		return domain.Invalid("seats must be positive")
	}
	return s.mutate(ctx, id, func(w *models.Workshop) { w.Seats = seats })
}

// UpdateStartDate replaces the start date if it lies in the future.
func (s *Service) UpdateStartDate(ctx context.Context, id uuid.UUID, startsAt time.Time) error {
	if err := validateStart(startsAt, s.clk.Now()); err != nil {
		return err
	}
	return s.mutate(ctx, id, func(w *models.Workshop) { w.StartsAt = startsAt })
}

// UpdateLocation replaces the location if non-empty and within the bound.
func (s *Service) UpdateLocation(ctx context.Context, id uuid.UUID, location string) error {
	if err := validateLocation(location); err != nil {
		return err
	}
	return s.mutate(ctx, id, func(w *models.Workshop) { w.Location = location })
}

// SetCover persists the uploaded cover image key.
func (s *Service) SetCover(ctx context.Context, id uuid.UUID, key string) error {
	if key == "" {
		return domain.Invalid("cover key must not be empty")
	}
	return s.mutate(ctx, id, func(w *models.Workshop) { w.CoverKey = key })
}

func (s *Service) mutate(ctx context.Context, id uuid.UUID, apply func(*models.Workshop)) error {
	w, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	apply(w)
	return s.store.Update(ctx, w)
}

// Get returns a workshop by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Workshop, error) {
	return s.store.GetByID(ctx, id)
}

// List returns workshops matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]models.Workshop, error) {
	return s.store.List(ctx, f)
}

// Upcoming returns accepted workshops starting after now.
func (s *Service) Upcoming(ctx context.Context) ([]models.Workshop, error) {
	now := s.clk.Now()
	return s.store.List(ctx, Filter{Status: models.WorkshopAccepted, After: &now})
}

// DaysLeft returns whole days between now and the workshop's start date.
// Negative once the start date has passed.
func (s *Service) DaysLeft(ctx context.Context, id uuid.UUID) (int, error) {
	w, err := s.store.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return w.DaysLeft(s.clk.Now()), nil
}

// CheckRegistration reports whether the profile holds a registration for
// the workshop.
func (s *Service) CheckRegistration(ctx context.Context, workshopID, profileID uuid.UUID) (bool, error) {
	if _, err := s.store.GetByID(ctx, workshopID); err != nil {
		return false, err
	}
	return s.store.HasRegistration(ctx, workshopID, profileID)
}

// SetTopics replaces the workshop's tag set.
func (s *Service) SetTopics(ctx context.Context, workshopID uuid.UUID, tagIDs []uuid.UUID) error {
	if _, err := s.store.GetByID(ctx, workshopID); err != nil {
		return err
	}
	return s.store.SetTopics(ctx, workshopID, tagIDs)
}

// Topics lists the workshop's tags.
func (s *Service) Topics(ctx context.Context, workshopID uuid.UUID) ([]models.Tag, error) {
	return s.store.ListTopics(ctx, workshopID)
}

func validateTitle(title string) error {
	if n := utf8.RuneCountInString(title); n == 0 || n > models.MaxWorkshopTitle {
		return domain.Invalid("title must be 1-%d characters", models.MaxWorkshopTitle)
	}
	return nil
}

func validateLocation(location string) error {
	if n := utf8.RuneCountInString(location); n == 0 || n > models.MaxWorkshopLocation {
		return domain.Invalid("location must be 1-%d characters", models.MaxWorkshopLocation)
	}
	return nil
}

func validateStart(startsAt, now time.Time) error {
	if startsAt.IsZero() {
		return domain.Invalid("start date is required")
	}
	if !startsAt.After(now) {
		return domain.Invalid("start date must be in the future")
	}
	return nil
}
