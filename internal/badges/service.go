// Package badges implements the gamification layer: a badge catalog,
// per-profile awards with display priorities, and automatic granting of
// attendance badges as profiles attend workshops.
package badges

import (
	"context"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openclass/backend/internal/domain"
	"github.com/openclass/backend/internal/models"
	"github.com/openclass/backend/pkg/clock"
)

// AttendancePoints is the score added each time presence is confirmed.
const AttendancePoints = 10

// Store is the persistence boundary for badges.
type Store interface {
	Create(ctx context.Context, b *models.Badge) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Badge, error)
	Update(ctx context.Context, b *models.Badge) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]models.Badge, error)
	// ListAttendance returns badges of the attendance kind.
	ListAttendance(ctx context.Context) ([]models.Badge, error)
	// Award is idempotent: awarding a badge twice keeps one row.
	Award(ctx context.Context, pb *models.ProfileBadge) error
	HasBadge(ctx context.Context, badgeID, profileID uuid.UUID) (bool, error)
	ListByProfile(ctx context.Context, profileID uuid.UUID) ([]models.ProfileBadge, error)
	SetPriority(ctx context.Context, badgeID, profileID uuid.UUID, priority int) error
	// CountAttendance counts workshops the profile attended
	// (accepted registration, present).
	CountAttendance(ctx context.Context, profileID uuid.UUID) (int, error)
}

// ScoreKeeper accrues points on a profile.
type ScoreKeeper interface {
	AddScore(ctx context.Context, profileID uuid.UUID, delta int) (int, error)
}

// Service manages the badge catalog and awards.
type Service struct {
	store  Store
	scores ScoreKeeper
	clk    clock.Clock
	logger *zap.Logger
}

// NewService creates a badge service.
func NewService(store Store, scores ScoreKeeper, clk clock.Clock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, scores: scores, clk: clk, logger: logger}
}

// CreateInput carries the fields of a new badge.
type CreateInput struct {
	Name                string
	Description         string
	Kind                models.BadgeKind
	AttendanceThreshold *int
}

// Create adds a badge to the catalog. Attendance badges require a positive
// threshold; standard badges must not carry one.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Badge, error) {
	if n := utf8.RuneCountInString(in.Name); n == 0 || n > models.MaxBadgeName {
		return nil, domain.Invalid("badge name must be 1-%d characters", models.MaxBadgeName)
	}
	if in.Kind == "" {
		in.Kind = models.BadgeStandard
	}
	switch in.Kind {
	case models.BadgeStandard:
		if in.AttendanceThreshold != nil {
			return nil, domain.Invalid("standard badges take no attendance threshold")
		}
	case models.BadgeAttendance:
		if in.AttendanceThreshold == nil || *in.AttendanceThreshold <= 0 {
			return nil, domain.Invalid("attendance badges require a positive threshold")
		}
	default:
		return nil, domain.Invalid("unknown badge kind %q", in.Kind)
	}

	b := &models.Badge{
		Name:                in.Name,
		Description:         in.Description,
		Kind:                in.Kind,
		AttendanceThreshold: in.AttendanceThreshold,
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Get returns a badge by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Badge, error) {
	return s.store.GetByID(ctx, id)
}

// List returns the whole badge catalog.
func (s *Service) List(ctx context.Context) ([]models.Badge, error) {
	return s.store.List(ctx)
}

// UpdateDescription changes a badge's description.
func (s *Service) UpdateDescription(ctx context.Context, id uuid.UUID, description string) (*models.Badge, error) {
	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Description = description
	if err := s.store.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// SetImageKey records the storage key of the badge image.
func (s *Service) SetImageKey(ctx context.Context, id uuid.UUID, key string) (*models.Badge, error) {
	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	b.ImageKey = key
	if err := s.store.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Delete removes a badge and its awards.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}

// Award grants a badge to a profile. Already-held badges are a no-op.
func (s *Service) Award(ctx context.Context, badgeID, profileID uuid.UUID, priority int) (*models.ProfileBadge, error) {
	if priority < 0 {
		return nil, domain.Invalid("priority must not be negative")
	}
	if _, err := s.store.GetByID(ctx, badgeID); err != nil {
		return nil, err
	}
	pb := &models.ProfileBadge{
		BadgeID:   badgeID,
		ProfileID: profileID,
		Priority:  priority,
		AwardedAt: s.clk.Now(),
	}
	if err := s.store.Award(ctx, pb); err != nil {
		return nil, err
	}
	return pb, nil
}

// HasBadge reports whether the profile holds the badge.
func (s *Service) HasBadge(ctx context.Context, badgeID, profileID uuid.UUID) (bool, error) {
	return s.store.HasBadge(ctx, badgeID, profileID)
}

// ListByProfile returns the profile's badges ordered by display priority.
func (s *Service) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]models.ProfileBadge, error) {
	return s.store.ListByProfile(ctx, profileID)
}

// SetPriority reorders a held badge.
func (s *Service) SetPriority(ctx context.Context, badgeID, profileID uuid.UUID, priority int) error {
	if priority < 0 {
		return domain.Invalid("priority must not be negative")
	}
	return s.store.SetPriority(ctx, badgeID, profileID, priority)
}

// EvaluateAttendance grants every attendance badge whose threshold the
// profile's attended-workshop count has reached. Returns the newly granted
// badges.
func (s *Service) EvaluateAttendance(ctx context.Context, profileID uuid.UUID) ([]models.Badge, error) {
	attended, err := s.store.CountAttendance(ctx, profileID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.store.ListAttendance(ctx)
	if err != nil {
		return nil, err
	}

	var granted []models.Badge
	for _, b := range candidates {
		if b.AttendanceThreshold == nil || attended < *b.AttendanceThreshold {
			continue
		}
		held, err := s.store.HasBadge(ctx, b.ID, profileID)
		if err != nil {
			return nil, err
		}
		if held {
			continue
		}
		pb := &models.ProfileBadge{
			BadgeID:   b.ID,
			ProfileID: profileID,
			AwardedAt: s.clk.Now(),
		}
		if err := s.store.Award(ctx, pb); err != nil {
			return nil, err
		}
		s.logger.Info("attendance badge granted",
			zap.String("badge", b.Name),
			zap.String("profile_id", profileID.String()))
		granted = append(granted, b)
	}
	return granted, nil
}

// PresenceConfirmed accrues attendance points and re-evaluates attendance
// badges. Failures are logged, never surfaced to the attendance desk.
func (s *Service) PresenceConfirmed(ctx context.Context, profileID uuid.UUID) {
	if s.scores != nil {
		if _, err := s.scores.AddScore(ctx, profileID, AttendancePoints); err != nil {
			s.logger.Error("score accrual failed",
				zap.String("profile_id", profileID.String()), zap.Error(err))
		}
	}
	if _, err := s.EvaluateAttendance(ctx, profileID); err != nil {
		s.logger.Error("attendance badge evaluation failed",
			zap.String("profile_id", profileID.String()), zap.Error(err))
	}
}
