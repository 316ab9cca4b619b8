// Package profiles manages community profiles: contact details, verification,
// interests, preferences and the score counter behind the badge system.
package profiles

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openclass/backend/internal/domain"
	"github.com/openclass/backend/internal/models"
	"github.com/openclass/backend/pkg/clock"
	"github.com/openclass/backend/pkg/utils"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^\+?\d{6,15}$`)
)

// Store is the persistence boundary for profiles.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.Profile, error)
	// Update persists gender, phone, birthday, verification state and photo.
	Update(ctx context.Context, p *models.Profile) error
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	// SetUserEmail returns domain.ErrConflict when the email is taken.
	SetUserEmail(ctx context.Context, userID uuid.UUID, email string) error
	SetUserNames(ctx context.Context, userID uuid.UUID, firstName, lastName string) error
	AddScore(ctx context.Context, profileID uuid.UUID, delta int) (int, error)
	SetInterests(ctx context.Context, profileID uuid.UUID, tagIDs []uuid.UUID) error
	ListInterests(ctx context.Context, profileID uuid.UUID) ([]models.Tag, error)
	GetPreference(ctx context.Context, profileID uuid.UUID) (*models.Preference, error)
	SetPreference(ctx context.Context, pref *models.Preference) error
	WorkshopsAttended(ctx context.Context, profileID uuid.UUID) ([]models.Workshop, error)
	WorkshopsAnimated(ctx context.Context, profileID uuid.UUID) ([]models.Workshop, error)
}

// Notifier sends profile lifecycle emails. Delivery is fire-and-forget.
type Notifier interface {
	VerificationRequested(profileID uuid.UUID, email, token string)
}

// Service manages profile state.
type Service struct {
	store    Store
	notifier Notifier
	clk      clock.Clock
	logger   *zap.Logger
}

// NewService creates a profile service.
func NewService(store Store, notifier Notifier, clk clock.Clock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, notifier: notifier, clk: clk, logger: logger}
}

// Get returns a profile by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return s.store.GetByID(ctx, id)
}

// GetByUser returns the profile owned by a user.
func (s *Service) GetByUser(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return s.store.GetByUserID(ctx, userID)
}

// UpdateEmail changes the account email. A new verification token is issued,
// the profile drops back to unverified and a verification email is queued.
func (s *Service) UpdateEmail(ctx context.Context, profileID uuid.UUID, email string) (*models.Profile, error) {
	email = strings.TrimSpace(email)
	if !emailPattern.MatchString(email) {
		return nil, domain.Invalid("invalid email address")
	}
	p, err := s.store.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetUserEmail(ctx, p.UserID, email); err != nil {
		return nil, err
	}
	token, err := utils.NewVerificationToken()
	if err != nil {
		return nil, err
	}
	p.VerificationToken = token
	p.Verified = false
	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.VerificationRequested(p.ID, email, token)
	}
	return p, nil
}

// UpdatePhone changes the phone number. Spaces are stripped before
// validation, so "+33 6 12 34 56 78" is accepted.
func (s *Service) UpdatePhone(ctx context.Context, profileID uuid.UUID, phone string) (*models.Profile, error) {
	phone = strings.ReplaceAll(phone, " ", "")
	if !phonePattern.MatchString(phone) {
		return nil, domain.Invalid("invalid phone number")
	}
	return s.mutate(ctx, profileID, func(p *models.Profile) {
		p.PhoneNumber = phone
	})
}

// UpdateNames changes the user's first and last name. Both must be non-empty.
func (s *Service) UpdateNames(ctx context.Context, profileID uuid.UUID, firstName, lastName string) error {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return domain.Invalid("first and last name must not be empty")
	}
	p, err := s.store.GetByID(ctx, profileID)
	if err != nil {
		return err
	}
	return s.store.SetUserNames(ctx, p.UserID, firstName, lastName)
}

// UpdateGender sets the profile's gender.
func (s *Service) UpdateGender(ctx context.Context, profileID uuid.UUID, gender models.Gender) (*models.Profile, error) {
	switch gender {
	case models.GenderMale, models.GenderFemale, models.GenderUnspecified:
	default:
		return nil, domain.Invalid("unknown gender %q", gender)
	}
	return s.mutate(ctx, profileID, func(p *models.Profile) {
		p.Gender = gender
	})
}

// UpdateBirthday sets the profile's birthday. It must be in the past.
func (s *Service) UpdateBirthday(ctx context.Context, profileID uuid.UUID, birthday time.Time) (*models.Profile, error) {
	if !birthday.Before(s.clk.Now()) {
		return nil, domain.Invalid("birthday must be in the past")
	}
	return s.mutate(ctx, profileID, func(p *models.Profile) {
		b := birthday
		p.Birthday = &b
	})
}

// SetPhotoKey records the storage key of the profile photo.
func (s *Service) SetPhotoKey(ctx context.Context, profileID uuid.UUID, key string) (*models.Profile, error) {
	return s.mutate(ctx, profileID, func(p *models.Profile) {
		p.PhotoKey = key
	})
}

// Age returns the profile's age in full years, false when no birthday is set.
func (s *Service) Age(ctx context.Context, profileID uuid.UUID) (int, bool, error) {
	p, err := s.store.GetByID(ctx, profileID)
	if err != nil {
		return 0, false, err
	}
	age, ok := p.Age(s.clk.Now())
	return age, ok, nil
}

// Verify marks the profile holding the token as verified and burns the token.
func (s *Service) Verify(ctx context.Context, token string) (*models.Profile, error) {
	if token == "" {
		return nil, domain.Invalid("verification token must not be empty")
	}
	p, err := s.store.GetByVerificationToken(ctx, token)
	if err != nil {
		return nil, err
	}
	p.Verified = true
	p.VerificationToken = ""
	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("profile verified", zap.String("profile_id", p.ID.String()))
	return p, nil
}

// AddScore adds delta points to the profile and returns the new score.
func (s *Service) AddScore(ctx context.Context, profileID uuid.UUID, delta int) (int, error) {
	return s.store.AddScore(ctx, profileID, delta)
}

// WorkshopsAttended returns the workshops the profile was accepted to and
// showed up at.
func (s *Service) WorkshopsAttended(ctx context.Context, profileID uuid.UUID) ([]models.Workshop, error) {
	return s.store.WorkshopsAttended(ctx, profileID)
}

// WorkshopsAnimated returns the done workshops the profile animated.
func (s *Service) WorkshopsAnimated(ctx context.Context, profileID uuid.UUID) ([]models.Workshop, error) {
	return s.store.WorkshopsAnimated(ctx, profileID)
}

// SetInterests replaces the profile's interest tags.
func (s *Service) SetInterests(ctx context.Context, profileID uuid.UUID, tagIDs []uuid.UUID) error {
	if _, err := s.store.GetByID(ctx, profileID); err != nil {
		return err
	}
	return s.store.SetInterests(ctx, profileID, tagIDs)
}

// Interests returns the profile's interest tags.
func (s *Service) Interests(ctx context.Context, profileID uuid.UUID) ([]models.Tag, error) {
	return s.store.ListInterests(ctx, profileID)
}

// Preference returns the profile's settings, defaulting when none are stored.
func (s *Service) Preference(ctx context.Context, profileID uuid.UUID) (*models.Preference, error) {
	pref, err := s.store.GetPreference(ctx, profileID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &models.Preference{ProfileID: profileID}, nil
		}
		return nil, err
	}
	return pref, nil
}

// SetPreference stores the profile's settings.
func (s *Service) SetPreference(ctx context.Context, profileID uuid.UUID, confidentiality int) (*models.Preference, error) {
	if confidentiality < 0 {
		return nil, domain.Invalid("confidentiality must not be negative")
	}
	pref := &models.Preference{ProfileID: profileID, Confidentiality: confidentiality}
	if err := s.store.SetPreference(ctx, pref); err != nil {
		return nil, err
	}
	return pref, nil
}

func (s *Service) mutate(ctx context.Context, profileID uuid.UUID, fn func(*models.Profile)) (*models.Profile, error) {
	p, err := s.store.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	fn(p)
	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
