package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/openclass/backend/internal/domain"
	"github.com/openclass/backend/internal/models"
)

// ProfileStore implements the profiles store interface in memory.
type ProfileStore struct {
	db *DB
}

// GetByID returns a copy of the profile.
func (s *ProfileStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	p, ok := s.db.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile: %w", domain.ErrNotFound)
	}
	copied := *p
	return &copied, nil
}

// GetByUserID returns the profile owned by a user.
func (s *ProfileStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, p := range s.db.profiles {
		if p.UserID == userID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("profile: %w", domain.ErrNotFound)
}

// GetByVerificationToken returns the profile holding a non-empty token.
func (s *ProfileStore) GetByVerificationToken(ctx context.Context, token string) (*models.Profile, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	if token == "" {
		return nil, fmt.Errorf("profile: %w", domain.ErrNotFound)
	}
	for _, p := range s.db.profiles {
		if p.VerificationToken == token {
			copied := *p
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("profile: %w", domain.ErrNotFound)
}

// Update replaces the stored profile.
func (s *ProfileStore) Update(ctx context.Context, p *models.Profile) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stored, ok := s.db.profiles[p.ID]
	if !ok {
		return fmt.Errorf("profile %s: %w", p.ID, domain.ErrNotFound)
	}
	copied := *p
	copied.Score = stored.Score // score moves only through AddScore
	s.db.profiles[p.ID] = &copied
	return nil
}

// GetUser returns the owning user record.
func (s *ProfileStore) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	u, ok := s.db.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	copied := *u
	return &copied, nil
}

// SetUserEmail updates the account email, enforcing uniqueness.
func (s *ProfileStore) SetUserEmail(ctx context.Context, userID uuid.UUID, email string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	for _, other := range s.db.users {
		if other.ID != userID && other.Email == email {
			return fmt.Errorf("email already in use: %w", domain.ErrConflict)
		}
	}
	u.Email = email
	return nil
}

// SetUserNames updates the account's first and last name.
func (s *ProfileStore) SetUserNames(ctx context.Context, userID uuid.UUID, firstName, lastName string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	u.FirstName = firstName
	u.LastName = lastName
	return nil
}

// AddScore adds delta to the profile score, floored at zero.
func (s *ProfileStore) AddScore(ctx context.Context, profileID uuid.UUID, delta int) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.profiles[profileID]
	if !ok {
		return 0, fmt.Errorf("profile %s: %w", profileID, domain.ErrNotFound)
	}
	p.Score += delta
	if p.Score < 0 {
		p.Score = 0
	}
	return p.Score, nil
}

// SetInterests replaces the profile's interest tags.
func (s *ProfileStore) SetInterests(ctx context.Context, profileID uuid.UUID, tagIDs []uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.interests[profileID] = append([]uuid.UUID(nil), tagIDs...)
	return nil
}

// ListInterests returns the profile's interest tags.
func (s *ProfileStore) ListInterests(ctx context.Context, profileID uuid.UUID) ([]models.Tag, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var tags []models.Tag
	for _, id := range s.db.interests[profileID] {
		if t, ok := s.db.tags[id]; ok {
			tags = append(tags, t)
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

// GetPreference returns the profile's settings row.
func (s *ProfileStore) GetPreference(ctx context.Context, profileID uuid.UUID) (*models.Preference, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	pref, ok := s.db.prefs[profileID]
	if !ok {
		return nil, fmt.Errorf("preference: %w", domain.ErrNotFound)
	}
	copied := *pref
	return &copied, nil
}

// SetPreference upserts the profile's settings row.
func (s *ProfileStore) SetPreference(ctx context.Context, pref *models.Preference) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	copied := *pref
	s.db.prefs[pref.ProfileID] = &copied
	return nil
}

// WorkshopsAttended returns workshops where the profile was accepted and
// marked present, latest start first.
func (s *ProfileStore) WorkshopsAttended(ctx context.Context, profileID uuid.UUID) ([]models.Workshop, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var list []models.Workshop
	for _, reg := range s.db.registrations {
		if reg.ProfileID != profileID || !reg.Attended() {
			continue
		}
		if w, ok := s.db.workshops[reg.WorkshopID]; ok {
			list = append(list, *w)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].StartsAt.After(list[j].StartsAt) })
	return list, nil
}

// WorkshopsAnimated returns the done workshops the profile animated,
// latest start first.
func (s *ProfileStore) WorkshopsAnimated(ctx context.Context, profileID uuid.UUID) ([]models.Workshop, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var list []models.Workshop
	for _, w := range s.db.workshops {
		if w.AnimatorID != nil && *w.AnimatorID == profileID && w.Status == models.WorkshopDone {
			list = append(list, *w)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].StartsAt.After(list[j].StartsAt) })
	return list, nil
}
