package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/openclass/backend/internal/domain"
	"github.com/openclass/backend/internal/models"
)

// BadgeStore implements the badges store interface in memory.
type BadgeStore struct {
	db *DB
}

// Create inserts a badge.
func (s *BadgeStore) Create(ctx context.Context, b *models.Badge) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	copied := *b
	s.db.badges[b.ID] = &copied
	return nil
}

// GetByID returns a copy of the badge.
func (s *BadgeStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Badge, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	b, ok := s.db.badges[id]
	if !ok {
		return nil, fmt.Errorf("badge %s: %w", id, domain.ErrNotFound)
	}
	copied := *b
	return &copied, nil
}

// Update replaces the stored badge.
func (s *BadgeStore) Update(ctx context.Context, b *models.Badge) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.badges[b.ID]; !ok {
		return fmt.Errorf("badge %s: %w", b.ID, domain.ErrNotFound)
	}
	copied := *b
	s.db.badges[b.ID] = &copied
	return nil
}

// Delete removes a badge and its awards.
func (s *BadgeStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.badges[id]; !ok {
		return fmt.Errorf("badge %s: %w", id, domain.ErrNotFound)
	}
	delete(s.db.badges, id)
	for key := range s.db.awards {
		if key.a == id {
			delete(s.db.awards, key)
		}
	}
	return nil
}

// List returns the whole catalog.
func (s *BadgeStore) List(ctx context.Context) ([]models.Badge, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var list []models.Badge
	for _, b := range s.db.badges {
		list = append(list, *b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// ListAttendance returns attendance-kind badges, lowest threshold first.
func (s *BadgeStore) ListAttendance(ctx context.Context) ([]models.Badge, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var list []models.Badge
	for _, b := range s.db.badges {
		if b.Kind == models.BadgeAttendance {
			list = append(list, *b)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		ti, tj := 0, 0
		if list[i].AttendanceThreshold != nil {
			ti = *list[i].AttendanceThreshold
		}
		if list[j].AttendanceThreshold != nil {
			tj = *list[j].AttendanceThreshold
		}
		return ti < tj
	})
	return list, nil
}

// Award grants a badge; an existing award is kept untouched.
func (s *BadgeStore) Award(ctx context.Context, pb *models.ProfileBadge) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := pair{pb.BadgeID, pb.ProfileID}
	if _, held := s.db.awards[key]; held {
		return nil
	}
	copied := *pb
	s.db.awards[key] = &copied
	return nil
}

// HasBadge reports whether the profile holds the badge.
func (s *BadgeStore) HasBadge(ctx context.Context, badgeID, profileID uuid.UUID) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	_, held := s.db.awards[pair{badgeID, profileID}]
	return held, nil
}

// ListByProfile returns the profile's awards, highest priority first.
func (s *BadgeStore) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]models.ProfileBadge, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var list []models.ProfileBadge
	for key, pb := range s.db.awards {
		if key.b == profileID {
			list = append(list, *pb)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Priority != list[j].Priority {
			return list[i].Priority > list[j].Priority
		}
		return list[i].AwardedAt.Before(list[j].AwardedAt)
	})
	return list, nil
}

// SetPriority reorders a held badge.
func (s *BadgeStore) SetPriority(ctx context.Context, badgeID, profileID uuid.UUID, priority int) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	pb, held := s.db.awards[pair{badgeID, profileID}]
	if !held {
		return fmt.Errorf("award: %w", domain.ErrNotFound)
	}
	pb.Priority = priority
	return nil
}

// CountAttendance counts workshops the profile attended.
func (s *BadgeStore) CountAttendance(ctx context.Context, profileID uuid.UUID) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	n := 0
	for _, reg := range s.db.registrations {
		if reg.ProfileID == profileID && reg.Attended() {
			n++
		}
	}
	return n, nil
}
