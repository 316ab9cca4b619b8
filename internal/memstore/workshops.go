package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/openclass/backend/internal/domain"
	"github.com/openclass/backend/internal/models"
	"github.com/openclass/backend/internal/workshops"
)

// WorkshopStore implements the workshops store interface in memory.
type WorkshopStore struct {
	db *DB
}

// Create inserts a workshop and stamps ID and timestamps.
func (s *WorkshopStore) Create(ctx context.Context, w *models.Workshop) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now
	copied := *w
	s.db.workshops[w.ID] = &copied
	return nil
}

// GetByID returns a copy of the workshop.
func (s *WorkshopStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Workshop, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	w, ok := s.db.workshops[id]
	if !ok {
		return nil, fmt.Errorf("workshop %s: %w", id, domain.ErrNotFound)
	}
	copied := *w
	return &copied, nil
}

// Update replaces the stored workshop.
func (s *WorkshopStore) Update(ctx context.Context, w *models.Workshop) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.workshops[w.ID]; !ok {
		return fmt.Errorf("workshop %s: %w", w.ID, domain.ErrNotFound)
	}
	w.UpdatedAt = time.Now().UTC()
	copied := *w
	s.db.workshops[w.ID] = &copied
	return nil
}

// List returns workshops matching the filter, ordered by start date.
func (s *WorkshopStore) List(ctx context.Context, f workshops.Filter) ([]models.Workshop, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var list []models.Workshop
	for _, w := range s.db.workshops {
		if f.Status != "" && w.Status != f.Status {
			continue
		}
		if f.AnimatorID != nil && (w.AnimatorID == nil || *w.AnimatorID != *f.AnimatorID) {
			continue
		}
		if f.After != nil && !w.StartsAt.After(*f.After) {
			continue
		}
		if f.TagID != nil && !containsID(s.db.topics[w.ID], *f.TagID) {
			continue
		}
		list = append(list, *w)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].StartsAt.Before(list[j].StartsAt) })
	return list, nil
}

// HasRegistration reports whether the profile registered to the workshop.
func (s *WorkshopStore) HasRegistration(ctx context.Context, workshopID, profileID uuid.UUID) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	_, ok := s.db.regByPair[pair{workshopID, profileID}]
	return ok, nil
}

// SetTopics replaces the workshop's topic tags.
func (s *WorkshopStore) SetTopics(ctx context.Context, workshopID uuid.UUID, tagIDs []uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.workshops[workshopID]; !ok {
		return fmt.Errorf("workshop %s: %w", workshopID, domain.ErrNotFound)
	}
	s.db.topics[workshopID] = append([]uuid.UUID(nil), tagIDs...)
	return nil
}

// ListTopics returns the workshop's topic tags.
func (s *WorkshopStore) ListTopics(ctx context.Context, workshopID uuid.UUID) ([]models.Tag, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var tags []models.Tag
	for _, id := range s.db.topics[workshopID] {
		if t, ok := s.db.tags[id]; ok {
			tags = append(tags, t)
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

// ListRecipients returns accepted registrants' delivery addresses.
func (s *WorkshopStore) ListRecipients(ctx context.Context, workshopID uuid.UUID, presentOnly bool) ([]workshops.Recipient, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var out []workshops.Recipient
	for _, reg := range s.db.registrations {
		if reg.WorkshopID != workshopID || reg.Status != models.RegistrationAccepted {
			continue
		}
		if presentOnly && !reg.Present {
			continue
		}
		email := ""
		if p, ok := s.db.profiles[reg.ProfileID]; ok {
			if u, ok := s.db.users[p.UserID]; ok {
				email = u.Email
			}
		}
		out = append(out, workshops.Recipient{ProfileID: reg.ProfileID, Email: email})
	}
	return out, nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
