package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/openclass/backend/internal/domain"
	"github.com/openclass/backend/internal/models"
)

// RegistrationStore implements the registrations store interface in memory.
type RegistrationStore struct {
	db *DB
}

// Create inserts a registration, enforcing (workshop, profile) uniqueness.
func (s *RegistrationStore) Create(ctx context.Context, reg *models.Registration) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := pair{reg.WorkshopID, reg.ProfileID}
	if _, exists := s.db.regByPair[key]; exists {
		return fmt.Errorf("profile already registered to workshop: %w", domain.ErrConflict)
	}
	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
	}
	copied := *reg
	s.db.registrations[reg.ID] = &copied
	s.db.regByPair[key] = reg.ID
	return nil
}

// GetByID returns a copy of the registration.
func (s *RegistrationStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	reg, ok := s.db.registrations[id]
	if !ok {
		return nil, fmt.Errorf("registration: %w", domain.ErrNotFound)
	}
	copied := *reg
	return &copied, nil
}

// GetByWorkshopAndProfile returns the registration for the pair.
func (s *RegistrationStore) GetByWorkshopAndProfile(ctx context.Context, workshopID, profileID uuid.UUID) (*models.Registration, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	id, ok := s.db.regByPair[pair{workshopID, profileID}]
	if !ok {
		return nil, fmt.Errorf("registration: %w", domain.ErrNotFound)
	}
	copied := *s.db.registrations[id]
	return &copied, nil
}

// Update replaces the stored registration.
func (s *RegistrationStore) Update(ctx context.Context, reg *models.Registration) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.registrations[reg.ID]; !ok {
		return fmt.Errorf("registration %s: %w", reg.ID, domain.ErrNotFound)
	}
	copied := *reg
	s.db.registrations[reg.ID] = &copied
	return nil
}

// ListByWorkshop returns the workshop's registrations, oldest first.
func (s *RegistrationStore) ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]models.Registration, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var list []models.Registration
	for _, reg := range s.db.registrations {
		if reg.WorkshopID == workshopID {
			list = append(list, *reg)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].RegisteredAt.Before(list[j].RegisteredAt) })
	return list, nil
}

// ListByProfile returns the profile's registrations, newest first.
func (s *RegistrationStore) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]models.Registration, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var list []models.Registration
	for _, reg := range s.db.registrations {
		if reg.ProfileID == profileID {
			list = append(list, *reg)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].RegisteredAt.After(list[j].RegisteredAt) })
	return list, nil
}

// CountAccepted counts accepted registrations for a workshop.
func (s *RegistrationStore) CountAccepted(ctx context.Context, workshopID uuid.UUID) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	n := 0
	for _, reg := range s.db.registrations {
		if reg.WorkshopID == workshopID && reg.Status == models.RegistrationAccepted {
			n++
		}
	}
	return n, nil
}
