// Package memstore is an in-memory implementation of the feature store
// interfaces. The service test suites run against it with a pinned clock
// so lifecycle rules can be exercised without PostgreSQL.
package memstore

import (
	"sync"

	"github.com/google/uuid"

	"github.com/openclass/backend/internal/models"
)

type pair struct {
	a, b uuid.UUID
}

// DB holds every table behind one lock. Accessor methods hand out typed
// views implementing the per-feature store interfaces.
type DB struct {
	mu sync.RWMutex

	users    map[uuid.UUID]*models.User
	profiles map[uuid.UUID]*models.Profile
	prefs    map[uuid.UUID]*models.Preference

	tags      map[uuid.UUID]models.Tag
	interests map[uuid.UUID][]uuid.UUID // profile -> tags

	workshops map[uuid.UUID]*models.Workshop
	topics    map[uuid.UUID][]uuid.UUID // workshop -> tags

	registrations map[uuid.UUID]*models.Registration
	regByPair     map[pair]uuid.UUID // (workshop, profile) -> registration

	questions []models.Question

	mcQuestions map[uuid.UUID]*models.MCQuestion
	choices     map[uuid.UUID]*models.Choice
	forms       map[uuid.UUID][]uuid.UUID // workshop -> mc questions
	feedback    []models.Feedback
	feedbackBy  map[pair]bool // (workshop, author)

	badges map[uuid.UUID]*models.Badge
	awards map[pair]*models.ProfileBadge // (badge, profile)
}

// New creates an empty in-memory database.
func New() *DB {
	return &DB{
		users:         make(map[uuid.UUID]*models.User),
		profiles:      make(map[uuid.UUID]*models.Profile),
		prefs:         make(map[uuid.UUID]*models.Preference),
		tags:          make(map[uuid.UUID]models.Tag),
		interests:     make(map[uuid.UUID][]uuid.UUID),
		workshops:     make(map[uuid.UUID]*models.Workshop),
		topics:        make(map[uuid.UUID][]uuid.UUID),
		registrations: make(map[uuid.UUID]*models.Registration),
		regByPair:     make(map[pair]uuid.UUID),
		mcQuestions:   make(map[uuid.UUID]*models.MCQuestion),
		choices:       make(map[uuid.UUID]*models.Choice),
		forms:         make(map[uuid.UUID][]uuid.UUID),
		feedbackBy:    make(map[pair]bool),
		badges:        make(map[uuid.UUID]*models.Badge),
		awards:        make(map[pair]*models.ProfileBadge),
	}
}

// Workshops returns the workshop store view.
func (db *DB) Workshops() *WorkshopStore { return &WorkshopStore{db: db} }

// Registrations returns the registration store view.
func (db *DB) Registrations() *RegistrationStore { return &RegistrationStore{db: db} }

// Questions returns the question store view.
func (db *DB) Questions() *QuestionStore { return &QuestionStore{db: db} }

// Feedback returns the feedback store view.
func (db *DB) Feedback() *FeedbackStore { return &FeedbackStore{db: db} }

// Profiles returns the profile store view.
func (db *DB) Profiles() *ProfileStore { return &ProfileStore{db: db} }

// Badges returns the badge store view.
func (db *DB) Badges() *BadgeStore { return &BadgeStore{db: db} }

// SeedTag inserts a tag directly, for test fixtures.
func (db *DB) SeedTag(name string) models.Tag {
	db.mu.Lock()
	defer db.mu.Unlock()
	t := models.Tag{ID: uuid.New(), Name: name}
	db.tags[t.ID] = t
	return t
}

// SeedProfile inserts a user and profile directly, for test fixtures.
func (db *DB) SeedProfile(email string) *models.Profile {
	db.mu.Lock()
	defer db.mu.Unlock()
	u := &models.User{ID: uuid.New(), Email: email, Role: models.RoleMember}
	db.users[u.ID] = u
	p := &models.Profile{ID: uuid.New(), UserID: u.ID, Gender: models.GenderUnspecified}
	db.profiles[p.ID] = p
	copied := *p
	return &copied
}
