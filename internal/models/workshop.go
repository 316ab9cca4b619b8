package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Field length bounds shared with the database schema.
const (
	MaxWorkshopTitle    = 20
	MaxWorkshopLocation = 20
)

// WorkshopStatus is the lifecycle state of a workshop submission.
type WorkshopStatus string

const (
	WorkshopPending  WorkshopStatus = "pending"
	WorkshopAccepted WorkshopStatus = "accepted"
	WorkshopRefused  WorkshopStatus = "refused"
	WorkshopDone     WorkshopStatus = "done"
	WorkshopCanceled WorkshopStatus = "canceled"
)

// RegistrationPolicy controls how attendee registrations are accepted.
type RegistrationPolicy string

const (
	// PolicyFIFO auto-accepts registrations while seats remain.
	PolicyFIFO RegistrationPolicy = "fifo"
	// PolicyManual leaves registrations pending until the animator decides.
	PolicyManual RegistrationPolicy = "manual"
)

// Workshop is a community session submitted by an organizer, moderated into
// Accepted or Refused, and eventually Done or Canceled.
type Workshop struct {
	ID                uuid.UUID          `json:"id"`
	AnimatorID        *uuid.UUID         `json:"animator_id,omitempty"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	RequiredMaterials string             `json:"required_materials"`
	Objectives        string             `json:"objectives"`
	Requirements      string             `json:"requirements"`
	Seats             int                `json:"seats"`
	SubmittedAt       time.Time          `json:"submitted_at"`
	DecidedAt         *time.Time         `json:"decided_at,omitempty"`
	StartsAt          time.Time          `json:"starts_at"`
	Duration          time.Duration      `json:"duration_seconds"`
	Policy            RegistrationPolicy `json:"policy"`
	Location          string             `json:"location"`
	CoverKey          string             `json:"cover_key,omitempty"`
	Status            WorkshopStatus     `json:"status"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// EndsAt returns the instant the workshop stops running.
func (w *Workshop) EndsAt() time.Time {
	return w.StartsAt.Add(w.Duration)
}

// InProgress reports whether now falls inside [StartsAt, StartsAt+Duration).
func (w *Workshop) InProgress(now time.Time) bool {
	return !now.Before(w.StartsAt) && now.Before(w.EndsAt())
}

// DaysLeft returns whole days between now and the start date, flooring so
// any time past the start already counts as a full day behind. Negative once
// the start date has passed.
func (w *Workshop) DaysLeft(now time.Time) int {
	return int(math.Floor(w.StartsAt.Sub(now).Hours() / 24))
}
