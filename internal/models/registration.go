package models

import (
	"time"

	"github.com/google/uuid"
)

// RegistrationStatus is the lifecycle state of an attendee registration.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationAccepted RegistrationStatus = "accepted"
	RegistrationRefused  RegistrationStatus = "refused"
	RegistrationCanceled RegistrationStatus = "canceled"
)

// Registration enrolls a profile into a workshop. Unique per
// (workshop, profile); the database constraint is authoritative.
type Registration struct {
	ID           uuid.UUID          `json:"id"`
	WorkshopID   uuid.UUID          `json:"workshop_id"`
	ProfileID    uuid.UUID          `json:"profile_id"`
	Status       RegistrationStatus `json:"status"`
	RegisteredAt time.Time          `json:"registered_at"`
	CanceledAt   *time.Time         `json:"canceled_at,omitempty"`
	Present      bool               `json:"present"`
}

// Attended reports whether this registration counts as attendance.
func (r *Registration) Attended() bool {
	return r.Status == RegistrationAccepted && r.Present
}
