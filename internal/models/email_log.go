package models

import (
	"time"

	"github.com/google/uuid"
)

// Email delivery status.
const (
	EmailLogStatusPending = "pending"
	EmailLogStatusSent    = "sent"
	EmailLogStatusFailed  = "failed"
)

// EmailLog records notification deliveries (verification, acceptance,
// refusal, feedback request).
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	WorkshopID     *uuid.UUID `json:"workshop_id,omitempty"`
	ProfileID      *uuid.UUID `json:"profile_id,omitempty"`
	EmailType      string     `json:"email_type"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
