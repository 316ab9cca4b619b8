package models

import (
	"time"

	"github.com/google/uuid"
)

// Question is a free-text question asked by a present attendee while the
// workshop is running. The author reference is nulled if the profile is
// deleted; the content is retained.
type Question struct {
	ID         uuid.UUID  `json:"id"`
	WorkshopID uuid.UUID  `json:"workshop_id"`
	AuthorID   *uuid.UUID `json:"author_id,omitempty"`
	Body       string     `json:"body"`
	CreatedAt  time.Time  `json:"created_at"`
}
