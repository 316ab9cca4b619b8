package models

import (
	"time"

	"github.com/google/uuid"
)

// Catalog length bounds. Equal today, but question texts and choice labels
// are constrained independently.
const (
	MaxMCQuestion  = 20
	MaxChoiceLabel = 20
)

// MCQuestion is a catalog entry for workshop feedback forms.
type MCQuestion struct {
	ID       uuid.UUID `json:"id"`
	Question string    `json:"question"`
	Choices  []Choice  `json:"choices,omitempty"`
}

// Choice is one selectable answer of an MCQuestion.
type Choice struct {
	ID           uuid.UUID `json:"id"`
	MCQuestionID uuid.UUID `json:"mc_question_id"`
	Label        string    `json:"label"`
}

// Feedback is a post-workshop review: choice selections from the workshop's
// form plus a free-text comment. Unique per (workshop, author).
type Feedback struct {
	ID          uuid.UUID   `json:"id"`
	WorkshopID  uuid.UUID   `json:"workshop_id"`
	AuthorID    *uuid.UUID  `json:"author_id,omitempty"`
	ChoiceIDs   []uuid.UUID `json:"choice_ids"`
	Comment     string      `json:"comment"`
	SubmittedAt time.Time   `json:"submitted_at"`
}
