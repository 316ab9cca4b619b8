package models

import "github.com/google/uuid"

// MaxTagName bounds tag names.
const MaxTagName = 20

// Tag labels workshops (topics) and profiles (interests).
type Tag struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
