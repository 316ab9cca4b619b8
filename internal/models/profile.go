package models

import (
	"time"

	"github.com/google/uuid"
)

// Gender of a profile.
type Gender string

const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderUnspecified Gender = "unspecified"
)

// Profile extends a User identity with community attributes. It is created
// unverified at signup and stays that way until the emailed token is used.
type Profile struct {
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	Gender            Gender     `json:"gender"`
	Score             int        `json:"score"`
	PhoneNumber       string     `json:"phone_number"`
	Birthday          *time.Time `json:"birthday,omitempty"`
	VerificationToken string     `json:"-"`
	Verified          bool       `json:"verified"`
	PhotoKey          string     `json:"photo_key,omitempty"`
	EnrolledAt        time.Time  `json:"enrolled_at"`
}

// Preference holds per-profile settings, one row per profile.
type Preference struct {
	ProfileID       uuid.UUID `json:"profile_id"`
	Confidentiality int       `json:"confidentiality"`
}

// Age computes full years between the birthday and now, decrementing by one
// when this year's birthday has not happened yet.
func (p *Profile) Age(now time.Time) (int, bool) {
	if p.Birthday == nil {
		return 0, false
	}
	b := *p.Birthday
	age := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}
	return age, true
}
