package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxBadgeName bounds badge names.
const MaxBadgeName = 20

// BadgeKind discriminates plain badges from attendance-threshold badges.
// A tagged variant replaces the legacy BadgeAttendance subclass.
type BadgeKind string

const (
	BadgeStandard   BadgeKind = "standard"
	BadgeAttendance BadgeKind = "attendance"
)

// Badge is a gamification credential. AttendanceThreshold is set only for
// the attendance kind: the badge is earned once the profile has attended
// that many workshops.
type Badge struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	ImageKey            string    `json:"image_key,omitempty"`
	Kind                BadgeKind `json:"kind"`
	AttendanceThreshold *int      `json:"attendance_threshold,omitempty"`
}

// ProfileBadge links a badge to a profile with a display priority.
type ProfileBadge struct {
	BadgeID   uuid.UUID `json:"badge_id"`
	ProfileID uuid.UUID `json:"profile_id"`
	Priority  int       `json:"priority"`
	AwardedAt time.Time `json:"awarded_at"`
}
