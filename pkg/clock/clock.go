// Package clock provides an injectable time source so every lifecycle
// precondition can be exercised deterministically in tests.
package clock

import "time"

// Clock supplies the current time. All returned times carry location info.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

// Now returns the current UTC time.
func (System) Now() time.Time { return time.Now().UTC() }

// Fixed is a clock pinned to a single instant, for tests.
type Fixed struct {
	T time.Time
}

// Now returns the pinned instant.
func (f Fixed) Now() time.Time { return f.T }

// FixedAt returns a Fixed clock pinned to t.
func FixedAt(t time.Time) Fixed { return Fixed{T: t} }
