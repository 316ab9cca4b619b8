// Package domain holds the error taxonomy shared by all feature services.
// Services return these instead of raw booleans so callers (and tests) can
// tell a missing entity from rejected input, while HTTP handlers still
// collapse everything into the same failure envelope.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a uniqueness constraint rejected the write.
	ErrConflict = errors.New("already exists")
	// ErrValidation is the base error for rejected input or state.
	ErrValidation = errors.New("validation failed")
)

// ValidationError carries the reason an operation was rejected. It matches
// ErrValidation under errors.Is.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a ValidationError with a formatted reason.
func Invalid(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
