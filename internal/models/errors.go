package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrSiteNotFound       = errors.New("site not found")
	ErrInvalidReference   = errors.New("invalid reference")
	ErrInUse              = errors.New("in use")
	ErrInvalidReplacement = errors.New("invalid replacement")
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrValidation         = errors.New("validation failed")
)

// InUseError blocks a deletion and carries the usage that blocked it.
type InUseError struct {
	Target string
	ID     uint
	Usage  Usage
}

func (e *InUseError) Error() string {
	parts := make([]string, 0, len(e.Usage))
	for _, r := range e.Usage.Roles() {
		parts = append(parts, fmt.Sprintf("%s=%d", r, e.Usage[r]))
	}
	return fmt.Sprintf("%s %d is in use (%s)", e.Target, e.ID, strings.Join(parts, ", "))
}

func (e *InUseError) Is(target error) bool { return target == ErrInUse }

// ValidationError points at one offending input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ReferenceError reports a foreign id that is missing or belongs to another site.
type ReferenceError struct {
	Field string
	ID    uint
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("invalid reference: %s=%d", e.Field, e.ID)
}

func (e *ReferenceError) Is(target error) bool { return target == ErrInvalidReference }

// ReplacementError explains why a reassign target was rejected.
type ReplacementError struct {
	ID     uint
	Reason string
}

func (e *ReplacementError) Error() string {
	return fmt.Sprintf("invalid replacement %d: %s", e.ID, e.Reason)
}

func (e *ReplacementError) Is(target error) bool { return target == ErrInvalidReplacement }

func Invalid(field, reason string) error { return &ValidationError{Field: field, Reason: reason} }
