package domain

import (
	"errors"
	"fmt"
)

// Error classes. Every operation failure in the core belongs to exactly one
// of these; handlers map them to HTTP statuses with errors.Is.
var (
	// ErrValidation marks malformed or missing input. User-correctable.
	ErrValidation = errors.New("validation error")
	// ErrInvalidState marks an operation illegal for the current loan
	// status. Surfaced to the caller, not retried.
	ErrInvalidState = errors.New("invalid state")
	// ErrNotFound marks an absent loan, member or record.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a lost conditional-update race. The caller should
	// re-fetch current state and decide, not blindly retry.
	ErrConflict = errors.New("conflict")
)

// Status / saving-type parse errors. Both are validation errors: an unknown
// string is rejected at the boundary, never silently defaulted.
var (
	ErrUnknownStatus     = fmt.Errorf("unknown loan status: %w", ErrValidation)
	ErrUnknownSavingType = fmt.Errorf("unknown saving type: %w", ErrValidation)
)
