package services

import "errors"

// Sentinel errors for the approval workflow. Handlers translate these to
// HTTP statuses; everything else that bubbles up is a 500.
var (
	ErrValidation = errors.New("invalid input")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrNotReady   = errors.New("not ready")

	// ErrInsufficientParticipants: a derangement needs at least two people.
	ErrInsufficientParticipants = errors.New("at least two participants required")
)
