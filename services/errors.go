package services

import "errors"

// Expected, recoverable conditions surfaced to callers. Controllers map
// each one to a distinct HTTP response so the UI can tell "ride full" from
// "ride already started". None of these leaves partial state behind.
var (
	ErrRideNotFound       = errors.New("ride not found")
	ErrInvalidRideState   = errors.New("operation not allowed in current ride status")
	ErrInvalidTransition  = errors.New("illegal ride status transition")
	ErrForbidden          = errors.New("only the host may perform this action")
	ErrRideFull           = errors.New("ride is full")
	ErrAlreadyJoined      = errors.New("already part of this ride")
	ErrNotAParticipant    = errors.New("not a confirmed participant of this ride")
	ErrHostCannotLeave    = errors.New("host cannot leave their own ride")
	ErrInvalidCoordinates = errors.New("coordinates out of range")

	// ErrBusy means the per-ride critical section could not be entered
	// within the configured wait. Callers should retry with backoff.
	ErrBusy = errors.New("ride is busy, retry")
)
