package scheduling

import "errors"

// Failure kinds surfaced by the scheduling engine. Callers classify with
// errors.Is; the HTTP layer maps each kind to its own status code so that
// "slot just got taken" stays distinguishable from "doctor doesn't work then".
var (
	// ErrInvalidDate means the date is unparseable, in the past, or beyond
	// the booking horizon.
	ErrInvalidDate = errors.New("invalid appointment date")

	// ErrNotAvailable means the doctor's weekly template has no matching
	// window for the requested weekday/time.
	ErrNotAvailable = errors.New("doctor is not available at that time")

	// ErrSlotTaken means another booking won the reservation race. Terminal,
	// never retried; the caller should pick another slot.
	ErrSlotTaken = errors.New("slot is already booked")

	// ErrInvalidAvailability means a weekly template failed validation.
	ErrInvalidAvailability = errors.New("invalid weekly availability")

	// ErrNotAuthorized means the actor may not perform the operation.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrInvalidTransition means the appointment status state machine
	// rejected the transition.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrStorageUnavailable wraps transient storage failures after retries
	// are exhausted. Retryable by the caller.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
