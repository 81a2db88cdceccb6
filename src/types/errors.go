package types

import "errors"

// Sentinel errors returned by the ticketing engine. Handlers map these to
// HTTP statuses; anything else is treated as an internal failure.
var (
	// ErrCapacityExceeded means the event is sold out. Expected and
	// user-facing, never retried automatically.
	ErrCapacityExceeded = errors.New("no tickets available for this event")

	// ErrInvalidTransition means the ticket is not in the status the
	// requested transition starts from.
	ErrInvalidTransition = errors.New("ticket status does not allow this transition")

	ErrNotFound = errors.New("record not found")

	// ErrNotOwner is returned for organizer-only operations attempted by
	// someone other than the event's organizer.
	ErrNotOwner = errors.New("not the owner of this event")

	// ErrEventCancelled rejects reservations against a cancelled event.
	ErrEventCancelled = errors.New("event has been cancelled")

	// ErrPaymentFailed triggers release of the reservation; user may retry.
	ErrPaymentFailed = errors.New("payment could not be verified")

	// ErrEventNotStarted rejects admission scans before the event date
	// while the early-admission policy is off.
	ErrEventNotStarted = errors.New("event has not started yet")
)
