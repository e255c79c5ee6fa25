package event

import "errors"

var (
	// ErrNotFound is returned when an event ID does not exist.
	ErrNotFound = errors.New("event: not found")

	// ErrInvalidTitle is returned when a title fails validation.
	ErrInvalidTitle = errors.New("event: invalid title")

	// ErrInvalidTimes is returned when an event ends before it starts
	// or is missing its start time.
	ErrInvalidTimes = errors.New("event: invalid times")

	// ErrInvalidRecurrence is returned for an unrecognised recurrence.
	ErrInvalidRecurrence = errors.New("event: invalid recurrence")

	// ErrMasjidRequired is returned when an event has no masjid.
	ErrMasjidRequired = errors.New("event: masjid id is required")
)
