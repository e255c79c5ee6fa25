package donation

import "errors"

var (
	// ErrNotFound is returned when a donation ID does not exist.
	ErrNotFound = errors.New("donation: not found")

	// ErrInvalidAmount is returned for zero or negative amounts.
	ErrInvalidAmount = errors.New("donation: amount must be positive")

	// ErrInvalidCategory is returned for an unrecognised category.
	ErrInvalidCategory = errors.New("donation: invalid category")

	// ErrMasjidRequired is returned when a donation has no masjid.
	ErrMasjidRequired = errors.New("donation: masjid id is required")
)
