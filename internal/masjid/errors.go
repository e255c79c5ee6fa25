package masjid

import "errors"

var (
	// ErrNotFound is returned when a masjid ID does not exist.
	ErrNotFound = errors.New("masjid: not found")

	// ErrInvalidName is returned when a masjid name fails validation.
	ErrInvalidName = errors.New("masjid: invalid name")

	// ErrInvalidSlug is returned when a slug format is invalid.
	ErrInvalidSlug = errors.New("masjid: invalid slug")

	// ErrSlugTaken is returned when another masjid already uses the slug.
	ErrSlugTaken = errors.New("masjid: slug already in use")

	// ErrInvalidTimezone is returned when a timezone string is not a
	// valid IANA zone name.
	ErrInvalidTimezone = errors.New("masjid: invalid timezone")
)
