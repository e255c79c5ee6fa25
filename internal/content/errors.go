package content

import "errors"

var (
	// ErrNotFound is returned when a content ID does not exist.
	ErrNotFound = errors.New("content: not found")

	// ErrInvalidTitle is returned when a title fails validation.
	ErrInvalidTitle = errors.New("content: invalid title")

	// ErrInvalidType is returned when a content type is not recognised.
	ErrInvalidType = errors.New("content: invalid type")

	// ErrInvalidWindow is returned when a date window ends before it starts.
	ErrInvalidWindow = errors.New("content: invalid date window")

	// ErrMasjidRequired is returned when content is created without a
	// masjid association.
	ErrMasjidRequired = errors.New("content: masjid id is required")
)
