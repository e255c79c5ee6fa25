package product

import "errors"

var (
	// ErrNotFound is returned when a product ID does not exist.
	ErrNotFound = errors.New("product: not found")

	// ErrInvalidName is returned when a product name fails validation.
	ErrInvalidName = errors.New("product: invalid name")

	// ErrInvalidPrice is returned for negative prices. Zero is allowed
	// for "donor chooses amount" items.
	ErrInvalidPrice = errors.New("product: price cannot be negative")

	// ErrMasjidRequired is returned when a product has no masjid.
	ErrMasjidRequired = errors.New("product: masjid id is required")

	// ErrAssignmentNotFound is returned when a kiosk assignment does
	// not exist.
	ErrAssignmentNotFound = errors.New("product: assignment not found")

	// ErrAlreadyAssigned is returned when a product is assigned to a
	// device it is already on.
	ErrAlreadyAssigned = errors.New("product: already assigned to device")
)
