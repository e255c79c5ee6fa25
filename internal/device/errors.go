package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device ID does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrInvalidDevice is returned when device validation fails.
	ErrInvalidDevice = errors.New("device: invalid")

	// ErrInvalidStatus is returned when a status value is outside the
	// enumerated set. The stored status is never modified in that case.
	ErrInvalidStatus = errors.New("device: invalid status")

	// ErrInvalidName is returned when a device name is too long.
	ErrInvalidName = errors.New("device: invalid name")

	// ErrInvalidConfig is returned when display config validation fails.
	ErrInvalidConfig = errors.New("device: invalid config")

	// ErrMasjidRequired is returned when a device is registered without
	// a masjid association.
	ErrMasjidRequired = errors.New("device: masjid id is required")
)
