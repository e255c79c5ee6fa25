package influxdb

import "errors"

// Sentinel errors, matched with errors.Is.
var (
	// ErrDisabled is returned by Connect when the influxdb config
	// section is switched off. Callers treat it as "skip telemetry",
	// not as a failure.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrNotConnected means the client has been closed or never
	// connected.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed wraps a failed initial connection attempt.
	ErrConnectionFailed = errors.New("influxdb: connection failed")
)
