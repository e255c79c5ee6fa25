package device

import (
	"context"
	"time"
)

// Status history source values.
const (
	StatusHistorySourceHeartbeat = "heartbeat"
	StatusHistorySourceReaper    = "reaper"
	StatusHistorySourceMQTT      = "mqtt"
	StatusHistorySourceAdmin     = "admin"
)

// StatusHistoryEntry represents a single device status transition record.
//
// Each entry stores both sides of the transition so the fleet dashboard
// can render uptime timelines without reconstructing state.
type StatusHistoryEntry struct {
	// ID is the auto-incremented primary key for the history row.
	ID int64 `json:"id"`

	// DeviceID is the unique identifier of the device.
	DeviceID string `json:"device_id"`

	// OldStatus is the status before the transition.
	OldStatus Status `json:"old_status"`

	// NewStatus is the status after the transition.
	NewStatus Status `json:"new_status"`

	// Source identifies how the transition was recorded
	// (heartbeat, reaper, mqtt, admin).
	Source string `json:"source"`

	// ChangedAt is the timestamp of the transition (UTC).
	ChangedAt time.Time `json:"changed_at"`
}

// StatusHistoryRepository stores and retrieves device status transitions.
//
// Implementations must be thread-safe and use UTC timestamps.
type StatusHistoryRepository interface {
	// RecordTransition appends a status transition for a device.
	RecordTransition(ctx context.Context, change StatusChange, source string) error

	// GetHistory returns recent transitions for the device, newest
	// first. The limit may be clamped by the implementation.
	GetHistory(ctx context.Context, deviceID string, limit int) ([]StatusHistoryEntry, error)
}
