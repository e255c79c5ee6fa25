package device

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// SQLiteStatusHistoryRepository implements StatusHistoryRepository
// using the device_status_history table.
type SQLiteStatusHistoryRepository struct {
	db *sql.DB
}

// NewSQLiteStatusHistoryRepository creates a new SQLite status history repository.
func NewSQLiteStatusHistoryRepository(db *sql.DB) *SQLiteStatusHistoryRepository {
	return &SQLiteStatusHistoryRepository{db: db}
}

// RecordTransition appends a status transition for a device.
func (r *SQLiteStatusHistoryRepository) RecordTransition(ctx context.Context, change StatusChange, source string) error {
	if change.DeviceID == "" {
		return fmt.Errorf("device id is required")
	}
	if source == "" {
		source = StatusHistorySourceHeartbeat
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO device_status_history (device_id, old_status, new_status, source, changed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		change.DeviceID,
		string(change.OldStatus),
		string(change.NewStatus),
		source,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting status history: %w", err)
	}

	return nil
}

// GetHistory returns recent status transitions for a device, ordered
// newest first. The limit defaults to 50 and is clamped at 200.
func (r *SQLiteStatusHistoryRepository) GetHistory(ctx context.Context, deviceID string, limit int) ([]StatusHistoryEntry, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("device id is required")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, device_id, old_status, new_status, source, changed_at
		 FROM device_status_history
		 WHERE device_id = ?
		 ORDER BY changed_at DESC, id DESC
		 LIMIT ?`,
		deviceID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying status history: %w", err)
	}
	defer rows.Close()

	entries := make([]StatusHistoryEntry, 0, limit)
	for rows.Next() {
		var entry StatusHistoryEntry
		var oldStatus, newStatus string
		var changedAt string

		if err := rows.Scan(&entry.ID, &entry.DeviceID, &oldStatus, &newStatus, &entry.Source, &changedAt); err != nil {
			return nil, fmt.Errorf("scanning status history: %w", err)
		}
		entry.OldStatus = Status(oldStatus)
		entry.NewStatus = Status(newStatus)

		timestamp, err := parseHistoryTimestamp(changedAt)
		if err != nil {
			return nil, err
		}
		entry.ChangedAt = timestamp

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating status history: %w", err)
	}

	return entries, nil
}

// PruneHistory deletes history entries older than the given duration.
// Returns the number of rows deleted.
func (r *SQLiteStatusHistoryRepository) PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM device_status_history WHERE changed_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting status history: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	return rowsAffected, nil
}

// parseHistoryTimestamp parses a timestamp stored in SQLite.
func parseHistoryTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("changed_at is empty")
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return timestamp, nil
	}

	fallback, fallbackErr := time.Parse("2006-01-02T15:04:05Z", value)
	if fallbackErr == nil {
		return fallback, nil
	}

	return time.Time{}, fmt.Errorf("parsing changed_at: %w", err)
}
