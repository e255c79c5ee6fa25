package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// HeartbeatUpdate carries the fields a device reports in a status POST.
type HeartbeatUpdate struct {
	Status             Status  `json:"status"`
	NetworkStatus      string  `json:"network_status,omitempty"`
	DisplayedContentID *string `json:"displayed_content_id,omitempty"`
}

// StatusChange describes a persisted status transition. Returned by
// UpdateStatus and ReapOffline so callers can record history and
// broadcast to the masjid room.
type StatusChange struct {
	DeviceID  string `json:"device_id"`
	MasjidID  string `json:"masjid_id"`
	OldStatus Status `json:"old_status"`
	NewStatus Status `json:"new_status"`
}

// Repository defines the interface for device persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// Register upserts a device by ID. An existing device keeps its
	// registered_at, config and assigned content; metadata and masjid
	// association are overwritten and status is forced online.
	// A missing ID is generated. Never creates a second row for the
	// same ID.
	Register(ctx context.Context, d *Device) error

	// GetByID retrieves a device by its unique identifier.
	// Returns ErrDeviceNotFound if the device does not exist.
	GetByID(ctx context.Context, id string) (*Device, error)

	// List retrieves all devices.
	List(ctx context.Context) ([]Device, error)

	// ListByMasjid retrieves all devices belonging to a masjid.
	ListByMasjid(ctx context.Context, masjidID string) ([]Device, error)

	// UpdateStatus applies a heartbeat. The status must be in the
	// enumerated set or ErrInvalidStatus is returned with the stored
	// row untouched. Refreshes last_seen.
	UpdateStatus(ctx context.Context, id string, hb HeartbeatUpdate) (*StatusChange, error)

	// UpdateConfig replaces the stored display config.
	UpdateConfig(ctx context.Context, id string, cfg DisplayConfig) error

	// SetAssignedContent pins (or with nil unpins) content to a device.
	SetAssignedContent(ctx context.Context, id string, contentID *string) error

	// ReapOffline transitions every online device whose last_seen is
	// older than cutoff to offline in a single statement. Returns one
	// StatusChange per reaped device. Idempotent.
	ReapOffline(ctx context.Context, cutoff time.Time) ([]StatusChange, error)

	// Delete removes a device by ID.
	// Returns ErrDeviceNotFound if the device does not exist.
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const deviceColumns = `id, masjid_id, name, location, platform, model,
	os_version, app_version, installed_app_id, status, network_status,
	config, assigned_content_id, displayed_content_id,
	last_seen, registered_at, updated_at`

// Register upserts a device by ID.
func (r *SQLiteRepository) Register(ctx context.Context, d *Device) error {
	if d.ID == "" {
		d.ID = GenerateID()
	}
	d.Status = StatusOnline
	if err := ValidateDevice(d); err != nil {
		return err
	}

	configJSON, err := json.Marshal(d.Config)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	now := time.Now().UTC()
	d.LastSeen = now
	d.UpdatedAt = now

	// The conflict branch deliberately leaves registered_at, config and
	// assigned_content_id alone. Re-registration is a metadata refresh,
	// not a factory reset.
	query := `
		INSERT INTO devices (` + deviceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			masjid_id = excluded.masjid_id,
			name = excluded.name,
			location = excluded.location,
			platform = excluded.platform,
			model = excluded.model,
			os_version = excluded.os_version,
			app_version = excluded.app_version,
			installed_app_id = excluded.installed_app_id,
			status = excluded.status,
			network_status = excluded.network_status,
			last_seen = excluded.last_seen,
			updated_at = excluded.updated_at`

	_, err = r.db.ExecContext(ctx, query,
		d.ID, d.MasjidID, d.Name, d.Location,
		d.Platform, d.Model, d.OSVersion, d.AppVersion, d.InstalledAppID,
		string(d.Status), d.NetworkStatus,
		string(configJSON),
		nullableString(d.AssignedContentID),
		nullableString(d.DisplayedContentID),
		now.Format(time.RFC3339), now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("registering device %s: %w", d.ID, err)
	}

	// Load the authoritative row so the caller sees the preserved
	// registered_at and config on re-registration.
	stored, err := r.GetByID(ctx, d.ID)
	if err != nil {
		return err
	}
	*d = *stored
	return nil
}

// GetByID retrieves a device by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	d, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by id: %w", err)
	}
	return d, nil
}

// List retrieves all devices.
func (r *SQLiteRepository) List(ctx context.Context) ([]Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices ORDER BY name, id`
	return r.queryDevices(ctx, query)
}

// ListByMasjid retrieves all devices belonging to a masjid.
func (r *SQLiteRepository) ListByMasjid(ctx context.Context, masjidID string) ([]Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE masjid_id = ? ORDER BY name, id`
	return r.queryDevices(ctx, query, masjidID)
}

// UpdateStatus applies a heartbeat to a device.
func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id string, hb HeartbeatUpdate) (*StatusChange, error) {
	if err := ValidateStatus(hb.Status); err != nil {
		return nil, err
	}

	var masjidID string
	var oldStatus string
	err := r.db.QueryRowContext(ctx,
		"SELECT masjid_id, status FROM devices WHERE id = ?", id,
	).Scan(&masjidID, &oldStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device status: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	query := `
		UPDATE devices
		SET status = ?, network_status = ?, displayed_content_id = ?,
		    last_seen = ?, updated_at = ?
		WHERE id = ?`
	_, err = r.db.ExecContext(ctx, query,
		string(hb.Status), hb.NetworkStatus,
		nullableString(hb.DisplayedContentID),
		now, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating device status: %w", err)
	}

	return &StatusChange{
		DeviceID:  id,
		MasjidID:  masjidID,
		OldStatus: Status(oldStatus),
		NewStatus: hb.Status,
	}, nil
}

// UpdateConfig replaces the stored display config.
func (r *SQLiteRepository) UpdateConfig(ctx context.Context, id string, cfg DisplayConfig) error {
	if err := ValidateConfig(cfg); err != nil {
		return err
	}

	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE devices SET config = ?, updated_at = ? WHERE id = ?",
		string(configJSON), time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("updating device config: %w", err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// SetAssignedContent pins (or with nil unpins) content to a device.
func (r *SQLiteRepository) SetAssignedContent(ctx context.Context, id string, contentID *string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE devices SET assigned_content_id = ?, updated_at = ? WHERE id = ?",
		nullableString(contentID), time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("assigning content to device %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// ReapOffline transitions stale online devices to offline.
//
// The SELECT and UPDATE share one transaction and one predicate so the
// returned changes exactly match the rows flipped. Devices already
// offline (or seen since the cutoff) are never touched, which makes
// repeated invocations idempotent.
func (r *SQLiteRepository) ReapOffline(ctx context.Context, cutoff time.Time) ([]StatusChange, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning reap transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	cutoffStr := cutoff.UTC().Format(time.RFC3339)

	rows, err := tx.QueryContext(ctx,
		"SELECT id, masjid_id FROM devices WHERE status = ? AND last_seen < ?",
		string(StatusOnline), cutoffStr,
	)
	if err != nil {
		return nil, fmt.Errorf("querying stale devices: %w", err)
	}

	var changes []StatusChange
	for rows.Next() {
		var c StatusChange
		if err := rows.Scan(&c.DeviceID, &c.MasjidID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning stale device: %w", err)
		}
		c.OldStatus = StatusOnline
		c.NewStatus = StatusOffline
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating stale devices: %w", err)
	}
	rows.Close()

	if len(changes) == 0 {
		return nil, nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx,
		"UPDATE devices SET status = ?, updated_at = ? WHERE status = ? AND last_seen < ?",
		string(StatusOffline), now, string(StatusOnline), cutoffStr,
	)
	if err != nil {
		return nil, fmt.Errorf("reaping stale devices: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing reap transaction: %w", err)
	}
	return changes, nil
}

// Delete removes a device by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM devices WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// queryDevices executes a query and returns a slice of devices.
func (r *SQLiteRepository) queryDevices(ctx context.Context, query string, args ...any) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDeviceFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}

	return devices, nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDevice scans a single row into a Device.
func scanDevice(row *sql.Row) (*Device, error) {
	return scanDeviceRow(row)
}

// scanDeviceFromRows scans a rows result into a Device.
func scanDeviceFromRows(rows *sql.Rows) (*Device, error) {
	return scanDeviceRow(rows)
}

// scanDeviceRow scans a row or rows result into a Device.
func scanDeviceRow(scanner rowScanner) (*Device, error) {
	var d Device
	var status string
	var configJSON string
	var assignedContentID, displayedContentID sql.NullString
	var lastSeen, registeredAt, updatedAt string

	err := scanner.Scan(
		&d.ID,
		&d.MasjidID,
		&d.Name,
		&d.Location,
		&d.Platform,
		&d.Model,
		&d.OSVersion,
		&d.AppVersion,
		&d.InstalledAppID,
		&status,
		&d.NetworkStatus,
		&configJSON,
		&assignedContentID,
		&displayedContentID,
		&lastSeen,
		&registeredAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.Status = Status(status)
	if assignedContentID.Valid {
		d.AssignedContentID = &assignedContentID.String
	}
	if displayedContentID.Valid {
		d.DisplayedContentID = &displayedContentID.String
	}

	if err := json.Unmarshal([]byte(configJSON), &d.Config); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	var parseErr error
	d.LastSeen, parseErr = time.Parse(time.RFC3339, lastSeen)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing last_seen: %w", parseErr)
	}
	d.RegisteredAt, parseErr = time.Parse(time.RFC3339, registeredAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing registered_at: %w", parseErr)
	}
	d.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}

	return &d, nil
}

// nullableString returns a sql.NullString for optional string pointers.
func nullableString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
