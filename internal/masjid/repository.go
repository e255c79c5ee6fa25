package masjid

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for masjid persistence operations.
type Repository interface {
	Create(ctx context.Context, m *Masjid) error
	Get(ctx context.Context, id string) (*Masjid, error)
	GetBySlug(ctx context.Context, slug string) (*Masjid, error)
	List(ctx context.Context) ([]Masjid, error)
	Update(ctx context.Context, m *Masjid) error
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed masjid repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const masjidColumns = `id, name, slug, address, city, country, timezone,
	contact_email, website, latitude, longitude, active, created_at, updated_at`

// Create inserts a new masjid. A prefixed short ID and a slug are
// generated when none are supplied. New masjids start active.
func (r *SQLiteRepository) Create(ctx context.Context, m *Masjid) error {
	if m.Slug == "" {
		m.Slug = GenerateSlug(m.Name)
	}
	if err := Validate(m); err != nil {
		return err
	}
	if m.ID == "" {
		m.ID = "msj-" + uuid.NewString()[:8]
	}
	if m.Timezone == "" {
		m.Timezone = "UTC"
	}
	m.Active = true

	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	query := `INSERT INTO masjids (` + masjidColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.Name, m.Slug, m.Address, m.City, m.Country, m.Timezone,
		m.ContactEmail, m.Website,
		nullFloat(m.Latitude), nullFloat(m.Longitude), boolToInt(m.Active),
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("inserting masjid %s: %w", m.ID, err)
	}
	return nil
}

// Get returns a single masjid by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Masjid, error) {
	query := `SELECT ` + masjidColumns + ` FROM masjids WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return scanMasjid(row)
}

// GetBySlug returns a single masjid by its URL-safe slug.
func (r *SQLiteRepository) GetBySlug(ctx context.Context, slug string) (*Masjid, error) {
	query := `SELECT ` + masjidColumns + ` FROM masjids WHERE slug = ?`
	row := r.db.QueryRowContext(ctx, query, slug)
	return scanMasjid(row)
}

// List returns all masjids ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Masjid, error) {
	query := `SELECT ` + masjidColumns + ` FROM masjids ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying masjids: %w", err)
	}
	defer rows.Close()

	var masjids []Masjid
	for rows.Next() {
		m, err := scanMasjidRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning masjid row: %w", err)
		}
		masjids = append(masjids, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating masjid rows: %w", err)
	}
	return masjids, nil
}

// Update updates an existing masjid record.
func (r *SQLiteRepository) Update(ctx context.Context, m *Masjid) error {
	if err := Validate(m); err != nil {
		return err
	}

	const query = `UPDATE masjids SET name = ?, slug = ?, address = ?,
		city = ?, country = ?, timezone = ?, contact_email = ?,
		website = ?, latitude = ?, longitude = ?, active = ?,
		updated_at = ?
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		m.Name, m.Slug, m.Address, m.City, m.Country, m.Timezone,
		m.ContactEmail, m.Website,
		nullFloat(m.Latitude), nullFloat(m.Longitude), boolToInt(m.Active),
		time.Now().UTC().Format(time.RFC3339), m.ID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("updating masjid %s: %w", m.ID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a masjid by ID. Devices, content, donations and events
// owned by the masjid are removed by FK cascade.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM masjids WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting masjid %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanMasjid scans a single row into a Masjid (for QueryRow).
func scanMasjid(row *sql.Row) (*Masjid, error) {
	var m Masjid
	var lat, lon sql.NullFloat64
	var active int
	var createdAt, updatedAt string

	err := row.Scan(&m.ID, &m.Name, &m.Slug, &m.Address, &m.City, &m.Country,
		&m.Timezone, &m.ContactEmail, &m.Website, &lat, &lon, &active,
		&createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning masjid: %w", err)
	}
	applyNullables(&m, lat, lon)
	m.Active = active != 0
	m.CreatedAt = parseTime(createdAt)
	m.UpdatedAt = parseTime(updatedAt)
	return &m, nil
}

// scanMasjidRow scans a masjid from a Rows cursor.
func scanMasjidRow(rows *sql.Rows) (*Masjid, error) {
	var m Masjid
	var lat, lon sql.NullFloat64
	var active int
	var createdAt, updatedAt string

	err := rows.Scan(&m.ID, &m.Name, &m.Slug, &m.Address, &m.City, &m.Country,
		&m.Timezone, &m.ContactEmail, &m.Website, &lat, &lon, &active,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("scanning masjid row: %w", err)
	}
	applyNullables(&m, lat, lon)
	m.Active = active != 0
	m.CreatedAt = parseTime(createdAt)
	m.UpdatedAt = parseTime(updatedAt)
	return &m, nil
}

// applyNullables copies nullable columns onto the struct.
func applyNullables(m *Masjid, lat, lon sql.NullFloat64) {
	if lat.Valid {
		m.Latitude = &lat.Float64
	}
	if lon.Valid {
		m.Longitude = &lon.Float64
	}
}

// nullFloat converts a *float64 to sql.NullFloat64 for nullable columns.
func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// boolToInt converts a boolean to 0/1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}

// parseTime parses an RFC3339 timestamp from SQLite.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
