package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for content persistence operations.
type Repository interface {
	Create(ctx context.Context, c *Content) error
	Get(ctx context.Context, id string) (*Content, error)
	ListByMasjid(ctx context.Context, masjidID string) ([]Content, error)
	Update(ctx context.Context, c *Content) error
	Delete(ctx context.Context, id string) error

	// ListForRotation returns visible content for a masjid restricted
	// to the given types, newest first, capped at limit. Visibility
	// means active and inside the optional date window at now.
	ListForRotation(ctx context.Context, masjidID string, types []Type, now time.Time, limit int) ([]Content, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed content repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const contentColumns = `id, masjid_id, title, type, data, active,
	start_date, end_date, created_at, updated_at`

// Create inserts a new content record. A prefixed short ID is generated
// when none is supplied. New content starts active.
func (r *SQLiteRepository) Create(ctx context.Context, c *Content) error {
	if err := Validate(c); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = GenerateID()
	}
	if c.Data == nil {
		c.Data = map[string]any{}
	}
	c.Active = true

	dataJSON, err := json.Marshal(c.Data)
	if err != nil {
		return fmt.Errorf("marshalling data: %w", err)
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	query := `INSERT INTO content (` + contentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		c.ID, c.MasjidID, c.Title, string(c.Type), string(dataJSON),
		boolToInt(c.Active),
		nullableTime(c.StartDate), nullableTime(c.EndDate),
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting content %s: %w", c.ID, err)
	}
	return nil
}

// Get returns a single content record by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Content, error) {
	query := `SELECT ` + contentColumns + ` FROM content WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	c, err := scanContent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying content by id: %w", err)
	}
	return c, nil
}

// ListByMasjid returns all content for a masjid, newest first.
func (r *SQLiteRepository) ListByMasjid(ctx context.Context, masjidID string) ([]Content, error) {
	query := `SELECT ` + contentColumns + ` FROM content
		WHERE masjid_id = ?
		ORDER BY created_at DESC, id`
	return r.queryContent(ctx, query, masjidID)
}

// ListForRotation returns visible content for automatic slide rotation.
//
// The date-window check happens in SQL so the limit applies after
// filtering; a pile of expired announcements must not crowd out live
// content.
func (r *SQLiteRepository) ListForRotation(ctx context.Context, masjidID string, types []Type, now time.Time, limit int) ([]Content, error) {
	if len(types) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	placeholders := strings.Repeat("?,", len(types))
	placeholders = placeholders[:len(placeholders)-1]

	nowStr := now.UTC().Format(time.RFC3339)
	query := `SELECT ` + contentColumns + ` FROM content
		WHERE masjid_id = ?
		  AND active = 1
		  AND type IN (` + placeholders + `)
		  AND (start_date IS NULL OR start_date <= ?)
		  AND (end_date IS NULL OR end_date >= ?)
		ORDER BY created_at DESC, id
		LIMIT ?`

	args := make([]any, 0, len(types)+4)
	args = append(args, masjidID)
	for _, t := range types {
		args = append(args, string(t))
	}
	args = append(args, nowStr, nowStr, limit)

	return r.queryContent(ctx, query, args...)
}

// Update updates an existing content record.
func (r *SQLiteRepository) Update(ctx context.Context, c *Content) error {
	if err := Validate(c); err != nil {
		return err
	}

	dataJSON, err := json.Marshal(c.Data)
	if err != nil {
		return fmt.Errorf("marshalling data: %w", err)
	}

	c.UpdatedAt = time.Now().UTC()

	const query = `UPDATE content SET title = ?, type = ?, data = ?,
		active = ?, start_date = ?, end_date = ?, updated_at = ?
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		c.Title, string(c.Type), string(dataJSON), boolToInt(c.Active),
		nullableTime(c.StartDate), nullableTime(c.EndDate),
		c.UpdatedAt.Format(time.RFC3339), c.ID)
	if err != nil {
		return fmt.Errorf("updating content %s: %w", c.ID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a content record by ID. Devices pinned to it fall back
// to rotation via the FK's ON DELETE SET NULL.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM content WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting content %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// queryContent executes a query and returns a slice of content records.
func (r *SQLiteRepository) queryContent(ctx context.Context, query string, args ...any) ([]Content, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying content: %w", err)
	}
	defer rows.Close()

	var items []Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning content row: %w", err)
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating content rows: %w", err)
	}
	return items, nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanContent scans a row or rows result into a Content.
func scanContent(scanner rowScanner) (*Content, error) {
	var c Content
	var contentType, dataJSON string
	var active int
	var startDate, endDate sql.NullString
	var createdAt, updatedAt string

	err := scanner.Scan(&c.ID, &c.MasjidID, &c.Title, &contentType,
		&dataJSON, &active, &startDate, &endDate, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	c.Type = Type(contentType)
	c.Active = active != 0

	if err := json.Unmarshal([]byte(dataJSON), &c.Data); err != nil {
		return nil, fmt.Errorf("unmarshalling data: %w", err)
	}

	if startDate.Valid {
		t, err := time.Parse(time.RFC3339, startDate.String)
		if err == nil {
			c.StartDate = &t
		}
	}
	if endDate.Valid {
		t, err := time.Parse(time.RFC3339, endDate.String)
		if err == nil {
			c.EndDate = &t
		}
	}

	var parseErr error
	c.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	c.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}

	return &c, nil
}

// nullableTime returns a sql.NullString for optional time pointers (as RFC3339 strings).
func nullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

// boolToInt converts a boolean to 0/1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
