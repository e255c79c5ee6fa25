package event

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repository defines the interface for event persistence operations.
type Repository interface {
	Create(ctx context.Context, e *Event) error
	Get(ctx context.Context, id string) (*Event, error)
	ListByMasjid(ctx context.Context, masjidID string) ([]Event, error)

	// ListUpcoming returns events that have not yet ended at now,
	// soonest first, capped at limit.
	ListUpcoming(ctx context.Context, masjidID string, now time.Time, limit int) ([]Event, error)

	Update(ctx context.Context, e *Event) error
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed event repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const eventColumns = `id, masjid_id, title, description, location,
	starts_at, ends_at, all_day, recurrence, created_at, updated_at`

// Create inserts a new event. An event with no end time ends when it
// starts; all-day events should span the full local day.
func (r *SQLiteRepository) Create(ctx context.Context, e *Event) error {
	if err := Validate(e); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = GenerateID()
	}
	if e.EndsAt.IsZero() {
		e.EndsAt = e.StartsAt
	}

	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	query := `INSERT INTO events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.MasjidID, e.Title, e.Description, e.Location,
		e.StartsAt.UTC().Format(time.RFC3339), e.EndsAt.UTC().Format(time.RFC3339),
		boolToInt(e.AllDay), string(e.Recurrence),
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting event %s: %w", e.ID, err)
	}
	return nil
}

// Get returns a single event by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	e, err := scanEvent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying event by id: %w", err)
	}
	return e, nil
}

// ListByMasjid returns all events for a masjid in chronological order.
func (r *SQLiteRepository) ListByMasjid(ctx context.Context, masjidID string) ([]Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events
		WHERE masjid_id = ?
		ORDER BY starts_at, id`
	return r.queryEvents(ctx, query, masjidID)
}

// ListUpcoming returns events still in progress or yet to start,
// soonest first.
func (r *SQLiteRepository) ListUpcoming(ctx context.Context, masjidID string, now time.Time, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + eventColumns + ` FROM events
		WHERE masjid_id = ? AND ends_at >= ?
		ORDER BY starts_at, id
		LIMIT ?`
	return r.queryEvents(ctx, query, masjidID, now.UTC().Format(time.RFC3339), limit)
}

// Update updates an existing event.
func (r *SQLiteRepository) Update(ctx context.Context, e *Event) error {
	if err := Validate(e); err != nil {
		return err
	}
	if e.EndsAt.IsZero() {
		e.EndsAt = e.StartsAt
	}

	e.UpdatedAt = time.Now().UTC()

	const query = `UPDATE events SET title = ?, description = ?, location = ?,
		starts_at = ?, ends_at = ?, all_day = ?, recurrence = ?, updated_at = ?
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		e.Title, e.Description, e.Location,
		e.StartsAt.UTC().Format(time.RFC3339), e.EndsAt.UTC().Format(time.RFC3339),
		boolToInt(e.AllDay), string(e.Recurrence),
		e.UpdatedAt.Format(time.RFC3339), e.ID)
	if err != nil {
		return fmt.Errorf("updating event %s: %w", e.ID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an event by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting event %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// queryEvents executes a query and returns a slice of events.
func (r *SQLiteRepository) queryEvents(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var items []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating event rows: %w", err)
	}
	return items, nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEvent scans a row or rows result into an Event.
func scanEvent(scanner rowScanner) (*Event, error) {
	var e Event
	var allDay int
	var recurrence, startsAt, endsAt, createdAt, updatedAt string

	err := scanner.Scan(&e.ID, &e.MasjidID, &e.Title, &e.Description,
		&e.Location, &startsAt, &endsAt, &allDay, &recurrence,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	e.AllDay = allDay != 0
	e.Recurrence = Recurrence(recurrence)

	for _, f := range []struct {
		dst  *time.Time
		src  string
		name string
	}{
		{&e.StartsAt, startsAt, "starts_at"},
		{&e.EndsAt, endsAt, "ends_at"},
		{&e.CreatedAt, createdAt, "created_at"},
		{&e.UpdatedAt, updatedAt, "updated_at"},
	} {
		t, err := time.Parse(time.RFC3339, f.src)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f.name, err)
		}
		*f.dst = t
	}

	return &e, nil
}

// boolToInt converts a boolean to 0/1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
