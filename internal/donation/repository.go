package donation

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repository defines the interface for donation persistence operations.
type Repository interface {
	Create(ctx context.Context, d *Donation) error
	Get(ctx context.Context, id string) (*Donation, error)
	ListByMasjid(ctx context.Context, masjidID string, filter Filter) ([]Donation, error)
	Delete(ctx context.Context, id string) error
	Summarize(ctx context.Context, masjidID string, filter Filter) (*Summary, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed donation repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const donationColumns = `id, masjid_id, donor_name, donor_email, amount_cents,
	currency, category, method, note, received_at, created_at`

// Create inserts a new donation. Defaults: category general, method
// kiosk, currency USD, received_at now. Donations are immutable once
// recorded; there is no Update.
func (r *SQLiteRepository) Create(ctx context.Context, d *Donation) error {
	if err := Validate(d); err != nil {
		return err
	}
	if d.ID == "" {
		d.ID = GenerateID()
	}
	if d.Category == "" {
		d.Category = CategoryGeneral
	}
	if d.Method == "" {
		d.Method = "kiosk"
	}
	if d.Currency == "" {
		d.Currency = "USD"
	}

	now := time.Now().UTC()
	if d.ReceivedAt.IsZero() {
		d.ReceivedAt = now
	}
	d.CreatedAt = now

	query := `INSERT INTO donations (` + donationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.MasjidID, d.DonorName, d.DonorEmail, d.AmountCents,
		d.Currency, string(d.Category), d.Method, d.Note,
		d.ReceivedAt.UTC().Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting donation %s: %w", d.ID, err)
	}
	return nil
}

// Get returns a single donation by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	d, err := scanDonation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying donation by id: %w", err)
	}
	return d, nil
}

// ListByMasjid returns donations for a masjid, most recent first,
// narrowed by the optional filter.
func (r *SQLiteRepository) ListByMasjid(ctx context.Context, masjidID string, filter Filter) ([]Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE masjid_id = ?`
	args := []any{masjidID}
	query, args = applyFilter(query, args, filter)
	query += ` ORDER BY received_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying donations: %w", err)
	}
	defer rows.Close()

	var items []Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning donation row: %w", err)
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating donation rows: %w", err)
	}
	return items, nil
}

// Delete removes a donation by ID. Used for correcting mis-entered
// records; normal flows never delete donations.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM donations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting donation %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Summarize aggregates a masjid's donations in SQL so dashboards avoid
// pulling every row.
func (r *SQLiteRepository) Summarize(ctx context.Context, masjidID string, filter Filter) (*Summary, error) {
	query := `SELECT category, COUNT(*), COALESCE(SUM(amount_cents), 0)
		FROM donations WHERE masjid_id = ?`
	args := []any{masjidID}
	query, args = applyFilter(query, args, filter)
	query += ` GROUP BY category`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("summarizing donations: %w", err)
	}
	defer rows.Close()

	s := &Summary{
		MasjidID:   masjidID,
		ByCategory: make(map[Category]int64),
	}
	if !filter.From.IsZero() {
		from := filter.From.UTC()
		s.From = &from
	}
	if !filter.To.IsZero() {
		to := filter.To.UTC()
		s.To = &to
	}

	for rows.Next() {
		var category string
		var count int
		var total int64
		if err := rows.Scan(&category, &count, &total); err != nil {
			return nil, fmt.Errorf("scanning summary row: %w", err)
		}
		s.ByCategory[Category(category)] = total
		s.TotalCents += total
		s.Count += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating summary rows: %w", err)
	}
	return s, nil
}

// applyFilter appends the optional category and date-range predicates.
func applyFilter(query string, args []any, filter Filter) (string, []any) {
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(filter.Category))
	}
	if !filter.From.IsZero() {
		query += ` AND received_at >= ?`
		args = append(args, filter.From.UTC().Format(time.RFC3339))
	}
	if !filter.To.IsZero() {
		query += ` AND received_at <= ?`
		args = append(args, filter.To.UTC().Format(time.RFC3339))
	}
	return query, args
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDonation scans a row or rows result into a Donation.
func scanDonation(scanner rowScanner) (*Donation, error) {
	var d Donation
	var category, receivedAt, createdAt string

	err := scanner.Scan(&d.ID, &d.MasjidID, &d.DonorName, &d.DonorEmail,
		&d.AmountCents, &d.Currency, &category, &d.Method, &d.Note,
		&receivedAt, &createdAt)
	if err != nil {
		return nil, err
	}

	d.Category = Category(category)

	var parseErr error
	d.ReceivedAt, parseErr = time.Parse(time.RFC3339, receivedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing received_at: %w", parseErr)
	}
	d.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}

	return &d, nil
}
