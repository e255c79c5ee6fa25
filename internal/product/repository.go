package product

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for product and kiosk assignment
// persistence operations.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	Get(ctx context.Context, id string) (*Product, error)
	ListByMasjid(ctx context.Context, masjidID string) ([]Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error

	// Assign offers a product on a kiosk device, appended at the end
	// of the current ordering.
	Assign(ctx context.Context, deviceID, productID string) (*KioskAssignment, error)
	Unassign(ctx context.Context, deviceID, productID string) error

	// ListForDevice returns the active products offered on a device in
	// display order.
	ListForDevice(ctx context.Context, deviceID string) ([]Product, error)

	// Reorder rewrites a device's sort order to match productIDs. IDs
	// not assigned to the device are ignored.
	Reorder(ctx context.Context, deviceID string, productIDs []string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed product repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const productColumns = `id, masjid_id, name, description, price_cents,
	currency, sku, active, created_at, updated_at`

// Create inserts a new product. New products start active with USD as
// the default currency.
func (r *SQLiteRepository) Create(ctx context.Context, p *Product) error {
	if err := Validate(p); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = GenerateID()
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
	p.Active = true

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `INSERT INTO products (` + productColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.MasjidID, p.Name, p.Description, p.PriceCents,
		p.Currency, p.SKU, boolToInt(p.Active),
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting product %s: %w", p.ID, err)
	}
	return nil
}

// Get returns a single product by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	p, err := scanProduct(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying product by id: %w", err)
	}
	return p, nil
}

// ListByMasjid returns all products for a masjid, alphabetically.
func (r *SQLiteRepository) ListByMasjid(ctx context.Context, masjidID string) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
		WHERE masjid_id = ?
		ORDER BY name, id`
	return r.queryProducts(ctx, query, masjidID)
}

// Update updates an existing product.
func (r *SQLiteRepository) Update(ctx context.Context, p *Product) error {
	if err := Validate(p); err != nil {
		return err
	}

	p.UpdatedAt = time.Now().UTC()

	const query = `UPDATE products SET name = ?, description = ?,
		price_cents = ?, currency = ?, sku = ?, active = ?, updated_at = ?
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		p.Name, p.Description, p.PriceCents, p.Currency, p.SKU,
		boolToInt(p.Active), p.UpdatedAt.Format(time.RFC3339), p.ID)
	if err != nil {
		return fmt.Errorf("updating product %s: %w", p.ID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a product. Kiosk assignments pointing at it go with it
// via the FK cascade.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting product %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Assign offers a product on a device. The new assignment lands after
// the device's current last position.
func (r *SQLiteRepository) Assign(ctx context.Context, deviceID, productID string) (*KioskAssignment, error) {
	a := &KioskAssignment{
		ID:         GenerateAssignmentID(),
		DeviceID:   deviceID,
		ProductID:  productID,
		AssignedAt: time.Now().UTC(),
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning assign transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	row := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sort_order), -1) + 1 FROM kiosk_assignments WHERE device_id = ?`,
		deviceID)
	if err := row.Scan(&a.SortOrder); err != nil {
		return nil, fmt.Errorf("computing sort order: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO kiosk_assignments (id, device_id, product_id, sort_order, assigned_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, deviceID, productID, a.SortOrder, a.AssignedAt.Format(time.RFC3339))
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrAlreadyAssigned
		}
		return nil, fmt.Errorf("inserting assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing assign transaction: %w", err)
	}
	return a, nil
}

// Unassign removes a product from a device's kiosk offering.
func (r *SQLiteRepository) Unassign(ctx context.Context, deviceID, productID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM kiosk_assignments WHERE device_id = ? AND product_id = ?`,
		deviceID, productID)
	if err != nil {
		return fmt.Errorf("deleting assignment: %w", err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

// ListForDevice returns the active products a kiosk offers, in display
// order. Inactive products stay assigned but are hidden.
func (r *SQLiteRepository) ListForDevice(ctx context.Context, deviceID string) ([]Product, error) {
	query := `SELECT p.id, p.masjid_id, p.name, p.description, p.price_cents,
			p.currency, p.sku, p.active, p.created_at, p.updated_at
		FROM kiosk_assignments ka
		JOIN products p ON p.id = ka.product_id
		WHERE ka.device_id = ? AND p.active = 1
		ORDER BY ka.sort_order, ka.id`
	return r.queryProducts(ctx, query, deviceID)
}

// Reorder rewrites the device's sort order in a single transaction so a
// concurrent read never observes a half-applied ordering.
func (r *SQLiteRepository) Reorder(ctx context.Context, deviceID string, productIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning reorder transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	for i, productID := range productIDs {
		_, err := tx.ExecContext(ctx,
			`UPDATE kiosk_assignments SET sort_order = ? WHERE device_id = ? AND product_id = ?`,
			i, deviceID, productID)
		if err != nil {
			return fmt.Errorf("reordering product %s: %w", productID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reorder transaction: %w", err)
	}
	return nil
}

// queryProducts executes a query and returns a slice of products.
func (r *SQLiteRepository) queryProducts(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var items []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}
	return items, nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanProduct scans a row or rows result into a Product.
func scanProduct(scanner rowScanner) (*Product, error) {
	var p Product
	var active int
	var createdAt, updatedAt string

	err := scanner.Scan(&p.ID, &p.MasjidID, &p.Name, &p.Description,
		&p.PriceCents, &p.Currency, &p.SKU, &active, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	p.Active = active != 0

	var parseErr error
	p.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	p.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}

	return &p, nil
}

// isUniqueConstraintError reports whether the error is a SQLite unique
// constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}

// boolToInt converts a boolean to 0/1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
