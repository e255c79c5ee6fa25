package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// openTestDB opens a database in a per-test temporary directory.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "mizan-test.db")
	db, err := Open(Config{
		Path:        dbPath,
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return db
}

func TestOpenCreatesFileAndDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "data", "nested", "mizan.db")

	db, err := Open(Config{Path: dbPath, WALMode: true, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // test cleanup

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
	if db.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", db.Path(), dbPath)
	}
}

func TestOpenEnforcesForeignKeys(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // test cleanup

	ctx := context.Background()
	mustExec := func(query string, args ...any) {
		t.Helper()
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			t.Fatalf("exec %q: %v", query, err)
		}
	}

	mustExec("CREATE TABLE parents (id TEXT PRIMARY KEY)")
	mustExec(`CREATE TABLE children (
		id TEXT PRIMARY KEY,
		parent_id TEXT NOT NULL REFERENCES parents(id) ON DELETE CASCADE
	)`)
	mustExec("INSERT INTO parents (id) VALUES ('p1')")
	mustExec("INSERT INTO children (id, parent_id) VALUES ('c1', 'p1')")

	// Orphan insert must be rejected, not silently accepted.
	if _, err := db.ExecContext(ctx,
		"INSERT INTO children (id, parent_id) VALUES ('c2', 'no-such-parent')"); err == nil {
		t.Error("insert with dangling foreign key should fail")
	}

	// Deleting the parent must cascade.
	mustExec("DELETE FROM parents WHERE id = 'p1'")
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM children").Scan(&count); err != nil {
		t.Fatalf("counting children: %v", err)
	}
	if count != 0 {
		t.Errorf("children after parent delete = %d, want 0 (cascade)", count)
	}
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestCloseIsSafeOnNil(t *testing.T) {
	db := openTestDB(t)
	if err := db.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	db.DB = nil
	if err := db.Close(); err != nil {
		t.Errorf("Close() on nil DB error = %v", err)
	}
}

func TestTransactionCommitAndRollback(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // test cleanup

	ctx := context.Background()
	if _, err := db.ExecContext(ctx,
		"CREATE TABLE tx_test (id INTEGER PRIMARY KEY, value TEXT)"); err != nil {
		t.Fatalf("CREATE TABLE error = %v", err)
	}

	// Committed write survives.
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx() error = %v", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO tx_test (value) VALUES ('kept')"); err != nil {
		t.Fatalf("INSERT error = %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	// Rolled-back write does not.
	tx, err = db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx() error = %v", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO tx_test (value) VALUES ('discarded')"); err != nil {
		t.Fatalf("INSERT error = %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}

	var kept, discarded int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tx_test WHERE value = 'kept'").Scan(&kept); err != nil {
		t.Fatalf("SELECT error = %v", err)
	}
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tx_test WHERE value = 'discarded'").Scan(&discarded); err != nil {
		t.Fatalf("SELECT error = %v", err)
	}
	if kept != 1 || discarded != 0 {
		t.Errorf("kept = %d, discarded = %d; want 1 and 0", kept, discarded)
	}
}

func TestStatsSingleWriter(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // test cleanup

	if got := db.Stats().MaxOpenConnections; got != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1", got)
	}
}
