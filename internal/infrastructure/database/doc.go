// Package database opens and manages the SQLite store backing the
// service.
//
// The connection runs in WAL mode with a single writer (max one open
// connection), foreign keys enforced, and the database file locked down
// to 0600. Schema changes are applied from embedded migration files,
// each shipped as an .up.sql/.down.sql pair and tracked in a
// schema_migrations table.
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migrations are additive: new columns are nullable or carry defaults,
// and columns are never dropped or renamed once released.
package database
