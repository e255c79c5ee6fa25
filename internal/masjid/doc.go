// Package masjid provides the tenant model for Mizan Core.
//
// A masjid is the root of ownership: devices, content, donations,
// events and users all carry a masjid ID. The package provides a
// Repository interface with a SQLite implementation.
//
// # Thread Safety
//
// SQLiteRepository is safe for concurrent use from multiple goroutines
// (SQLite WAL mode + connection pooling).
package masjid
