// Package sqlite implements the job store on SQLite: it serves the equipment
// list and the per-equipment deficiency fetch of a job, and persists the
// generated notes.
package sqlite

import "strings"

// Config holds SQLite store configuration.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:notes.db?_pragma=foreign_keys(1)"
	//   "notes.db"
	//   ":memory:" (single connection, gone when the store is closed)
	DSN string
}

// dsn returns the DSN with foreign keys enabled. The pragma is applied by the
// driver on every pooled connection.
func (c Config) dsn() string {
	dsn := strings.TrimSpace(c.DSN)
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// inMemory reports whether the DSN names a private in-memory database, which
// only lives as long as its one connection.
func (c Config) inMemory() bool {
	dsn := strings.TrimSpace(c.DSN)
	return dsn == ":memory:" || strings.HasPrefix(dsn, "file::memory:")
}
