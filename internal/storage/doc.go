// Package storage persists the recipe catalog and the audit trail.
//
// Drivers:
//   - memory: process-local, lost on exit (default)
//   - file:   JSON Lines files next to the configured path
//   - sqlite: a SQLite database file (modernc.org/sqlite, pure Go)
package storage
