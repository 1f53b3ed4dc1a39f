package storage

import (
	"errors"
	"time"
)

// ErrClosed is returned by every method called after Close.
var ErrClosed = errors.New("storage closed")

// Config configures storage.
//
// Driver values:
//   - "" or "memory": in-process store
//   - "file": <prefix>.recipes.jsonl + <prefix>.audit.jsonl
//   - "sqlite": SQLite database file
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// AuditEntry records one domain action (a recipe added, a schedule served).
// Keep it compact and schema-stable.
type AuditEntry struct {
	At          time.Time `json:"at"`
	Action      string    `json:"action"`
	RecipeIndex int       `json:"recipe_index"`
	RecipeName  string    `json:"recipe_name,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	Optimal     int       `json:"optimal,omitempty"`
	Normal      int       `json:"normal,omitempty"`
	Error       string    `json:"error,omitempty"`
}
