package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"chefplan/internal/recipe"
	logx "chefplan/pkg/logx"
)

// Store is the persistence API used by the recipe catalog and the app.
// It satisfies recipe.Backend.
type Store interface {
	AppendRecipe(ctx context.Context, r recipe.Recipe) error
	ListRecipes(ctx context.Context) ([]recipe.Recipe, error)
	CountRecipes(ctx context.Context) (int, error)

	AppendAudit(ctx context.Context, e AuditEntry) error
	// PruneAudit deletes audit entries older than before and returns how
	// many were removed.
	PruneAudit(ctx context.Context, before time.Time) (int, error)

	Close() error
}

var _ recipe.Backend = Store(nil)

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "memory":
		return NewMemory(), nil
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
