package recipe

import (
	"context"
	"fmt"
	"strings"
	"sync"

	logx "chefplan/pkg/logx"
)

// Catalog is the ordered, append-only recipe collection. Recipes are
// addressed by their 0-based index. Safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	recipes []Recipe
	backend Backend
	log     logx.Logger
}

// Open loads every recipe from backend. When the backend is empty, seed is
// appended first so a fresh store starts with the seed data.
func Open(ctx context.Context, backend Backend, seed []Recipe, log logx.Logger) (*Catalog, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	existing, err := backend.ListRecipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}

	c := &Catalog{backend: backend, log: log, recipes: existing}
	if len(existing) > 0 {
		log.Info("recipes loaded", logx.Int("count", len(existing)))
		return c, nil
	}

	for _, r := range seed {
		if _, err := c.Append(ctx, r); err != nil {
			return nil, fmt.Errorf("seed %q: %w", r.Name, err)
		}
	}
	log.Info("recipes seeded", logx.Int("count", len(seed)))
	return c, nil
}

// Len returns the number of recipes.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.recipes)
}

// List returns deep copies of all recipes in order.
func (c *Catalog) List(ctx context.Context) []Recipe {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Recipe, len(c.recipes))
	for i, r := range c.recipes {
		out[i] = r.Clone()
	}
	return out
}

// Get returns a deep copy of the recipe at index.
func (c *Catalog) Get(ctx context.Context, index int) (Recipe, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 0 || index >= len(c.recipes) {
		return Recipe{}, fmt.Errorf("%w: index %d", ErrNotFound, index)
	}
	return c.recipes[index].Clone(), nil
}

// Append validates r, persists it and returns its index. An empty name is
// replaced with "Custom Recipe N".
func (c *Catalog) Append(ctx context.Context, r Recipe) (int, error) {
	if err := Validate(r); err != nil {
		return 0, err
	}
	r = r.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.TrimSpace(r.Name) == "" {
		r.Name = fmt.Sprintf("Custom Recipe %d", len(c.recipes))
	}
	if err := c.backend.AppendRecipe(ctx, r); err != nil {
		return 0, fmt.Errorf("persist recipe: %w", err)
	}
	c.recipes = append(c.recipes, r)
	idx := len(c.recipes) - 1
	c.log.Debug("recipe appended", logx.Int("index", idx), logx.String("name", r.Name), logx.Int("steps", len(r.Steps)))
	return idx, nil
}
