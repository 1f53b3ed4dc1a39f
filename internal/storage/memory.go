package storage

import (
	"context"
	"sync"
	"time"

	"chefplan/internal/recipe"
)

type memoryStore struct {
	mu      sync.Mutex
	recipes []recipe.Recipe
	audit   []AuditEntry
	closed  bool
}

// NewMemory returns an empty in-process store.
func NewMemory() Store {
	return &memoryStore{}
}

func (s *memoryStore) AppendRecipe(_ context.Context, r recipe.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.recipes = append(s.recipes, r.Clone())
	return nil
}

func (s *memoryStore) ListRecipes(context.Context) ([]recipe.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]recipe.Recipe, len(s.recipes))
	for i, r := range s.recipes {
		out[i] = r.Clone()
	}
	return out, nil
}

func (s *memoryStore) CountRecipes(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	return len(s.recipes), nil
}

func (s *memoryStore) AppendAudit(_ context.Context, e AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	s.audit = append(s.audit, e)
	return nil
}

func (s *memoryStore) PruneAudit(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	kept := s.audit[:0]
	for _, e := range s.audit {
		if !e.At.Before(before) {
			kept = append(kept, e)
		}
	}
	n := len(s.audit) - len(kept)
	s.audit = kept
	return n, nil
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
