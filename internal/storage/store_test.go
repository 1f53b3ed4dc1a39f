package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chefplan/internal/recipe"
	"chefplan/internal/schedule"
	logx "chefplan/pkg/logx"
)

func openDrivers(t *testing.T) map[string]func() Store {
	t.Helper()
	dir := t.TempDir()
	open := func(cfg Config) func() Store {
		return func() Store {
			st, err := Open(cfg, logx.Nop())
			if err != nil {
				t.Fatalf("open %s: %v", cfg.Driver, err)
			}
			return st
		}
	}
	return map[string]func() Store{
		"memory": open(Config{Driver: "memory"}),
		"file":   open(Config{Driver: "file", Path: filepath.Join(dir, "file", "chefplan.db")}),
		"sqlite": open(Config{Driver: "sqlite", Path: filepath.Join(dir, "sqlite", "chefplan.db"), BusyTimeout: time.Second}),
	}
}

func sampleRecipe(name string) recipe.Recipe {
	return recipe.Recipe{
		Name: name,
		Steps: []schedule.Step{
			{ID: 1, Task: "Heat the pan", Time: 5, Prerequisites: []int{}, OccupiesChef: false},
			{ID: 2, Task: "Fry", Time: 3, Prerequisites: []int{1}, OccupiesChef: true},
		},
	}
}

func TestStoreRecipesRoundTripInOrder(t *testing.T) {
	for name, open := range openDrivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := open()
			defer st.Close()

			for _, n := range []string{"a", "b", "c"} {
				if err := st.AppendRecipe(ctx, sampleRecipe(n)); err != nil {
					t.Fatalf("append %s: %v", n, err)
				}
			}
			got, err := st.ListRecipes(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != 3 || got[0].Name != "a" || got[2].Name != "c" {
				t.Fatalf("unexpected recipes: %+v", got)
			}
			if p := got[1].Steps[1].Prerequisites; len(p) != 1 || p[0] != 1 {
				t.Fatalf("prerequisites lost: %v", p)
			}
			if !got[1].Steps[1].OccupiesChef {
				t.Fatalf("occupies_chef lost")
			}
			n, err := st.CountRecipes(ctx)
			if err != nil || n != 3 {
				t.Fatalf("count = %d, %v", n, err)
			}
		})
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	for _, driver := range []string{"file", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			cfg := Config{Driver: driver, Path: filepath.Join(dir, driver, "data.db")}

			st, err := Open(cfg, logx.Nop())
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			if err := st.AppendRecipe(ctx, sampleRecipe("kept")); err != nil {
				t.Fatalf("append: %v", err)
			}
			if err := st.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}

			st, err = Open(cfg, logx.Nop())
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			defer st.Close()
			got, err := st.ListRecipes(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != 1 || got[0].Name != "kept" || len(got[0].Steps) != 2 {
				t.Fatalf("unexpected recipes after reopen: %+v", got)
			}
		})
	}
}

func TestStorePruneAudit(t *testing.T) {
	for name, open := range openDrivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := open()
			defer st.Close()

			now := time.Now()
			entries := []AuditEntry{
				{At: now.Add(-48 * time.Hour), Action: "recipe.added", RecipeName: "old"},
				{At: now.Add(-25 * time.Hour), Action: "schedule.computed", Optimal: 104, Normal: 121},
				{At: now.Add(-time.Hour), Action: "schedule.computed", RequestID: "r1"},
			}
			for _, e := range entries {
				if err := st.AppendAudit(ctx, e); err != nil {
					t.Fatalf("append audit: %v", err)
				}
			}

			n, err := st.PruneAudit(ctx, now.Add(-24*time.Hour))
			if err != nil {
				t.Fatalf("prune: %v", err)
			}
			if n != 2 {
				t.Fatalf("pruned %d, want 2", n)
			}
			n, err = st.PruneAudit(ctx, now.Add(-24*time.Hour))
			if err != nil || n != 0 {
				t.Fatalf("second prune = %d, %v", n, err)
			}
			// The store must keep accepting appends after a prune.
			if err := st.AppendAudit(ctx, AuditEntry{Action: "recipe.added"}); err != nil {
				t.Fatalf("append after prune: %v", err)
			}
		})
	}
}

func TestFilePruneSwapFailureKeepsAppending(t *testing.T) {
	ctx := context.Background()
	prefix := filepath.Join(t.TempDir(), "chefplan")
	st, err := Open(Config{Driver: "file", Path: prefix}, logx.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()
	fs := st.(*fileStore)
	fs.rename = func(string, string) error { return errors.New("device busy") }

	now := time.Now()
	if err := st.AppendAudit(ctx, AuditEntry{At: now.Add(-48 * time.Hour), Action: "recipe.added"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := st.PruneAudit(ctx, now.Add(-24*time.Hour)); err == nil {
		t.Fatalf("prune should report the failed swap")
	}
	if err := st.AppendAudit(ctx, AuditEntry{At: now, Action: "schedule.computed"}); err != nil {
		t.Fatalf("append after failed prune: %v", err)
	}
	if _, err := os.Stat(prefix + ".audit.jsonl.tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("temp file left behind: %v", err)
	}

	fs.rename = os.Rename
	n, err := st.PruneAudit(ctx, now.Add(-24*time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("retry prune = %d, %v; want 1", n, err)
	}
	b, err := os.ReadFile(prefix + ".audit.jsonl")
	if err != nil {
		t.Fatalf("read audit: %v", err)
	}
	if got := strings.Count(string(b), "\n"); got != 1 {
		t.Fatalf("audit lines = %d, want 1", got)
	}
}

func TestStoreClosed(t *testing.T) {
	for name, open := range openDrivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := open()
			if err := st.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}
			if err := st.AppendRecipe(ctx, sampleRecipe("x")); !errors.Is(err, ErrClosed) {
				t.Fatalf("append after close = %v, want ErrClosed", err)
			}
			if _, err := st.ListRecipes(ctx); !errors.Is(err, ErrClosed) {
				t.Fatalf("list after close = %v, want ErrClosed", err)
			}
			if _, err := st.PruneAudit(ctx, time.Now()); !errors.Is(err, ErrClosed) {
				t.Fatalf("prune after close = %v, want ErrClosed", err)
			}
		})
	}
}

func TestOpenRejectsBadConfig(t *testing.T) {
	t.Parallel()
	for _, cfg := range []Config{
		{Driver: "postgres"},
		{Driver: "file"},
		{Driver: "sqlite"},
	} {
		if _, err := Open(cfg, logx.Logger{}); err == nil {
			t.Fatalf("Open(%+v) succeeded, want error", cfg)
		}
	}
}

func TestCatalogOverStore(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	c, err := recipe.Open(ctx, st, recipe.Builtin(), logx.Nop())
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	if _, err := c.Append(ctx, sampleRecipe("")); err != nil {
		t.Fatalf("append: %v", err)
	}
	n, _ := st.CountRecipes(ctx)
	if n != 5 {
		t.Fatalf("store has %d recipes, want 5", n)
	}
	got, _ := c.Get(ctx, 4)
	if got.Name != "Custom Recipe 4" {
		t.Fatalf("name = %q", got.Name)
	}
}
