package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"chefplan/internal/recipe"
	logx "chefplan/pkg/logx"
)

// fileStore keeps everything in append-only JSON Lines files:
//
//   - <prefix>.recipes.jsonl (one recipe per line, in catalog order)
//   - <prefix>.audit.jsonl   (one AuditEntry per line)
//
// Recipes are cached in memory after the initial replay. Audit pruning
// rewrites the audit file through a temp file and rename.
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	recipesFile *os.File
	recipes     []recipe.Recipe

	auditPath string
	auditFile *os.File

	rename func(oldpath, newpath string) error
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	recipesPath := prefix + ".recipes.jsonl"
	auditPath := prefix + ".audit.jsonl"

	recipes, err := replayRecipes(recipesPath, log)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("replay %s: %w", recipesPath, err)
	}

	rf, err := os.OpenFile(recipesPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	af, err := os.OpenFile(auditPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		_ = rf.Close()
		return nil, err
	}

	log.Debug("file storage opened", logx.String("prefix", prefix), logx.Int("recipes", len(recipes)))
	return &fileStore{
		log:         log,
		recipesFile: rf,
		recipes:     recipes,
		auditPath:   auditPath,
		auditFile:   af,
		rename:      os.Rename,
	}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err1, err2 error
	if s.recipesFile != nil {
		err1 = s.recipesFile.Close()
		s.recipesFile = nil
	}
	if s.auditFile != nil {
		err2 = s.auditFile.Close()
		s.auditFile = nil
	}
	if err1 != nil {
		return err1
	}
	return err2
}

func (s *fileStore) AppendRecipe(_ context.Context, r recipe.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recipesFile == nil {
		return ErrClosed
	}
	r = r.Clone()
	if err := json.NewEncoder(s.recipesFile).Encode(r); err != nil {
		return err
	}
	s.recipes = append(s.recipes, r)
	return nil
}

func (s *fileStore) ListRecipes(context.Context) ([]recipe.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recipesFile == nil {
		return nil, ErrClosed
	}
	out := make([]recipe.Recipe, len(s.recipes))
	for i, r := range s.recipes {
		out[i] = r.Clone()
	}
	return out, nil
}

func (s *fileStore) CountRecipes(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recipesFile == nil {
		return 0, ErrClosed
	}
	return len(s.recipes), nil
}

func (s *fileStore) AppendAudit(_ context.Context, e AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auditFile == nil {
		return ErrClosed
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	return json.NewEncoder(s.auditFile).Encode(e)
}

func (s *fileStore) PruneAudit(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auditFile == nil {
		return 0, ErrClosed
	}

	in, err := os.Open(s.auditPath)
	if err != nil {
		return 0, err
	}
	tmp := s.auditPath + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		_ = in.Close()
		return 0, err
	}

	removed := 0
	w := bufio.NewWriter(out)
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var e AuditEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err == nil && e.At.Before(before) {
			removed++
			continue
		}
		_, _ = w.Write(sc.Bytes())
		_ = w.WriteByte('\n')
	}
	_ = in.Close()
	if err := sc.Err(); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return 0, err
	}
	if err := w.Flush(); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return 0, err
	}
	if err := out.Close(); err != nil {
		return 0, err
	}
	if removed == 0 {
		_ = os.Remove(tmp)
		return 0, nil
	}

	// The old handle stays in place until the pruned file is open, so a
	// failed swap leaves appends working.
	if err := s.rename(tmp, s.auditPath); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("prune audit: %w", err)
	}
	af, err := os.OpenFile(s.auditPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		s.log.Warn("audit reopen failed; appends go to the pre-prune file", logx.Err(err))
		return removed, fmt.Errorf("prune audit: reopen: %w", err)
	}
	_ = s.auditFile.Close()
	s.auditFile = af
	return removed, nil
}

func replayRecipes(path string, log logx.Logger) ([]recipe.Recipe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []recipe.Recipe
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
	line := 0
	for sc.Scan() {
		line++
		if len(strings.TrimSpace(sc.Text())) == 0 {
			continue
		}
		var r recipe.Recipe
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			// A torn last write must not hide every earlier recipe.
			log.Warn("skipping unreadable recipe line", logx.Int("line", line), logx.Err(err))
			continue
		}
		out = append(out, r)
	}
	return out, sc.Err()
}
