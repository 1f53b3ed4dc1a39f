// Package maintenance runs periodic housekeeping on a cron schedule. Today
// that is pruning old audit entries.
package maintenance

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "chefplan/pkg/logx"
)

// Pruner deletes audit entries older than before.
type Pruner interface {
	PruneAudit(ctx context.Context, before time.Time) (int, error)
}

type Config struct {
	Enabled   bool
	Schedule  string // standard 5-field cron spec or descriptor
	Retention time.Duration
	Location  *time.Location
	// Timeout bounds a single prune run. 0 means one minute.
	Timeout time.Duration
}

// LastRun describes the most recent prune.
type LastRun struct {
	At      time.Time
	Removed int
	Err     string
	Took    time.Duration
}

type Service struct {
	mu  sync.Mutex
	cfg Config
	log logx.Logger

	pruner Pruner
	c      *cron.Cron
	ctx    context.Context
	now    func() time.Time

	last LastRun
}

func New(cfg Config, pruner Pruner, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{cfg: cfg, pruner: pruner, log: log, now: time.Now}
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled
}

// Start begins cron triggering. ctx bounds every run. Start is a no-op when
// disabled or already running.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = ctx
	if s.c != nil || !s.cfg.Enabled {
		return nil
	}
	return s.startLocked()
}

func (s *Service) startLocked() error {
	loc := s.cfg.Location
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(cron.WithLocation(loc))
	spec := strings.TrimSpace(s.cfg.Schedule)
	if _, err := c.AddFunc(spec, s.tick); err != nil {
		return err
	}
	c.Start()
	s.c = c
	s.log.Info("maintenance started",
		logx.String("schedule", spec),
		logx.String("tz", loc.String()),
		logx.Duration("retention", s.cfg.Retention),
	)
	return nil
}

// Stop halts triggering and waits for a running prune, bounded by ctx.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
	s.log.Info("maintenance stopped")
}

// Apply swaps the config, restarting the cron runner when it is running or
// newly enabled.
func (s *Service) Apply(cfg Config) error {
	s.mu.Lock()
	old := s.c
	s.c = nil
	s.cfg = cfg
	run := s.ctx != nil && cfg.Enabled
	s.mu.Unlock()

	if old != nil {
		<-old.Stop().Done()
	}
	if !run {
		if old != nil {
			s.log.Info("maintenance disabled via config")
		}
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return nil
	}
	return s.startLocked()
}

// Last returns the most recent run (zero if none yet).
func (s *Service) Last() LastRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Service) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return
	}
	_, _ = s.RunNow(ctx)
}

// RunNow prunes entries older than the configured retention immediately.
func (s *Service) RunNow(ctx context.Context) (int, error) {
	s.mu.Lock()
	cfg := s.cfg
	now := s.now
	s.mu.Unlock()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := now()
	before := start.Add(-cfg.Retention)
	n, err := s.pruner.PruneAudit(rctx, before)
	run := LastRun{At: start, Removed: n, Took: time.Since(start)}
	if err != nil {
		run.Err = err.Error()
		s.log.Warn("audit prune failed", logx.Err(err))
	} else if n > 0 {
		s.log.Info("audit pruned", logx.Int("removed", n), logx.Time("before", before))
	} else {
		s.log.Debug("audit prune: nothing to remove", logx.Time("before", before))
	}

	s.mu.Lock()
	s.last = run
	s.mu.Unlock()
	return n, err
}
