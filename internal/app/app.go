// Package app wires configuration, storage, the recipe catalog, the HTTP
// server and background maintenance into one runnable unit.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"chefplan/internal/config"
	"chefplan/internal/eventbus"
	"chefplan/internal/httpapi"
	"chefplan/internal/maintenance"
	"chefplan/internal/recipe"
	rtsup "chefplan/internal/runtime/supervisor"
	"chefplan/internal/storage"
	logx "chefplan/pkg/logx"
)

type App struct {
	cfgm *config.ConfigManager
	sup  *rtsup.Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store storage.Store

	catalog *recipe.Catalog
	http    *httpapi.Service
	maint   *maintenance.Service
}

// NewApp loads the config at cfgPath (empty means built-in defaults), opens
// storage and seeds the catalog. Nothing runs until Start.
func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logSvc, log := logx.New(mapLogConfig(cfg))
	log = log.With(logx.String("comp", "app"))

	seed, err := seedRecipes(cfg)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}

	sc := mapStorageConfig(cfg)
	store, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("storage: %w", err)
	}
	log.Info("storage opened", logx.String("driver", sc.Driver))

	catalog, err := recipe.Open(context.Background(), store, seed, log.With(logx.String("comp", "recipes")))
	if err != nil {
		_ = store.Close()
		_ = logSvc.Close()
		return nil, err
	}

	bus := eventbus.New()
	api := httpapi.NewAPI(catalog, bus, log.With(logx.String("comp", "http")))
	httpSvc := httpapi.NewService(api, mapHTTPConfig(cfg), log.With(logx.String("comp", "http")))
	maint := maintenance.New(mapMaintenanceConfig(cfg), store, log.With(logx.String("comp", "maintenance")))

	return &App{
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		bus:     bus,
		store:   store,
		catalog: catalog,
		http:    httpSvc,
		maint:   maint,
	}, nil
}

func seedRecipes(cfg *config.Config) ([]recipe.Recipe, error) {
	var seed []recipe.Recipe
	if cfg.Recipes.SeedBuiltinEnabled() {
		seed = append(seed, recipe.Builtin()...)
	}
	extra, err := recipe.LoadFiles(cfg.Recipes.SeedFiles...)
	if err != nil {
		return nil, fmt.Errorf("recipes.seed_files: %w", err)
	}
	return append(seed, extra...), nil
}

func (a *App) Catalog() *recipe.Catalog { return a.catalog }

// Addr returns the HTTP listener address once serving.
func (a *App) Addr() string { return a.http.Addr() }

// Ready is closed once the HTTP server listens.
func (a *App) Ready() <-chan struct{} { return a.http.Ready() }

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	if a.sup != nil {
		return errors.New("app already started")
	}
	a.sup = rtsup.New(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(true))
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		// Seed files are only read at startup; reject a list that would fail
		// the next boot.
		_, err := recipe.LoadFiles(cfg.Recipes.SeedFiles...)
		if err != nil {
			return fmt.Errorf("recipes.seed_files: %w", err)
		}
		return nil
	})

	runCtx := a.sup.Context()
	a.http.Start(runCtx)
	if err := a.maint.Start(runCtx); err != nil {
		return fmt.Errorf("maintenance: %w", err)
	}

	events, unsub := a.bus.Subscribe(256)
	auditLog := a.log.With(logx.String("comp", "audit"))
	a.sup.Go0("audit", func(c context.Context) {
		defer unsub()
		runAudit(c, events, a.store, auditLog)
	})

	// hot reload config fan-out
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				// Coalesce bursts: keep only the latest config in the channel.
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						goto APPLY
					}
				}
			APPLY:
				a.applyConfig(c, lastApplied, newCfg)
				lastApplied = newCfg
			}
		}
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Warn("systemd notify failed", logx.Err(err))
	} else if ok {
		a.log.Debug("systemd notified ready")
	}
	a.log.Info("app started", logx.Int("recipes", a.catalog.Len()))
	return nil
}

func (a *App) applyConfig(ctx context.Context, prev, next *config.Config) {
	sections, attrs := config.SummarizeConfigChange(prev, next)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Debug("config change summary", fields...)

	for _, s := range sections {
		switch s {
		case "logging":
			a.logs.Apply(mapLogConfig(next))
		case "http":
			a.http.Reconfigure(ctx, mapHTTPConfig(next))
		case "maintenance":
			if err := a.maint.Apply(mapMaintenanceConfig(next)); err != nil {
				a.log.Warn("maintenance config not applied", logx.Err(err))
			}
		case "storage", "recipes":
			a.log.Warn(s + " config changed; restart required for changes to take effect")
		}
	}

	a.log.Info("config reloaded", logx.String("changed", strings.Join(sections, ",")))
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	// First, cancel the app run context so background loops start unwinding immediately.
	a.sup.Cancel()

	// Helper: run a shutdown step with an upper bound so one component can't stall the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		a.log.Debug("stop step begin", logx.String("name", name), logx.Duration("max", max))

		stepCtx := ctx
		var cancel context.CancelFunc
		if max > 0 {
			// respect the caller's deadline; never extend it
			if dl, ok := ctx.Deadline(); ok {
				if rem := time.Until(dl); rem <= 0 {
					max = 0
				} else if rem < max {
					max = rem
				}
			}
			if max > 0 {
				stepCtx, cancel = context.WithTimeout(ctx, max)
				defer cancel()
			}
		}

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			took := time.Since(start)
			if took >= 500*time.Millisecond {
				a.log.Info("stop step end", logx.String("name", name), logx.Duration("took", took))
			} else {
				a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", took))
			}
		case <-stepCtx.Done():
			// fn must honor stepCtx; if it doesn't, log the leak.
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name),
				logx.Err(stepCtx.Err()),
				logx.Duration("elapsed", time.Since(start)),
			)
			go func() {
				err := <-done
				took := time.Since(start)
				if err != nil {
					a.log.Warn("stop step finished after deadline", logx.String("name", name), logx.Err(err), logx.Duration("took", took))
				} else {
					a.log.Info("stop step finished after deadline", logx.String("name", name), logx.Duration("took", took))
				}
			}()
		}
	}

	step("http", 3*time.Second, func(c context.Context) error { a.http.Stop(c); return nil })
	step("maintenance", 2*time.Second, func(c context.Context) error { a.maint.Stop(c); return nil })
	// Wait for the audit writer before closing the store under it.
	step("supervisor", 2*time.Second, func(c context.Context) error { return a.sup.Wait(c) })
	step("storage", 1*time.Second, func(context.Context) error { return a.store.Close() })

	a.log.Info("stopped", logx.Int64("events_dropped", int64(a.bus.Dropped())))
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}
