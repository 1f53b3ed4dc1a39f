package app

import (
	"strings"
	"time"

	"chefplan/internal/config"
	"chefplan/internal/httpapi"
	"chefplan/internal/maintenance"
	"chefplan/internal/storage"
	logx "chefplan/pkg/logx"
)

const defaultBusyTimeout = time.Second

func mapStorageConfig(cfg *config.Config) storage.Config {
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	out := storage.Config{Driver: driver, Path: strings.TrimSpace(sc.Path)}
	if driver == "sqlite" || driver == "sqlite3" {
		out.BusyTimeout = config.ParseDurationOrDefault(sc.BusyTimeout, defaultBusyTimeout)
	}
	return out
}

func mapLogConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		DebugRatePerSec: cfg.Logging.DebugRatePerSec,
	}
}

func mapHTTPConfig(cfg *config.Config) httpapi.Config {
	h := cfg.HTTP
	return httpapi.Config{
		Addr:          h.Addr,
		Token:         strings.TrimSpace(h.Token),
		AllowInsecure: h.AllowInsecure,
		SystemdSocket: h.SystemdSocket,
		ReadTimeout:   config.ParseDurationOrDefault(h.ReadTimeout, 10*time.Second),
		WriteTimeout:  config.ParseDurationOrDefault(h.WriteTimeout, 30*time.Second),
		IdleTimeout:   config.ParseDurationOrDefault(h.IdleTimeout, 60*time.Second),
		MaxBodyBytes:  h.MaxBodyBytes,
		AddRatePerSec: h.AddRatePerSec,
		AddBurst:      h.AddBurst,
	}
}

// mapMaintenanceConfig assumes cfg passed Validate; a bad timezone falls
// back to local time.
func mapMaintenanceConfig(cfg *config.Config) maintenance.Config {
	m := cfg.Maintenance
	loc, err := m.Location()
	if err != nil {
		loc = time.Local
	}
	return maintenance.Config{
		Enabled:   m.Enabled,
		Schedule:  m.ScheduleSpec(),
		Retention: config.ParseDurationOrDefault(m.AuditRetention, config.DefaultAuditRetention),
		Location:  loc,
	}
}
