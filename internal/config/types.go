// Package config loads, validates and hot-reloads the service configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Config struct {
	HTTP        HTTPConfig        `json:"http"`
	Logging     LoggingConfig     `json:"logging"`
	Storage     StorageConfig     `json:"storage"`
	Recipes     RecipesConfig     `json:"recipes"`
	Maintenance MaintenanceConfig `json:"maintenance"`
}

// HTTPConfig controls the recipe HTTP server.
//
// Security note:
//   - Prefer binding to localhost (e.g. "127.0.0.1:5000").
//   - If you bind to a non-loopback address, set a token or explicitly allow_insecure.
//     The token guards POST /add-recipe only; reads stay public.
type HTTPConfig struct {
	Addr          string `json:"addr,omitempty"`  // default: "127.0.0.1:5000"
	Token         string `json:"token,omitempty"` // optional bearer token (do not log)
	AllowInsecure bool   `json:"allow_insecure,omitempty"`

	// Server timeouts (Go duration strings).
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
	IdleTimeout  string `json:"idle_timeout,omitempty"`

	// MaxBodyBytes caps request bodies. Default 1 MiB.
	MaxBodyBytes int64 `json:"max_body_bytes,omitempty"`

	// AddRatePerSec limits POST /add-recipe. 0 disables limiting.
	AddRatePerSec float64 `json:"add_rate_per_sec,omitempty"`
	AddBurst      int     `json:"add_burst,omitempty"`

	// SystemdSocket serves on the first socket passed by systemd socket
	// activation instead of listening on Addr.
	SystemdSocket bool `json:"systemd_socket,omitempty"`
}

type LoggingConfig struct {
	Level           string      `json:"level"`
	Console         bool        `json:"console"`
	File            LoggingFile `json:"file"`
	DebugRatePerSec int         `json:"debug_rate_per_sec,omitempty"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig controls persistence of recipes and the audit trail.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./data/chefplan.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// RecipesConfig controls how an empty store is seeded.
// SeedBuiltin is a pointer so an omitted key defaults to true.
type RecipesConfig struct {
	SeedBuiltin *bool    `json:"seed_builtin,omitempty"`
	SeedFiles   []string `json:"seed_files,omitempty"`
}

// MaintenanceConfig drives the periodic audit pruning job.
type MaintenanceConfig struct {
	Enabled bool `json:"enabled"`
	// Schedule is a standard 5-field cron spec or a descriptor like "@daily".
	Schedule string `json:"schedule,omitempty"`
	// AuditRetention is a Go duration string; older audit entries are pruned.
	AuditRetention string `json:"audit_retention,omitempty"`
	Timezone       string `json:"timezone,omitempty"`
}

const (
	DefaultAddr           = "127.0.0.1:5000"
	DefaultMaxBodyBytes   = 1 << 20
	DefaultSchedule       = "@daily"
	DefaultAuditRetention = 30 * 24 * time.Hour
)

// Defaults returns the configuration used when no file is given. Parse
// decodes on top of it, so omitted keys keep these values.
func Defaults() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:          DefaultAddr,
			ReadTimeout:   "10s",
			WriteTimeout:  "30s",
			IdleTimeout:   "60s",
			MaxBodyBytes:  DefaultMaxBodyBytes,
			AddRatePerSec: 5,
			AddBurst:      10,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
		Storage: StorageConfig{Driver: "memory"},
		Maintenance: MaintenanceConfig{
			Enabled:        true,
			Schedule:       DefaultSchedule,
			AuditRetention: "720h",
		},
	}
}

// SeedBuiltinEnabled reports whether the built-in recipes seed an empty store.
func (r RecipesConfig) SeedBuiltinEnabled() bool {
	return r.SeedBuiltin == nil || *r.SeedBuiltin
}

// Location resolves the maintenance timezone; empty means local time.
func (m MaintenanceConfig) Location() (*time.Location, error) {
	tz := strings.TrimSpace(m.Timezone)
	if tz == "" {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}

// Validate checks every field that cannot be caught by strict decoding.
// All problems are reported together.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if strings.TrimSpace(c.HTTP.Addr) == "" && !c.HTTP.SystemdSocket {
		add(errors.New("http.addr: required unless http.systemd_socket is set"))
	}
	for path, raw := range map[string]string{
		"http.read_timeout":           c.HTTP.ReadTimeout,
		"http.write_timeout":          c.HTTP.WriteTimeout,
		"http.idle_timeout":           c.HTTP.IdleTimeout,
		"storage.busy_timeout":        c.Storage.BusyTimeout,
		"maintenance.audit_retention": c.Maintenance.AuditRetention,
	} {
		_, err := ParseDurationField(path, raw)
		add(err)
	}
	if c.HTTP.MaxBodyBytes < 0 {
		add(errors.New("http.max_body_bytes: must be >= 0"))
	}
	if c.HTTP.AddRatePerSec < 0 || c.HTTP.AddBurst < 0 {
		add(errors.New("http.add_rate_per_sec/add_burst: must be >= 0"))
	}

	switch lv := strings.ToLower(strings.TrimSpace(c.Logging.Level)); lv {
	case "", "trace", "debug", "info", "warn", "warning", "error":
	default:
		add(fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	if c.Logging.DebugRatePerSec < 0 {
		add(errors.New("logging.debug_rate_per_sec: must be >= 0"))
	}

	switch d := strings.ToLower(strings.TrimSpace(c.Storage.Driver)); d {
	case "", "memory":
	case "file", "sqlite", "sqlite3":
		if strings.TrimSpace(c.Storage.Path) == "" {
			add(fmt.Errorf("storage.path: required for driver %q", d))
		}
	default:
		add(fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver))
	}

	for i, p := range c.Recipes.SeedFiles {
		if strings.TrimSpace(p) == "" {
			add(fmt.Errorf("recipes.seed_files[%d]: empty path", i))
		}
	}

	if c.Maintenance.Enabled {
		if _, err := cron.ParseStandard(c.Maintenance.ScheduleSpec()); err != nil {
			add(fmt.Errorf("maintenance.schedule: %w", err))
		}
		if _, err := c.Maintenance.Location(); err != nil {
			add(fmt.Errorf("maintenance.timezone: %w", err))
		}
	}

	return errors.Join(errs...)
}

// ScheduleSpec returns the cron spec, falling back to DefaultSchedule.
func (m MaintenanceConfig) ScheduleSpec() string {
	if s := strings.TrimSpace(m.Schedule); s != "" {
		return s
	}
	return DefaultSchedule
}
