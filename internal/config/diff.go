package config

import (
	"reflect"
	"sort"
	"strings"

	logx "chefplan/pkg/logx"
)

// SummarizeConfigChange returns a sorted list of changed sections and safe
// structured attrs for logging. Secrets (the HTTP token) are reported only
// as "set" or "unset".
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 5)
	attrs := make([]logx.Field, 0, 16)

	// HTTP (never log token)
	oh, nh := oldCfg.HTTP, newCfg.HTTP
	oTokenSet := strings.TrimSpace(oh.Token) != ""
	nTokenSet := strings.TrimSpace(nh.Token) != ""
	oh.Token, nh.Token = "", ""
	if oh != nh || oTokenSet != nTokenSet {
		changed = append(changed, "http")
		attrs = append(attrs,
			logx.String("http.addr", strings.TrimSpace(nh.Addr)),
			logx.Bool("http.token_set", nTokenSet),
			logx.Bool("http.allow_insecure", nh.AllowInsecure),
			logx.Bool("http.systemd_socket", nh.SystemdSocket),
			logx.Any("http.add_rate_per_sec", nh.AddRatePerSec),
			logx.Int("http.add_burst", nh.AddBurst),
		)
	}

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
			logx.Int("logging.debug_rate_per_sec", newCfg.Logging.DebugRatePerSec),
		)
	}

	// Storage changes only take effect on restart; still surface them.
	oSt, nSt := oldCfg.Storage, newCfg.Storage
	if strings.TrimSpace(oSt.Driver) != strings.TrimSpace(nSt.Driver) ||
		strings.TrimSpace(oSt.Path) != strings.TrimSpace(nSt.Path) ||
		strings.TrimSpace(oSt.BusyTimeout) != strings.TrimSpace(nSt.BusyTimeout) {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", strings.TrimSpace(nSt.Driver)),
			logx.Bool("storage.path_set", strings.TrimSpace(nSt.Path) != ""),
			logx.String("storage.busy_timeout", strings.TrimSpace(nSt.BusyTimeout)),
		)
	}

	if oldCfg.Recipes.SeedBuiltinEnabled() != newCfg.Recipes.SeedBuiltinEnabled() ||
		!reflect.DeepEqual(oldCfg.Recipes.SeedFiles, newCfg.Recipes.SeedFiles) {
		changed = append(changed, "recipes")
		attrs = append(attrs,
			logx.Bool("recipes.seed_builtin", newCfg.Recipes.SeedBuiltinEnabled()),
			logx.Int("recipes.seed_files", len(newCfg.Recipes.SeedFiles)),
		)
	}

	if oldCfg.Maintenance != newCfg.Maintenance {
		changed = append(changed, "maintenance")
		attrs = append(attrs,
			logx.Bool("maintenance.enabled", newCfg.Maintenance.Enabled),
			logx.String("maintenance.schedule", newCfg.Maintenance.ScheduleSpec()),
			logx.String("maintenance.audit_retention", strings.TrimSpace(newCfg.Maintenance.AuditRetention)),
			logx.String("maintenance.timezone", strings.TrimSpace(newCfg.Maintenance.Timezone)),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}
