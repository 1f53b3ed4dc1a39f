package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	logx "chefplan/pkg/logx"
)

func TestDecodeYAMLKeepsDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Decode("chefplan.yaml", []byte(`
http:
  addr: "127.0.0.1:8080"
storage:
  driver: sqlite
  path: ./data/chefplan.db
recipes:
  seed_builtin: false
  seed_files: [./recipes.yaml]
`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.HTTP.Addr != "127.0.0.1:8080" {
		t.Fatalf("addr = %q", cfg.HTTP.Addr)
	}
	if cfg.HTTP.MaxBodyBytes != DefaultMaxBodyBytes || cfg.HTTP.ReadTimeout != "10s" {
		t.Fatalf("http defaults lost: %+v", cfg.HTTP)
	}
	if !cfg.Logging.Console || cfg.Logging.Level != "info" {
		t.Fatalf("logging defaults lost: %+v", cfg.Logging)
	}
	if cfg.Recipes.SeedBuiltinEnabled() {
		t.Fatalf("seed_builtin should be false")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestDecodeRejectsUnknownAndTrailing(t *testing.T) {
	t.Parallel()
	if _, err := Decode("c.json", []byte(`{"http": {"adr": "x"}}`)); err == nil {
		t.Fatalf("expected unknown field error")
	}
	if _, err := Decode("c.json", []byte(`{} {}`)); err == nil {
		t.Fatalf("expected trailing data error")
	}
	cfg, err := Decode("c.yml", []byte(""))
	if err != nil {
		t.Fatalf("empty yaml: %v", err)
	}
	if cfg.HTTP.Addr != DefaultAddr {
		t.Fatalf("empty yaml should keep defaults")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad timeout", mutate: func(c *Config) { c.HTTP.ReadTimeout = "soon" }, wantErr: "http.read_timeout"},
		{name: "negative retention", mutate: func(c *Config) { c.Maintenance.AuditRetention = "-1h" }, wantErr: "maintenance.audit_retention"},
		{name: "file without path", mutate: func(c *Config) { c.Storage.Driver = "file" }, wantErr: "storage.path"},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "redis" }, wantErr: "storage.driver"},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "logging.level"},
		{name: "bad cron", mutate: func(c *Config) { c.Maintenance.Schedule = "every day" }, wantErr: "maintenance.schedule"},
		{name: "bad cron ignored when disabled", mutate: func(c *Config) {
			c.Maintenance.Enabled = false
			c.Maintenance.Schedule = "every day"
		}},
		{name: "bad timezone", mutate: func(c *Config) { c.Maintenance.Timezone = "Mars/Olympus" }, wantErr: "maintenance.timezone"},
		{name: "no addr", mutate: func(c *Config) { c.HTTP.Addr = "" }, wantErr: "http.addr"},
		{name: "no addr with socket activation", mutate: func(c *Config) {
			c.HTTP.Addr = ""
			c.HTTP.SystemdSocket = true
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestSummarizeConfigChangeHidesToken(t *testing.T) {
	t.Parallel()
	oldCfg := Defaults()
	newCfg := Defaults()
	newCfg.HTTP.Token = "s3cret"
	newCfg.Logging.Level = "debug"

	changed, attrs := SummarizeConfigChange(oldCfg, newCfg)
	if strings.Join(changed, ",") != "http,logging" {
		t.Fatalf("changed = %v", changed)
	}

	var buf strings.Builder
	log := logx.NewJSON(&buf, "debug")
	log.Info("reload", attrs...)
	if strings.Contains(buf.String(), "s3cret") {
		t.Fatalf("token leaked into log: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"http.token_set":true`) {
		t.Fatalf("token_set missing: %s", buf.String())
	}

	if changed, _ := SummarizeConfigChange(newCfg, newCfg); len(changed) != 0 {
		t.Fatalf("identical configs reported changes: %v", changed)
	}
}

func TestManagerWithoutFileUsesDefaults(t *testing.T) {
	t.Parallel()
	m := NewConfigManager("")
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Get() != cfg || cfg.HTTP.Addr != DefaultAddr {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := m.Watch(ctx); err != nil {
		t.Fatalf("watch: %v", err)
	}
}

func TestManagerWatchPublishesValidChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	write := func(s string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(s), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	write(`{"logging": {"level": "info"}}`)

	m := NewConfigManager(path)
	m.SetDebounce(20 * time.Millisecond)
	if _, err := m.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	ch := m.Subscribe(1)
	defer m.Unsubscribe(ch)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = m.Watch(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)

	// Invalid config must not be published.
	write(`{"storage": {"driver": "redis"}}`)
	time.Sleep(200 * time.Millisecond)
	select {
	case cfg := <-ch:
		t.Fatalf("invalid config published: %+v", cfg.Storage)
	default:
	}

	write(`{"logging": {"level": "debug"}}`)
	select {
	case cfg := <-ch:
		if cfg.Logging.Level != "debug" {
			t.Fatalf("level = %q", cfg.Logging.Level)
		}
		if m.Get().Logging.Level != "debug" {
			t.Fatalf("config not committed")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for reload")
	}
}
