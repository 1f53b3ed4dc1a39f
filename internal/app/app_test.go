package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chefplan/internal/config"
	"chefplan/internal/eventbus"
	"chefplan/internal/recipe"
	"chefplan/internal/schedule"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func startApp(t *testing.T, cfgPath string) *App {
	t.Helper()
	a, err := NewApp(cfgPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, a.Start(ctx))
	t.Cleanup(func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		_ = a.Stop(stopCtx, StopAppStop)
		cancel()
	})

	select {
	case <-a.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("http server not ready")
	}
	return a
}

func TestAppServesAndAudits(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "data")
	cfgPath := writeConfig(t, dir, `
http:
  addr: "127.0.0.1:0"
logging:
  level: error
storage:
  driver: file
  path: "`+prefix+`"
maintenance:
  enabled: false
`)
	a := startApp(t, cfgPath)
	base := "http://" + a.Addr()

	resp, err := http.Get(base + "/calculate/0")
	require.NoError(t, err)
	var calc struct {
		Recipe           string `json:"recipe"`
		TotalOptimalTime int    `json:"total_optimal_time"`
		TotalNormalTime  int    `json:"total_normal_time"`
		TimeSaved        int    `json:"time_saved"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&calc))
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Cookie", calc.Recipe)
	assert.Equal(t, 104, calc.TotalOptimalTime)
	assert.Equal(t, 121, calc.TotalNormalTime)
	assert.Equal(t, 17, calc.TimeSaved)

	body := `{"recipe":"Tea","steps":[{"id":1,"task":"Boil water","time":4,"prerequisites":[],"occupies_chef":false}]}`
	resp, err = http.Post(base+"/add-recipe", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, a.Catalog().Len())

	auditPath := prefix + ".audit.jsonl"
	assert.Eventually(t, func() bool {
		b, err := os.ReadFile(auditPath)
		if err != nil {
			return false
		}
		s := string(b)
		return strings.Contains(s, `"action":"schedule_computed"`) && strings.Contains(s, `"action":"recipe_added"`)
	}, 3*time.Second, 20*time.Millisecond)
}

func TestAppPersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, `
http: {addr: "127.0.0.1:0"}
logging: {level: error}
storage: {driver: sqlite, path: "`+filepath.Join(dir, "chefplan.db")+`"}
maintenance: {enabled: false}
`)

	a, err := NewApp(cfgPath)
	require.NoError(t, err)
	_, err = a.Catalog().Append(context.Background(), mustRecipe(t))
	require.NoError(t, err)
	require.NoError(t, a.Stop(context.Background(), StopAppStop))
	// Stop before Start is a no-op; close the store by hand.
	require.NoError(t, a.store.Close())
	_ = a.logs.Close()

	b, err := NewApp(cfgPath)
	require.NoError(t, err)
	defer func() { _ = b.store.Close() }()
	assert.Equal(t, 5, b.Catalog().Len())
}

func mustRecipe(t *testing.T) recipe.Recipe {
	t.Helper()
	r := recipe.Recipe{Name: "Toast", Steps: []schedule.Step{{ID: 1, Task: "Toast bread", Time: 3, Prerequisites: []int{}, OccupiesChef: true}}}
	require.NoError(t, recipe.Validate(r))
	return r
}

func TestNewAppRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, `storage: {driver: redis}`)
	_, err := NewApp(cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.driver")
}

func TestNewAppSeedFiles(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "extra.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(`
recipe: Menemen
steps:
  - {id: 1, task: Chop the onions, time: 5, prerequisites: [], occupies_chef: true}
`), 0o600))
	cfgPath := writeConfig(t, dir, `
logging: {level: error}
recipes:
  seed_builtin: false
  seed_files: ["`+seed+`"]
`)
	a, err := NewApp(cfgPath)
	require.NoError(t, err)
	require.Equal(t, 1, a.Catalog().Len())
	got, err := a.Catalog().Get(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "Menemen", got.Name)
}

func TestAuditEntryMapping(t *testing.T) {
	t.Parallel()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	e, ok := auditEntry(eventbus.Event{Type: eventbus.TypeScheduleComputed, Time: at, Data: eventbus.ScheduleComputed{
		Index: 2, Name: "Grilled Cheese Sandwich", Optimal: 11, Normal: 14, RequestID: "r1",
	}})
	require.True(t, ok)
	assert.Equal(t, auditScheduleComputed, e.Action)
	assert.Equal(t, at, e.At)
	assert.Equal(t, 11, e.Optimal)
	assert.Equal(t, 14, e.Normal)

	e, ok = auditEntry(eventbus.Event{Type: eventbus.TypeRecipeAdded, Time: at, Data: eventbus.RecipeAdded{Index: 4, Name: "Tea"}})
	require.True(t, ok)
	assert.Equal(t, auditRecipeAdded, e.Action)
	assert.Equal(t, 4, e.RecipeIndex)

	_, ok = auditEntry(eventbus.Event{Type: "other", Data: 1})
	assert.False(t, ok)
}

func TestMappingDefaults(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()
	cfg.Storage = config.StorageConfig{Driver: "SQLite", Path: " ./x.db "}

	sc := mapStorageConfig(cfg)
	assert.Equal(t, "sqlite", sc.Driver)
	assert.Equal(t, "./x.db", sc.Path)
	assert.Equal(t, time.Second, sc.BusyTimeout)

	hc := mapHTTPConfig(cfg)
	assert.Equal(t, 10*time.Second, hc.ReadTimeout)
	assert.Equal(t, 30*time.Second, hc.WriteTimeout)
	assert.Equal(t, int64(config.DefaultMaxBodyBytes), hc.MaxBodyBytes)

	mc := mapMaintenanceConfig(cfg)
	assert.True(t, mc.Enabled)
	assert.Equal(t, "@daily", mc.Schedule)
	assert.Equal(t, 720*time.Hour, mc.Retention)
}
