package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/tracker_report.csv", cfg.Bootstrap.Path)
	assert.Equal(t, "data/live_events.jsonl", cfg.EventLog.Path)
	assert.Equal(t, "composite", cfg.Tracker.KeyMode)
	assert.Equal(t, "classified", cfg.Tracker.View)
	assert.Equal(t, "paired", cfg.Tracker.CarryForward)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	sets := cfg.Aliases.Sets()
	assert.Equal(t, []string{"Prefix", "prefix"}, sets.Prefix)
	assert.Equal(t, []string{"Ref Number", "Reference Number", "Ref_Number", "ref_number"}, sets.Ref)
	// Pipe-separated so the composite alias keeps its internal comma.
	assert.Equal(t, "ORDER, PICK OR PO. NUMBER", sets.Order[0])
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
bootstrap:
  path: /data/export.xlsx
tracker:
  key_mode: single
  view: all
log:
  level: debug
  format: console
server:
  port: 9090
  webhook_secret: hunter2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/export.xlsx", cfg.Bootstrap.Path)
	assert.Equal(t, "single", cfg.Tracker.KeyMode)
	assert.Equal(t, "all", cfg.Tracker.View)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "hunter2", cfg.Server.WebhookSecret)
	// Defaults still apply for unset values
	assert.Equal(t, "data/live_events.jsonl", cfg.EventLog.Path)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
tracker:
  view: all
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("ORDERTRACK_TRACKER_VIEW", "classified")
	t.Setenv("ORDERTRACK_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "classified", cfg.Tracker.View)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvAliasKeys(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("ORDERTRACK_ALIASES_STAGE_KEYS", "Phase,Stage")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"Phase", "Stage"}, cfg.Aliases.Sets().Stage)
}

func TestSplitKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"comma", "a,b , c", []string{"a", "b", "c"}},
		{"pipe wins over comma", "ORDER, PICK OR PO. NUMBER|Order", []string{"ORDER, PICK OR PO. NUMBER", "Order"}},
		{"empty", "", nil},
		{"blank segments dropped", "a,,b,", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SplitKeys(tt.raw))
		})
	}
}

func TestLoadAliasFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "aliases.yaml")
	yaml := `
ref:
  - Packing Ref
  - Ref Number
stage:
  - Phase
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	base := AliasSets{
		Ref:   []string{"Ref Number"},
		Stage: []string{"Stage"},
		Actor: []string{"USER"},
	}

	merged, err := LoadAliasFile(path, base)
	require.NoError(t, err)

	assert.Equal(t, []string{"Packing Ref", "Ref Number"}, merged.Ref)
	assert.Equal(t, []string{"Phase"}, merged.Stage)
	// Lists absent from the file keep the base values.
	assert.Equal(t, []string{"USER"}, merged.Actor)
}

func TestLoadAliasFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := LoadAliasFile(filepath.Join(t.TempDir(), "absent.yaml"), AliasSets{})
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
	assert.Equal(t, "ordertrack", zap.L().Name())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
