package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 32, cfg.Server.MaxUploadMB)
	assert.Equal(t, "enrich_uid", cfg.Server.CookieName)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 2, cfg.Browser.QueriesPerContext)
	assert.Equal(t, 15000, cfg.Browser.OperationTimeoutMS)
	assert.Equal(t, 15000, cfg.Browser.NavTimeoutMS)
	assert.Equal(t, 3000, cfg.Browser.SelectorTimeoutMS)
	assert.Equal(t, 5000, cfg.Browser.ConsentTimeoutMS)
	assert.Equal(t, 500, cfg.Scrape.MinDelayMS)
	assert.Equal(t, 1000, cfg.Scrape.MaxDelayMS)
	assert.Equal(t, 1, cfg.Scrape.Concurrency)
	assert.Equal(t, 800, cfg.Classifier.BatchSize)
	assert.Equal(t, 120, cfg.Classifier.TimeoutSecs)
	assert.Equal(t, "data", cfg.Workspace.Root)
	assert.Equal(t, 7, cfg.Workspace.RetentionDays)
	assert.Equal(t, 168, cfg.Workspace.SweepEveryHours)
	assert.Equal(t, "_enrich_", cfg.Merge.ScratchColumnPrefix)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
log:
  level: debug
  format: console
server:
  port: 9090
browser:
  headless: false
  queries_per_context: 1
workspace:
  root: /tmp/enrich
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 1, cfg.Browser.QueriesPerContext)
	assert.Equal(t, "/tmp/enrich", cfg.Workspace.Root)

	// Untouched keys keep their defaults.
	assert.Equal(t, 800, cfg.Classifier.BatchSize)
	assert.Equal(t, 7, cfg.Workspace.RetentionDays)
}

func TestProxyList(t *testing.T) {
	t.Setenv("BLAKE_PROXIES", "p1.example.com:8000:user:pass")
	assert.Equal(t, "p1.example.com:8000:user:pass", ProxyList())
}

func TestInitLoggerBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shouty", Format: "json"})
	require.Error(t, err)
}
