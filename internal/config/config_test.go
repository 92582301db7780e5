package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, yamlBody string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
gateway:
  base_url: https://example.test
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5.0, cfg.Gateway.RatePerSecond)
	assert.Equal(t, 10, cfg.Gateway.Burst)
	assert.Equal(t, "ridgeradar.db", cfg.Storage.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Contains(t, cfg.Discovery.ExclusionPatterns, "u21")
	assert.Equal(t, 0.02, cfg.Shadow.CommissionRate)
	assert.Equal(t, 500, cfg.Shadow.ActivationClosingDataRows)
}

func TestLoad_HonoursExplicitValues(t *testing.T) {
	path := writeTempConfig(t, `
gateway:
  base_url: https://example.test
  rate_per_second: 9
storage:
  dsn: ":memory:"
scoring:
  guards:
    absolute_min_depth: 250
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9.0, cfg.Gateway.RatePerSecond)
	assert.Equal(t, ":memory:", cfg.Storage.DSN)
	assert.Equal(t, 250.0, cfg.Scoring.Guards.AbsoluteMinDepth)
	// Defaults still applied to untouched guard fields.
	assert.Equal(t, 20.0, cfg.Scoring.Guards.AbsoluteMaxSpreadTicks)
}

func TestLoad_EnvOverridesWin(t *testing.T) {
	path := writeTempConfig(t, `
gateway:
  base_url: https://example.test
log:
  level: info
`)
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
