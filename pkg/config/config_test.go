package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algoinsight/trace-router/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, 8080, cfg.Server.AdminPort)
	assert.Equal(t, 9190, cfg.Server.MetricsPort)
	assert.Equal(t, "lru", cfg.Cache.EvictionPolicy)
	assert.Equal(t, time.Hour, cfg.Cache.CleanupInterval())
	assert.Equal(t, 0.7, cfg.Routing.FastThreshold)
	assert.Equal(t, 0.8, cfg.Routing.InstantThreshold)
	assert.NoError(t, cfg.Validate())
}

func TestParseConfigFile(t *testing.T) {
	path := writeConfig(t, `
server:
  admin_port: 9000
cache:
  dir: /tmp/trace-cache
  exact_max_size: 100
  eviction_policy: lfu
  cleanup_interval_seconds: 1800
library:
  dir: /tmp/templates
  watch: true
routing:
  fast_threshold: 0.6
  instant_threshold: 0.9
tracing:
  enabled: true
  exporter_type: otlp
  endpoint: localhost:4317
`)

	cfg, err := config.ParseConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.AdminPort)
	assert.Equal(t, 9190, cfg.Server.MetricsPort) // default fills the gap
	assert.Equal(t, "/tmp/trace-cache", cfg.Cache.Dir)
	assert.Equal(t, 100, cfg.Cache.ExactMax)
	assert.Equal(t, "lfu", cfg.Cache.EvictionPolicy)
	assert.Equal(t, 30*time.Minute, cfg.Cache.CleanupInterval())
	assert.True(t, cfg.Library.Watch)
	assert.Equal(t, 0.6, cfg.Routing.FastThreshold)
	assert.Equal(t, 0.9, cfg.Routing.InstantThreshold)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "otlp", cfg.Tracing.ExporterType)
}

func TestParseConfigFileMissing(t *testing.T) {
	_, err := config.ParseConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestParseConfigFileMalformedYAML(t *testing.T) {
	path := writeConfig(t, "cache: [not a map")
	_, err := config.ParseConfigFile(path)
	assert.Error(t, err)
}

func TestValidateRejectsUnknownEvictionPolicy(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.EvictionPolicy = "random"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsInvertedThresholds(t *testing.T) {
	cfg := config.Default()
	cfg.Routing.FastThreshold = 0.9
	cfg.Routing.InstantThreshold = 0.8
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsOutOfRangeThreshold(t *testing.T) {
	cfg := config.Default()
	cfg.Routing.InstantThreshold = 1.5
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNegativeTierSize(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.ExactMax = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadSamplingRate(t *testing.T) {
	cfg := config.Default()
	cfg.Tracing.SamplingRate = 2.0
	assert.Error(t, cfg.Validate())
}
