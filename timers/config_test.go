package timers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_NormalizedFillsZeroValues(t *testing.T) {
	cfg := Config{}.normalized()
	assert.Equal(t, DefaultTimeoutMax, cfg.TimeoutMax)
	assert.Equal(t, "timers", cfg.MetricsNamespace)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestConfig_NormalizedKeepsExplicitValues(t *testing.T) {
	cfg := Config{TimeoutMax: 500, MetricsNamespace: "custom", LogLevel: "debug"}.normalized()
	assert.Equal(t, int64(500), cfg.TimeoutMax)
	assert.Equal(t, "custom", cfg.MetricsNamespace)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_ParsesYAMLAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout_max: 1000\nlog_level: debug\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), cfg.TimeoutMax)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "timers", cfg.MetricsNamespace, "unset fields still get normalized defaults")
}

func TestLoadConfig_MissingFileErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWatchConfig_AppliesReloadOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), 0o644))

	s, _, _ := newTestScheduler(t)
	watcher, err := WatchConfig(path, s)
	require.NoError(t, err)
	defer watcher.Close()

	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o644))

	assert.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.config.LogLevel == "debug"
	}, 2*time.Second, 10*time.Millisecond)
}
