package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/psantana5/flowtrace/pkg/logging"
	"github.com/psantana5/flowtrace/pkg/tracker"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flowtrace.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, s, err := Load("")
	require.NoError(t, err)

	assert.Empty(t, s.ConfigFile)
	assert.Equal(t, 100*time.Millisecond, cfg.DefaultThreshold)
	assert.True(t, cfg.TrackMemory)
	assert.True(t, cfg.EnableNestedTracking)
	assert.Equal(t, tracker.ModeBalanced, cfg.Mode)
	assert.Equal(t, 1.0, cfg.SampleRate)
	assert.Equal(t, 50, cfg.SlowLogSize)
	assert.Equal(t, ":9464", s.ListenAddr)
	require.NotNil(t, cfg.Logger)
	assert.False(t, cfg.Logger.Enabled(logging.INFO))
	assert.True(t, cfg.Logger.Enabled(logging.WARN))
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
default_threshold: 250
track_memory: false
enable_nested_tracking: false
tracking_mode: detailed
sample_rate: 0.5
silent: true
slow_log_size: 10
log_level: info
log_mode: production
listen_addr: "127.0.0.1:9000"
`)

	cfg, s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, s.ConfigFile)
	assert.Equal(t, 250*time.Millisecond, cfg.DefaultThreshold)
	assert.False(t, cfg.TrackMemory)
	assert.False(t, cfg.EnableNestedTracking)
	assert.Equal(t, tracker.ModeDetailed, cfg.Mode)
	assert.Equal(t, 0.5, cfg.SampleRate)
	assert.True(t, cfg.Silent)
	assert.Equal(t, 10, cfg.SlowLogSize)
	assert.Equal(t, "127.0.0.1:9000", s.ListenAddr)
	assert.Equal(t, logging.ModeProduction, cfg.Logger.Mode())
	assert.False(t, cfg.Logger.Enabled(logging.INFO), "production mode floors at WARN")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "tracking_mode: detailed\nsample_rate: 0.5\n")
	t.Setenv("FLOWTRACE_TRACKING_MODE", "performance")
	t.Setenv("FLOWTRACE_SAMPLE_RATE", "0.25")
	t.Setenv("FLOWTRACE_DEFAULT_THRESHOLD", "2s")

	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, tracker.ModePerformance, cfg.Mode)
	assert.Equal(t, 0.25, cfg.SampleRate)
	assert.Equal(t, 2*time.Second, cfg.DefaultThreshold)
}

func TestLoadFromHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".flowtrace")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("tracking_mode: debug\n"), 0o644))

	cfg, s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), s.ConfigFile)
	assert.Equal(t, tracker.ModeDebug, cfg.Mode)
	assert.True(t, cfg.Logger.Enabled(logging.DEBUG), "debug tracking turns on debug logs")
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"Malformed", "tracking_mode: [unclosed\n"},
		{"UnknownMode", "tracking_mode: turbo\n"},
		{"BadThreshold", "default_threshold: soon\n"},
		{"NegativeThreshold", "default_threshold: -5\n"},
		{"ZeroThreshold", "default_threshold: 0\n"},
		{"ZeroDurationThreshold", "default_threshold: 0s\n"},
		{"SampleRateRange", "sample_rate: 3\n"},
		{"UnknownLogMode", "log_mode: chaos\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	t.Run("MissingExplicitFile", func(t *testing.T) {
		_, _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestParseThreshold(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 100 * time.Millisecond},
		{"250", 250 * time.Millisecond},
		{"0.5", 500 * time.Microsecond},
		{"1.5s", 1500 * time.Millisecond},
		{"0", 0},
	}
	for _, tt := range tests {
		got, err := ParseThreshold(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestSettingsYAML(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, s, err := Load("")
	require.NoError(t, err)

	out, err := s.YAML()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, "balanced", decoded["tracking_mode"])
	assert.Equal(t, "100ms", decoded["default_threshold"])
	assert.NotContains(t, decoded, "ConfigFile")
}
