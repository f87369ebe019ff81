// Package config loads tracker settings from a yaml file, FLOWTRACE_*
// environment variables and defaults, in increasing order of precedence
// for env over file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/psantana5/flowtrace/pkg/logging"
	"github.com/psantana5/flowtrace/pkg/tracker"
)

// EnvPrefix prefixes every environment override, e.g. FLOWTRACE_SAMPLE_RATE
const EnvPrefix = "FLOWTRACE"

// Settings is the flat, file-level form of the configuration
type Settings struct {
	DefaultThreshold     string  `yaml:"default_threshold"`
	TrackMemory          bool    `yaml:"track_memory"`
	EnableNestedTracking bool    `yaml:"enable_nested_tracking"`
	TrackingMode         string  `yaml:"tracking_mode"`
	SampleRate           float64 `yaml:"sample_rate"`
	Silent               bool    `yaml:"silent"`
	SlowLogSize          int     `yaml:"slow_log_size"`

	LogLevel string `yaml:"log_level"`
	LogMode  string `yaml:"log_mode"`
	LogJSON  bool   `yaml:"log_json"`

	ListenAddr string `yaml:"listen_addr"`

	// OTLPEndpoint is a host:port OTLP/HTTP collector; empty disables export
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// ConfigFile is the file that was read, empty when none was found
	ConfigFile string `yaml:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("default_threshold", "100ms")
	v.SetDefault("track_memory", true)
	v.SetDefault("enable_nested_tracking", true)
	v.SetDefault("tracking_mode", string(tracker.ModeBalanced))
	v.SetDefault("sample_rate", 1.0)
	v.SetDefault("silent", false)
	v.SetDefault("slow_log_size", 50)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_mode", string(logging.ModeDevelopment))
	v.SetDefault("log_json", false)
	v.SetDefault("listen_addr", ":9464")
	v.SetDefault("otlp_endpoint", "")
}

// SearchPaths returns the config files tried when no path is given
func SearchPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".flowtrace", "config.yaml"))
	}
	return append(paths, "flowtrace.yaml")
}

func locate() string {
	for _, p := range SearchPaths() {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Load reads the configuration. An explicit path must exist; without
// one the search paths are tried and a missing file means defaults.
func Load(path string) (tracker.Config, *Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = locate()
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return tracker.Config{}, nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	s := &Settings{
		DefaultThreshold:     v.GetString("default_threshold"),
		TrackMemory:          v.GetBool("track_memory"),
		EnableNestedTracking: v.GetBool("enable_nested_tracking"),
		TrackingMode:         v.GetString("tracking_mode"),
		SampleRate:           v.GetFloat64("sample_rate"),
		Silent:               v.GetBool("silent"),
		SlowLogSize:          v.GetInt("slow_log_size"),
		LogLevel:             v.GetString("log_level"),
		LogMode:              v.GetString("log_mode"),
		LogJSON:              v.GetBool("log_json"),
		ListenAddr:           v.GetString("listen_addr"),
		OTLPEndpoint:         v.GetString("otlp_endpoint"),
		ConfigFile:           v.ConfigFileUsed(),
	}

	cfg, err := s.TrackerConfig()
	if err != nil {
		return tracker.Config{}, nil, err
	}
	return cfg, s, nil
}

// TrackerConfig validates the settings and builds a tracker.Config with
// a logger configured from the log_* keys
func (s *Settings) TrackerConfig() (tracker.Config, error) {
	threshold, err := ParseThreshold(s.DefaultThreshold)
	if err != nil {
		return tracker.Config{}, fmt.Errorf("invalid default_threshold: %w", err)
	}
	if threshold == 0 {
		return tracker.Config{}, errors.New("invalid default_threshold: must be positive; use a per-call threshold of 0 to flag every call")
	}
	mode, err := tracker.ParseTrackingMode(s.TrackingMode)
	if err != nil {
		return tracker.Config{}, fmt.Errorf("invalid tracking_mode: %w", err)
	}
	if s.SampleRate < 0 || s.SampleRate > 1 {
		return tracker.Config{}, fmt.Errorf("invalid sample_rate %v: must be within [0,1]", s.SampleRate)
	}
	logMode, err := logging.ParseMode(s.LogMode)
	if err != nil {
		return tracker.Config{}, fmt.Errorf("invalid log_mode: %w", err)
	}

	level := logging.ParseLevel(s.LogLevel)
	if mode == tracker.ModeDebug {
		level = logging.DEBUG
	}
	logger := logging.NewLogger(level, s.LogJSON)
	logger.SetMode(logMode)

	cfg := tracker.DefaultConfig()
	cfg.DefaultThreshold = threshold
	cfg.TrackMemory = s.TrackMemory
	cfg.EnableNestedTracking = s.EnableNestedTracking
	cfg.Mode = mode
	cfg.SampleRate = s.SampleRate
	cfg.Silent = s.Silent
	cfg.SlowLogSize = s.SlowLogSize
	cfg.Logger = logger
	return cfg, nil
}

// ParseThreshold accepts a Go duration ("250ms", "2s") or a plain number
// of milliseconds ("250", "0.5"). Zero is a valid per-call threshold.
func ParseThreshold(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return tracker.DefaultThreshold, nil
	}
	if ms, err := strconv.ParseFloat(raw, 64); err == nil {
		if ms < 0 {
			return 0, errors.New("threshold must not be negative")
		}
		return time.Duration(ms * float64(time.Millisecond)), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, errors.New("threshold must not be negative")
	}
	return d, nil
}

// YAML renders the settings as a config file
func (s *Settings) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}
