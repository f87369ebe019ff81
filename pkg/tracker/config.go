package tracker

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/psantana5/flowtrace/internal/observe"
	"github.com/psantana5/flowtrace/pkg/flow"
	"github.com/psantana5/flowtrace/pkg/logging"
)

// TrackingMode trades rendering detail for overhead. It never changes
// what gets measured for a call that is tracked.
type TrackingMode string

const (
	ModePerformance TrackingMode = "performance"
	ModeBalanced    TrackingMode = "balanced"
	ModeDetailed    TrackingMode = "detailed"
	ModeDebug       TrackingMode = "debug"
)

// ParseTrackingMode parses a mode name
func ParseTrackingMode(mode string) (TrackingMode, error) {
	switch TrackingMode(strings.ToLower(mode)) {
	case "", ModeBalanced:
		return ModeBalanced, nil
	case ModePerformance:
		return ModePerformance, nil
	case ModeDetailed:
		return ModeDetailed, nil
	case ModeDebug:
		return ModeDebug, nil
	default:
		return "", fmt.Errorf("unknown tracking mode %q (want performance, balanced, detailed or debug)", mode)
	}
}

// RenderOptions returns the flow chart detail for the mode
func (m TrackingMode) RenderOptions() flow.Options {
	opts := flow.DefaultOptions()
	switch m {
	case ModePerformance:
		opts.ShowMemory = false
	case ModeDetailed:
		opts.ShowThreshold = true
	case ModeDebug:
		opts.ShowThreshold = true
		opts.ShowTimestamps = true
	}
	return opts
}

// DefaultThreshold is the slow-call threshold when none is configured
const DefaultThreshold = 100 * time.Millisecond

// Config holds construction options. Start from DefaultConfig; the zero
// value disables memory tracking, nesting and sampling.
type Config struct {
	DefaultThreshold     time.Duration
	TrackMemory          bool
	EnableNestedTracking bool
	Mode                 TrackingMode
	SampleRate           float64 // clamped to [0,1]
	Silent               bool    // no auto-render after top-level calls
	SlowLogSize          int

	// Collaborators; nil means the default
	Output       io.Writer
	Logger       *logging.Logger
	Clock        observe.Clock
	Memory       observe.MemorySource
	Rand         func() float64
	NameResolver func(fn any) string
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{
		DefaultThreshold:     DefaultThreshold,
		TrackMemory:          true,
		EnableNestedTracking: true,
		Mode:                 ModeBalanced,
		SampleRate:           1.0,
		SlowLogSize:          50,
	}
}

func clampRate(r float64) float64 {
	if r != r || r < 0 { // NaN or negative
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

func (c *Config) applyDefaults() {
	if c.DefaultThreshold <= 0 {
		c.DefaultThreshold = DefaultThreshold
	}
	if c.Mode == "" {
		c.Mode = ModeBalanced
	}
	c.SampleRate = clampRate(c.SampleRate)
	if c.SlowLogSize <= 0 {
		c.SlowLogSize = 50
	}
	if c.Output == nil {
		c.Output = os.Stdout
	}
	if c.Logger == nil {
		c.Logger = logging.NewLogger(logging.WARN, false)
	}
	if c.Clock == nil {
		c.Clock = observe.SystemClock{}
	}
	if c.Memory == nil {
		if c.TrackMemory {
			c.Memory = observe.NewRuntimeMemory()
		} else {
			c.Memory = observe.NoMemory{}
		}
	}
	if c.NameResolver == nil {
		c.NameResolver = FuncName
	}
}
