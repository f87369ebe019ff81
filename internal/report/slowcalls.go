package report

// If tracking breaks, the tracked call MUST still run.
// If we are unsure, DO LESS.
// Observe the call. Never change its outcome.

import (
	"sync"

	"github.com/psantana5/flowtrace/pkg/execution"
)

// SlowCall is a sample of one call that exceeded its threshold
type SlowCall struct {
	Name        string  `json:"name"`
	DurationMs  float64 `json:"duration_ms"`
	ThresholdMs float64 `json:"threshold_ms"`
	Level       int     `json:"level"`
	Error       string  `json:"error,omitempty"`
}

// SlowCallLog maintains a ring buffer of recent slow calls (last N)
type SlowCallLog struct {
	samples []SlowCall
	maxSize int
	mu      sync.RWMutex
}

// NewSlowCallLog creates a slow-call log with fixed size
func NewSlowCallLog(maxSize int) *SlowCallLog {
	if maxSize <= 0 {
		maxSize = 50
	}
	return &SlowCallLog{
		samples: make([]SlowCall, 0, maxSize),
		maxSize: maxSize,
	}
}

// Record adds a sample if the record is slow (ring buffer)
func (l *SlowCallLog) Record(rec execution.Record) bool {
	if !rec.IsSlow {
		return false
	}

	sample := SlowCall{
		Name:        rec.Name,
		DurationMs:  rec.DurationMs(),
		ThresholdMs: float64(rec.Threshold.Microseconds()) / 1000,
		Level:       rec.Level,
		Error:       rec.ErrorMessage(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Ring buffer: if full, drop oldest
	if len(l.samples) >= l.maxSize {
		l.samples = l.samples[1:]
	}
	l.samples = append(l.samples, sample)
	return true
}

// GetRecent returns recent slow calls (newest first)
func (l *SlowCallLog) GetRecent(n int) []SlowCall {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || n > len(l.samples) {
		n = len(l.samples)
	}

	result := make([]SlowCall, n)
	for i := 0; i < n; i++ {
		result[i] = l.samples[len(l.samples)-1-i]
	}
	return result
}

// Count returns how many samples are held
func (l *SlowCallLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.samples)
}

// Reset drops all samples
func (l *SlowCallLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.samples = make([]SlowCall, 0, l.maxSize)
}
