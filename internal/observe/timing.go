package observe

// If tracking breaks, the tracked call MUST still run.
// If we are unsure, DO LESS.
// Observe the call. Never change its outcome.

import "time"

// Clock is the timing source. Readings must be monotonic.
type Clock interface {
	Now() time.Time
	ElapsedMs(since time.Time) float64
}

// SystemClock reads the wall clock's monotonic component
type SystemClock struct{}

// Now returns the current instant
func (SystemClock) Now() time.Time {
	return time.Now()
}

// ElapsedMs returns milliseconds elapsed since the given instant
func (SystemClock) ElapsedMs(since time.Time) float64 {
	return Millis(time.Since(since))
}

// Millis converts a duration to fractional milliseconds
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Timing records start/end timestamps only
type Timing struct {
	StartedAt   time.Time
	CompletedAt time.Time

	clock Clock
}

// NewTiming creates timing with current start time
func NewTiming(clock Clock) *Timing {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Timing{
		StartedAt: clock.Now(),
		clock:     clock,
	}
}

// Complete records completion time. Only the first call counts.
func (t *Timing) Complete() {
	if !t.CompletedAt.IsZero() {
		return
	}
	t.CompletedAt = t.clock.Now()
}

// Duration returns execution duration, never negative
func (t *Timing) Duration() time.Duration {
	end := t.CompletedAt
	if end.IsZero() {
		end = t.clock.Now()
	}
	d := end.Sub(t.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}
