// Package execution holds execution records in a flat arena. Parent and
// child links are arena indices, so a record never owns a pointer to its
// parent and the tree cannot form cycles.
package execution

import (
	"time"
)

// ID indexes a record inside its Tree
type ID int

// NoParent marks a root record
const NoParent ID = -1

// Record is one tracked invocation.
// It is mutated only by its own invocation and is immutable once Closed.
type Record struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`

	// Timing (set at open / close)
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time,omitempty"`
	Duration  time.Duration `json:"duration"`

	// Threshold is the effective slow threshold for this call
	Threshold time.Duration `json:"threshold"`
	IsSlow    bool          `json:"is_slow"`

	// MemoryDelta is end heap minus start heap in bytes, signed.
	// nil when memory was not tracked or unavailable.
	MemoryDelta *int64 `json:"memory_delta,omitempty"`

	// Position
	Level    int  `json:"level"`
	Parent   ID   `json:"parent"`
	Children []ID `json:"children,omitempty"`

	// Outcome
	Err      error `json:"-"`
	Panicked bool  `json:"panicked,omitempty"`
	Async    bool  `json:"async,omitempty"`
	Closed   bool  `json:"closed"`
}

// DurationMs returns the duration in fractional milliseconds
func (r *Record) DurationMs() float64 {
	return float64(r.Duration) / float64(time.Millisecond)
}

// IsRoot reports whether the record has no parent
func (r *Record) IsRoot() bool {
	return r.Parent == NoParent
}

// Failed reports whether the invocation returned an error or panicked
func (r *Record) Failed() bool {
	return r.Err != nil || r.Panicked
}

// ErrorMessage returns the error text, or "" when the call succeeded
func (r *Record) ErrorMessage() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	if r.Panicked {
		return "panic"
	}
	return ""
}

// clone returns a deep copy safe to hand to readers
func (r *Record) clone() Record {
	c := *r
	if r.Children != nil {
		c.Children = make([]ID, len(r.Children))
		copy(c.Children, r.Children)
	}
	if r.MemoryDelta != nil {
		d := *r.MemoryDelta
		c.MemoryDelta = &d
	}
	return c
}
