package observe

import (
	"sync"
	"time"
)

// ManualClock is a Clock that only moves when told to
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a manual clock starting at a fixed instant
func NewManualClock() *ManualClock {
	return &ManualClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current manual instant
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// ElapsedMs returns milliseconds between since and the manual instant
func (c *ManualClock) ElapsedMs(since time.Time) float64 {
	return Millis(c.Now().Sub(since))
}

// Advance moves the clock forward
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// StaticMemory is a MemorySource returning scripted heap readings in order.
// After the script runs out the last reading repeats.
type StaticMemory struct {
	mu       sync.Mutex
	readings []uint64
	next     int
}

// NewStaticMemory creates a scripted memory source
func NewStaticMemory(heapReadings ...uint64) *StaticMemory {
	return &StaticMemory{readings: heapReadings}
}

// MemoryUsage implements MemorySource
func (s *StaticMemory) MemoryUsage() (MemoryUsage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.readings) == 0 {
		return MemoryUsage{}, false
	}
	i := s.next
	if i >= len(s.readings) {
		i = len(s.readings) - 1
	} else {
		s.next++
	}
	return MemoryUsage{HeapUsed: s.readings[i], HeapTotal: s.readings[i]}, true
}
