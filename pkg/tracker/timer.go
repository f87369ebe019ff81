package tracker

import (
	"time"

	"github.com/google/uuid"

	"github.com/psantana5/flowtrace/internal/observe"
	"github.com/psantana5/flowtrace/pkg/execution"
)

// TimerID identifies a running manual timer
type TimerID string

type timer struct {
	label     string
	timing    *observe.Timing
	threshold time.Duration
	memStart  observe.MemoryUsage
	memOK     bool
}

// StartTimer starts a manual timer. Timers do not touch the call stack;
// EndTimer files them as root records.
func (t *Tracker) StartTimer(label string, opts ...Option) TimerID {
	o := collect(opts)
	if label != "" {
		o.label = label
	}
	s := t.resolve(o, nil)

	tm := &timer{label: s.label, threshold: s.threshold}
	if s.memory {
		tm.memStart, tm.memOK = t.cfg.Memory.MemoryUsage()
	}
	id := TimerID(uuid.NewString())

	t.mu.Lock()
	tm.timing = observe.NewTiming(t.cfg.Clock)
	t.timers[id] = tm
	t.mu.Unlock()
	return id
}

// EndTimer stops a timer and returns its record. Each timer ends once;
// unknown or already ended IDs give ErrTimerNotFound.
func (t *Tracker) EndTimer(id TimerID) (execution.Record, error) {
	t.mu.Lock()
	tm, ok := t.timers[id]
	if !ok {
		t.mu.Unlock()
		return execution.Record{}, timerNotFound(id)
	}
	delete(t.timers, id)
	t.mu.Unlock()
	tm.timing.Complete()

	var delta *int64
	if tm.memOK {
		if memEnd, ok := t.cfg.Memory.MemoryUsage(); ok {
			d := observe.HeapDelta(tm.memStart, memEnd)
			delta = &d
		}
	}

	t.mu.Lock()
	rec := t.tree.AddClosed(tm.label, tm.timing.StartedAt, tm.threshold, execution.CloseInfo{
		EndTime:     tm.timing.CompletedAt,
		MemoryDelta: delta,
	})
	t.mu.Unlock()

	t.metrics.IncrTimerEnded()
	t.observeClosed(rec)
	return rec, nil
}

// RunningTimers returns how many timers have been started but not ended
func (t *Tracker) RunningTimers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}
