// Package tracker instruments function execution: it times each tracked
// call, samples heap growth, flags calls slower than a threshold and
// builds the parent/child tree of nested calls.
//
// Tracking never changes a call's outcome. Return values, errors and
// panics pass through unchanged, whether or not the call was sampled.
package tracker

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/psantana5/flowtrace/internal/observe"
	"github.com/psantana5/flowtrace/internal/report"
	"github.com/psantana5/flowtrace/pkg/callstack"
	"github.com/psantana5/flowtrace/pkg/execution"
	"github.com/psantana5/flowtrace/pkg/flow"
	"github.com/psantana5/flowtrace/pkg/logging"
)

// Tracker owns one tracking session: the call stack, the record arena,
// the current-record pointer and the running timers. It is safe for
// concurrent use; nesting across goroutines follows the context passed
// to each tracked call.
type Tracker struct {
	cfg Config

	mu       sync.Mutex
	stack    *callstack.Stack
	tree     *execution.Tree
	current  execution.ID
	session  uint64
	inflight int
	timers   map[TimerID]*timer
	// open records whose calls disabled nesting; they take no children
	leaves map[execution.ID]bool

	outMu sync.Mutex

	metrics     *report.Metrics
	stats       *report.Stats
	slow        *report.SlowCallLog
	warnLimiter *rate.Limiter
	rand        func() float64
	logger      *logging.Logger
}

// New creates a tracker. Unset collaborators get defaults.
func New(cfg Config) *Tracker {
	cfg.applyDefaults()

	r := cfg.Rand
	if r == nil {
		r = rand.Float64
	}

	t := &Tracker{
		cfg:         cfg,
		stack:       callstack.New(),
		tree:        execution.NewTree(),
		current:     execution.NoParent,
		timers:      make(map[TimerID]*timer),
		leaves:      make(map[execution.ID]bool),
		metrics:     report.NewMetrics(),
		stats:       report.NewStats(),
		slow:        report.NewSlowCallLog(cfg.SlowLogSize),
		warnLimiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 10),
		rand:        r,
		logger:      cfg.Logger,
	}
	return t
}

// Default creates a tracker with DefaultConfig
func Default() *Tracker {
	return New(DefaultConfig())
}

// Config returns the effective configuration
func (t *Tracker) Config() Config {
	return t.cfg
}

// Mode returns the tracking mode
func (t *Tracker) Mode() TrackingMode {
	return t.cfg.Mode
}

// Logger returns the tracker's logger
func (t *Tracker) Logger() *logging.Logger {
	return t.logger
}

// Metrics returns cumulative counters. Clear does not reset them.
func (t *Tracker) Metrics() *report.Metrics {
	return t.metrics
}

// Stats returns per-label latency statistics for this session
func (t *Tracker) Stats() *report.Stats {
	return t.stats
}

// SlowCalls returns up to n recent slow calls, newest first
func (t *Tracker) SlowCalls(n int) []report.SlowCall {
	return t.slow.GetRecent(n)
}

// CallStack returns a copy of the labels of open calls, outermost first
func (t *Tracker) CallStack() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stack.Snapshot()
}

// Snapshot returns an immutable copy of the record tree
func (t *Tracker) Snapshot() execution.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.Snapshot()
}

// FlowChart renders the session's tree with the mode's detail
func (t *Tracker) FlowChart() string {
	return flow.Render(t.Snapshot(), t.cfg.Mode.RenderOptions())
}

// Clear discards the session: records, stack, current pointer and
// timers. Calls still in flight finish normally but are not recorded.
// Clearing an empty tracker is a no-op.
func (t *Tracker) Clear() {
	t.mu.Lock()
	t.tree.Reset()
	t.stack.Clear()
	t.current = execution.NoParent
	t.timers = make(map[TimerID]*timer)
	t.leaves = make(map[execution.ID]bool)
	t.inflight = 0
	t.session++
	t.mu.Unlock()

	t.slow.Reset()
	t.stats.Reset()
}

// Reset is an alias of Clear
func (t *Tracker) Reset() {
	t.Clear()
}

// sampled draws whether the next call is tracked
func (t *Tracker) sampled() bool {
	switch r := t.cfg.SampleRate; {
	case r >= 1:
		return true
	case r <= 0:
		return false
	default:
		return t.rand() < r
	}
}

func (t *Tracker) skip() {
	t.metrics.IncrSkipped()
}

type ctxKey struct{}

// ctxFrame travels in the context handed to a tracked callable so calls
// made with that context nest under it
type ctxFrame struct {
	tracker *Tracker
	session uint64
	id      execution.ID
}

// frame is the per-invocation state kept between enter and exit
type frame struct {
	id       execution.ID
	prev     execution.ID
	token    callstack.Token
	session  uint64
	label    string
	silent   bool
	memStart observe.MemoryUsage
	memOK    bool
	detached bool
}

func (t *Tracker) parentFromContext(ctx context.Context) (execution.ID, bool) {
	cf, ok := ctx.Value(ctxKey{}).(*ctxFrame)
	if !ok || cf.tracker != t || cf.session != t.session {
		return execution.NoParent, false
	}
	if !t.tree.IsOpen(cf.id) {
		return execution.NoParent, false
	}
	return cf.id, true
}

// enter pushes the call and opens its record
func (t *Tracker) enter(ctx context.Context, s settings) (*frame, context.Context) {
	f := &frame{label: s.label, silent: s.silent}
	if s.memory {
		f.memStart, f.memOK = t.cfg.Memory.MemoryUsage()
	}

	t.mu.Lock()
	depth, token := t.stack.Push(s.label)
	parent := execution.NoParent
	if s.nesting {
		if id, ok := t.parentFromContext(ctx); ok {
			parent = id
		} else if !s.contextOnly && t.tree.IsOpen(t.current) {
			parent = t.current
		}
		if t.leaves[parent] {
			parent = execution.NoParent
		}
	}
	f.id = t.tree.Open(s.label, depth-1, parent, t.cfg.Clock.Now(), s.threshold)
	if !s.nesting {
		t.leaves[f.id] = true
	}
	f.token = token
	f.prev = t.current
	f.session = t.session
	t.current = f.id
	t.inflight++
	t.mu.Unlock()

	t.metrics.IncrStarted()
	if t.cfg.Mode == ModeDebug {
		t.logger.Debug("enter", map[string]interface{}{
			"call":  s.label,
			"level": depth - 1,
		})
	}

	return f, context.WithValue(ctx, ctxKey{}, &ctxFrame{tracker: t, session: f.session, id: f.id})
}

// detach restores the current pointer while an async call is pending.
// The stack frame stays until the future settles.
func (t *Tracker) detach(f *frame) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if f.session != t.session {
		return
	}
	t.tree.MarkAsync(f.id)
	if t.current == f.id {
		t.current = t.tree.NearestOpen(f.prev)
	}
	f.detached = true
}

// exit closes the record, pops the stack and restores the current pointer
func (t *Tracker) exit(f *frame, err error, panicked bool) {
	end := t.cfg.Clock.Now()
	var delta *int64
	if f.memOK {
		if memEnd, ok := t.cfg.Memory.MemoryUsage(); ok {
			d := observe.HeapDelta(f.memStart, memEnd)
			delta = &d
		}
	}

	t.mu.Lock()
	if f.session != t.session {
		t.mu.Unlock()
		return
	}
	rec, ok := t.tree.Close(f.id, execution.CloseInfo{
		EndTime:     end,
		MemoryDelta: delta,
		Err:         err,
		Panicked:    panicked,
	})
	if !ok {
		t.mu.Unlock()
		return
	}
	if !f.detached && t.current == f.id {
		t.current = t.tree.NearestOpen(f.prev)
	} else {
		// another goroutine's call may have left a closed record current
		t.current = t.tree.NearestOpen(t.current)
	}
	t.stack.Remove(f.token)
	delete(t.leaves, f.id)
	t.inflight--
	idle := t.inflight == 0
	var tree execution.Snapshot
	render := rec.IsRoot() && idle && !f.silent
	if render {
		tree = t.tree.Snapshot()
		tree.Roots = []execution.ID{rec.ID}
	}
	t.mu.Unlock()

	t.observeClosed(rec)

	if t.cfg.Mode == ModeDebug {
		t.logger.Debug("exit", map[string]interface{}{
			"call":        rec.Name,
			"duration_ms": rec.DurationMs(),
			"error":       rec.ErrorMessage(),
		})
	}
	if render {
		t.writeChart(flow.Render(tree, t.cfg.Mode.RenderOptions()))
	}
}

// observeClosed feeds a closed record to metrics, stats and the slow log
func (t *Tracker) observeClosed(rec execution.Record) {
	t.metrics.RecordClosed(rec)
	t.stats.Record(rec)
	if t.slow.Record(rec) && t.warnLimiter.Allow() {
		t.logger.Warn("Slow call detected", map[string]interface{}{
			"call":         rec.Name,
			"duration_ms":  rec.DurationMs(),
			"threshold_ms": observe.Millis(rec.Threshold),
			"level":        rec.Level,
		})
	}
}

func (t *Tracker) writeChart(chart string) {
	t.outMu.Lock()
	defer t.outMu.Unlock()
	if _, err := io.WriteString(t.cfg.Output, chart); err != nil {
		t.logger.Warn("Failed to write flow chart", map[string]interface{}{"error": err.Error()})
	}
}

// String implements fmt.Stringer
func (t *Tracker) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fmt.Sprintf("tracker(mode=%s, records=%d, depth=%d)", t.cfg.Mode, t.tree.Len(), t.stack.Depth())
}
