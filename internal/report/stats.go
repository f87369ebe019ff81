package report

// If tracking breaks, the tracked call MUST still run.
// If we are unsure, DO LESS.
// Observe the call. Never change its outcome.

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/guptarohit/asciigraph"

	"github.com/psantana5/flowtrace/pkg/execution"
)

const (
	minLatency = time.Microsecond
	maxLatency = 10 * time.Minute
	maxSeries  = 512
)

// LabelStats summarizes the durations recorded for one label
type LabelStats struct {
	Name   string        `json:"name" yaml:"name"`
	Count  int64         `json:"count" yaml:"count"`
	Mean   time.Duration `json:"mean" yaml:"mean"`
	P50    time.Duration `json:"p50" yaml:"p50"`
	P95    time.Duration `json:"p95" yaml:"p95"`
	P99    time.Duration `json:"p99" yaml:"p99"`
	Max    time.Duration `json:"max" yaml:"max"`
	Slow   int64         `json:"slow" yaml:"slow"`
	Failed int64         `json:"failed" yaml:"failed"`
}

type namedHistogram struct {
	hist   *hdrhistogram.Histogram
	slow   int64
	failed int64
}

// Stats keeps per-label latency histograms for a tracking session
type Stats struct {
	mu         sync.Mutex
	histograms map[string]*namedHistogram
	// root durations in close order, for plotting
	series []float64
}

// NewStats creates empty statistics
func NewStats() *Stats {
	return &Stats{histograms: make(map[string]*namedHistogram)}
}

func newHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(minLatency.Nanoseconds(), maxLatency.Nanoseconds(), 3)
}

// Record adds a closed record
func (s *Stats) Record(rec execution.Record) {
	elapsed := rec.Duration
	if elapsed < minLatency {
		elapsed = minLatency
	} else if elapsed > maxLatency {
		elapsed = maxLatency
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.histograms[rec.Name]
	if !ok {
		h = &namedHistogram{hist: newHistogram()}
		s.histograms[rec.Name] = h
	}
	// Values are clamped to the histogram range so this cannot fail.
	_ = h.hist.RecordValue(elapsed.Nanoseconds())
	if rec.IsSlow {
		h.slow++
	}
	if rec.Failed() {
		h.failed++
	}

	if rec.IsRoot() {
		if len(s.series) >= maxSeries {
			s.series = s.series[1:]
		}
		s.series = append(s.series, rec.DurationMs())
	}
}

// Summary returns per-label statistics sorted by name
func (s *Stats) Summary() []LabelStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]LabelStats, 0, len(s.histograms))
	for name, h := range s.histograms {
		out = append(out, LabelStats{
			Name:   name,
			Count:  h.hist.TotalCount(),
			Mean:   time.Duration(h.hist.Mean()),
			P50:    time.Duration(h.hist.ValueAtQuantile(50)),
			P95:    time.Duration(h.hist.ValueAtQuantile(95)),
			P99:    time.Duration(h.hist.ValueAtQuantile(99)),
			Max:    time.Duration(h.hist.Max()),
			Slow:   h.slow,
			Failed: h.failed,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Plot draws root-call durations (ms) in close order.
// Returns "" when nothing has been recorded.
func (s *Stats) Plot(height int) string {
	s.mu.Lock()
	series := make([]float64, len(s.series))
	copy(series, s.series)
	s.mu.Unlock()

	if len(series) == 0 {
		return ""
	}
	if height <= 0 {
		height = 8
	}
	return asciigraph.Plot(series, asciigraph.Height(height), asciigraph.Caption("root call duration (ms)"))
}

// Reset drops all histograms
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histograms = make(map[string]*namedHistogram)
	s.series = nil
}
