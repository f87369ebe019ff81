package report

// If tracking breaks, the tracked call MUST still run.
// If we are unsure, DO LESS.
// Observe the call. Never change its outcome.

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/psantana5/flowtrace/pkg/execution"
)

// Metrics are boring counters plus one duration histogram.
// Every counter must be explainable by looking at the recorded tree.
// Each tracker owns its own Metrics and registry; nothing is global.
type Metrics struct {
	// Call lifecycle
	CallsStarted   atomic.Uint64 // Incremented at entry of a sampled-in call
	CallsCompleted atomic.Uint64 // Incremented when a record closes (any outcome)
	CallsFailed    atomic.Uint64 // Closed with a returned error
	CallsPanicked  atomic.Uint64 // Closed by a panic
	CallsSlow      atomic.Uint64 // Closed over threshold
	CallsSkipped   atomic.Uint64 // Not sampled, ran untracked
	TimersEnded    atomic.Uint64 // Timer handles ended

	registry *prometheus.Registry
	duration *prometheus.HistogramVec
	slow     *prometheus.CounterVec
	outcomes *prometheus.CounterVec
}

// NewMetrics creates counters backed by a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flowtrace_call_duration_seconds",
				Help:    "Wall-clock duration of tracked calls",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"name"},
		),
		slow: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowtrace_slow_calls_total",
				Help: "Tracked calls that exceeded their threshold",
			},
			[]string{"name"},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowtrace_calls_total",
				Help: "Closed tracked calls by outcome",
			},
			[]string{"outcome"},
		),
	}

	m.registry.MustRegister(m.duration, m.slow, m.outcomes)
	return m
}

// Registry returns the registry holding this instance's collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// IncrStarted increments calls started counter
func (m *Metrics) IncrStarted() {
	m.CallsStarted.Add(1)
}

// IncrSkipped increments the un-sampled counter
func (m *Metrics) IncrSkipped() {
	m.CallsSkipped.Add(1)
	m.outcomes.WithLabelValues("skipped").Inc()
}

// IncrTimerEnded increments the timer counter
func (m *Metrics) IncrTimerEnded() {
	m.TimersEnded.Add(1)
}

// RecordClosed updates all counters from a single closed record.
// This is the ONLY way closed-call metrics change.
func (m *Metrics) RecordClosed(rec execution.Record) {
	m.CallsCompleted.Add(1)

	outcome := "ok"
	switch {
	case rec.Panicked:
		m.CallsPanicked.Add(1)
		outcome = "panic"
	case rec.Err != nil:
		m.CallsFailed.Add(1)
		outcome = "error"
	}
	m.outcomes.WithLabelValues(outcome).Inc()

	if rec.IsSlow {
		m.CallsSlow.Add(1)
		m.slow.WithLabelValues(rec.Name).Inc()
	}

	m.duration.WithLabelValues(rec.Name).Observe(rec.Duration.Seconds())
}

// Snapshot returns current counter values
func (m *Metrics) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"calls_started":   m.CallsStarted.Load(),
		"calls_completed": m.CallsCompleted.Load(),
		"calls_failed":    m.CallsFailed.Load(),
		"calls_panicked":  m.CallsPanicked.Load(),
		"calls_slow":      m.CallsSlow.Load(),
		"calls_skipped":   m.CallsSkipped.Load(),
		"timers_ended":    m.TimersEnded.Load(),
	}
}
