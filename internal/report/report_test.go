package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psantana5/flowtrace/pkg/execution"
)

func closed(name string, d, threshold time.Duration, err error) execution.Record {
	tree := execution.NewTree()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return tree.AddClosed(name, start, threshold, execution.CloseInfo{EndTime: start.Add(d), Err: err})
}

func TestSlowCallLogRingBuffer(t *testing.T) {
	log := NewSlowCallLog(2)

	assert.False(t, log.Record(closed("fast", time.Millisecond, 100*time.Millisecond, nil)))
	assert.True(t, log.Record(closed("one", 200*time.Millisecond, 100*time.Millisecond, nil)))
	assert.True(t, log.Record(closed("two", 300*time.Millisecond, 100*time.Millisecond, errors.New("bad"))))
	assert.True(t, log.Record(closed("three", 400*time.Millisecond, 100*time.Millisecond, nil)))

	require.Equal(t, 2, log.Count())
	recent := log.GetRecent(10)
	require.Len(t, recent, 2)
	assert.Equal(t, "three", recent[0].Name)
	assert.Equal(t, "two", recent[1].Name)
	assert.Equal(t, "bad", recent[1].Error)
	assert.Equal(t, 100.0, recent[1].ThresholdMs)

	assert.Len(t, log.GetRecent(1), 1)

	log.Reset()
	assert.Equal(t, 0, log.Count())
}

func TestMetricsRecordClosed(t *testing.T) {
	m := NewMetrics()
	m.IncrStarted()
	m.IncrStarted()
	m.IncrStarted()
	m.RecordClosed(closed("ok", time.Millisecond, time.Second, nil))
	m.RecordClosed(closed("fail", 2*time.Second, time.Second, errors.New("x")))

	tree := execution.NewTree()
	id := tree.Open("panic", 0, execution.NoParent, time.Time{}, time.Second)
	rec, _ := tree.Close(id, execution.CloseInfo{Panicked: true})
	m.RecordClosed(rec)
	m.IncrSkipped()

	snap := m.Snapshot()
	assert.Equal(t, uint64(3), snap["calls_started"])
	assert.Equal(t, uint64(3), snap["calls_completed"])
	assert.Equal(t, uint64(1), snap["calls_failed"])
	assert.Equal(t, uint64(1), snap["calls_panicked"])
	assert.Equal(t, uint64(1), snap["calls_slow"])
	assert.Equal(t, uint64(1), snap["calls_skipped"])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.slow.WithLabelValues("fail")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outcomes.WithLabelValues("ok")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.duration))
}

func TestPrometheusExport(t *testing.T) {
	m := NewMetrics()
	m.IncrStarted()
	m.IncrTimerEnded()
	m.RecordClosed(closed("load", 150*time.Millisecond, 100*time.Millisecond, nil))

	out, err := m.PrometheusExport()
	require.NoError(t, err)

	for _, want := range []string{
		`flowtrace_call_duration_seconds_count{name="load"} 1`,
		`flowtrace_slow_calls_total{name="load"} 1`,
		`flowtrace_calls_total{outcome="ok"} 1`,
		"flowtrace_calls_started_total 1",
		"flowtrace_timers_ended_total 1",
	} {
		assert.Contains(t, out, want)
	}
}

func TestStatsSummary(t *testing.T) {
	s := NewStats()
	for i := 1; i <= 100; i++ {
		s.Record(closed("query", time.Duration(i)*time.Millisecond, 90*time.Millisecond, nil))
	}
	s.Record(closed("auth", 0, time.Second, errors.New("denied")))

	summary := s.Summary()
	require.Len(t, summary, 2)
	assert.Equal(t, "auth", summary[0].Name)
	assert.Equal(t, int64(1), summary[0].Failed)
	assert.Equal(t, minLatency, summary[0].Max.Round(time.Microsecond))

	q := summary[1]
	assert.Equal(t, "query", q.Name)
	assert.Equal(t, int64(100), q.Count)
	assert.Equal(t, int64(10), q.Slow)
	assert.InDelta(t, float64(50*time.Millisecond), float64(q.P50), float64(time.Millisecond))
	assert.InDelta(t, float64(95*time.Millisecond), float64(q.P95), float64(time.Millisecond))
	assert.InDelta(t, float64(100*time.Millisecond), float64(q.Max), float64(time.Millisecond))
}

func TestStatsPlot(t *testing.T) {
	s := NewStats()
	assert.Empty(t, s.Plot(5))

	for _, ms := range []int{5, 20, 10, 40} {
		s.Record(closed("root", time.Duration(ms)*time.Millisecond, time.Second, nil))
	}
	plot := s.Plot(5)
	assert.True(t, strings.Contains(plot, "root call duration (ms)"))

	s.Reset()
	assert.Empty(t, s.Summary())
	assert.Empty(t, s.Plot(5))
}

func TestStatsTable(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, StatsTable(&buf, nil))
	assert.Equal(t, "No statistics recorded\n", buf.String())

	s := NewStats()
	s.Record(closed("parse", 2*time.Millisecond, time.Millisecond, nil))
	s.Record(closed("parse", 4*time.Millisecond, time.Millisecond, errors.New("bad")))

	buf.Reset()
	require.NoError(t, StatsTable(&buf, s.Summary()))
	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "P95")
	assert.Contains(t, out, "parse")
}
