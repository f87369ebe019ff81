package report

// If tracking breaks, the tracked call MUST still run.
// If we are unsure, DO LESS.
// Observe the call. Never change its outcome.

import (
	"bytes"
	"fmt"

	"github.com/prometheus/common/expfmt"
)

// PrometheusExport renders this instance's registry in text exposition format
func (m *Metrics) PrometheusExport() (string, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return "", fmt.Errorf("failed to gather metrics: %w", err)
	}

	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := encoder.Encode(mf); err != nil {
			return "", fmt.Errorf("failed to encode metric %s: %w", mf.GetName(), err)
		}
	}

	// Plain counters that live outside the registry
	snapshot := m.Snapshot()
	buf.WriteString("# HELP flowtrace_calls_started_total Tracked calls entered\n")
	buf.WriteString("# TYPE flowtrace_calls_started_total counter\n")
	buf.WriteString(fmt.Sprintf("flowtrace_calls_started_total %d\n", snapshot["calls_started"]))
	buf.WriteString("# HELP flowtrace_timers_ended_total Timer handles ended\n")
	buf.WriteString("# TYPE flowtrace_timers_ended_total counter\n")
	buf.WriteString(fmt.Sprintf("flowtrace_timers_ended_total %d\n", snapshot["timers_ended"]))

	return buf.String(), nil
}
