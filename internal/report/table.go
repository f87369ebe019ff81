package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
)

// StatsTable writes one row per label
func StatsTable(w io.Writer, stats []LabelStats) error {
	if len(stats) == 0 {
		_, err := fmt.Fprintln(w, "No statistics recorded")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("Name", "Count", "Mean", "P50", "P95", "P99", "Max", "Slow", "Failed")
	for _, s := range stats {
		if err := table.Append(
			s.Name,
			strconv.FormatInt(s.Count, 10),
			ms(s.Mean), ms(s.P50), ms(s.P95), ms(s.P99), ms(s.Max),
			strconv.FormatInt(s.Slow, 10),
			strconv.FormatInt(s.Failed, 10),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

func ms(d time.Duration) string {
	return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
}
