// Package flow renders a finished execution tree as text.
//
// Every renderer here is a pure function of its snapshot: nothing is
// mutated and the same input always yields the same output.
package flow

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/psantana5/flowtrace/pkg/execution"
)

// Options controls how much detail a flow chart carries
type Options struct {
	Title          string
	ShowMemory     bool
	ShowThreshold  bool
	ShowTimestamps bool
}

// DefaultOptions is the balanced rendering
func DefaultOptions() Options {
	return Options{
		Title:      "Execution Flow",
		ShowMemory: true,
	}
}

const emptyMessage = "No executions recorded"

// Render draws the tree depth-first with box-drawing guides
func Render(snap execution.Snapshot, opts Options) string {
	var b strings.Builder

	if opts.Title != "" {
		b.WriteString(opts.Title)
		b.WriteString("\n")
		b.WriteString(strings.Repeat("═", runeLen(opts.Title)))
		b.WriteString("\n")
	}

	if snap.Empty() {
		b.WriteString(emptyMessage)
		b.WriteString("\n")
		return b.String()
	}

	roots := snap.RootRecords()
	for i, rec := range roots {
		renderNode(&b, snap, rec, "", i == len(roots)-1, true, opts)
	}

	total, slow, failed := summarize(snap)
	b.WriteString(fmt.Sprintf("\n%d calls, %d slow, %d failed\n", total, slow, failed))
	return b.String()
}

func renderNode(b *strings.Builder, snap execution.Snapshot, rec *execution.Record, prefix string, last, root bool, opts Options) {
	connector := "├─ "
	childPrefix := prefix + "│  "
	if last {
		connector = "└─ "
		childPrefix = prefix + "   "
	}
	if root {
		connector = "▶ "
		childPrefix = "  "
	}

	b.WriteString(prefix)
	b.WriteString(connector)
	b.WriteString(Line(rec, opts))
	b.WriteString("\n")

	children := snap.Children(rec.ID)
	for i, child := range children {
		renderNode(b, snap, child, childPrefix, i == len(children)-1, false, opts)
	}
}

// Line formats one record without guides
func Line(rec *execution.Record, opts Options) string {
	var b strings.Builder
	b.WriteString(rec.Name)

	if !rec.Closed {
		b.WriteString(" (running)")
	} else {
		b.WriteString(" (")
		b.WriteString(FormatDuration(rec.Duration))
		if opts.ShowThreshold {
			b.WriteString(" / ")
			b.WriteString(FormatDuration(rec.Threshold))
		}
		b.WriteString(")")
	}

	if rec.Async {
		b.WriteString(" [ASYNC]")
	}
	if rec.IsSlow {
		b.WriteString(" [SLOW]")
	}
	if opts.ShowMemory && rec.MemoryDelta != nil {
		b.WriteString(" ")
		b.WriteString(FormatMemoryDelta(*rec.MemoryDelta))
	}
	if opts.ShowTimestamps {
		b.WriteString(" @")
		b.WriteString(rec.StartTime.Format("15:04:05.000"))
	}
	if rec.Panicked {
		b.WriteString(" [PANIC]")
	} else if rec.Err != nil {
		b.WriteString(" [ERROR: ")
		b.WriteString(rec.Err.Error())
		b.WriteString("]")
	}
	return b.String()
}

func summarize(snap execution.Snapshot) (total, slow, failed int) {
	snap.Walk(func(rec *execution.Record, _ int) bool {
		total++
		if rec.IsSlow {
			slow++
		}
		if rec.Failed() {
			failed++
		}
		return true
	})
	return total, slow, failed
}

// FormatDuration prints sub-millisecond values in µs, seconds above 1s
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%.0fµs", float64(d)/float64(time.Microsecond))
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

// FormatBytes prints a byte count with binary units
func FormatBytes(n int64) string {
	abs := math.Abs(float64(n))
	sign := ""
	if n < 0 {
		sign = "-"
	}
	units := []string{"B", "KB", "MB", "GB", "TB"}
	i := 0
	for abs >= 1024 && i < len(units)-1 {
		abs /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%s%.0f %s", sign, abs, units[i])
	}
	return fmt.Sprintf("%s%.1f %s", sign, abs, units[i])
}

// FormatMemoryDelta prints a signed heap delta. Negative deltas are
// reported as released memory rather than hidden.
func FormatMemoryDelta(delta int64) string {
	if delta < 0 {
		return FormatBytes(delta) + " released"
	}
	return "+" + FormatBytes(delta)
}

func runeLen(s string) int {
	return len([]rune(s))
}
