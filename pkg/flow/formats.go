package flow

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/psantana5/flowtrace/pkg/execution"
)

// Node is the nested form of a record used by JSON and YAML output
type Node struct {
	Name        string  `json:"name" yaml:"name"`
	Level       int     `json:"level" yaml:"level"`
	DurationMs  float64 `json:"duration_ms" yaml:"duration_ms"`
	ThresholdMs float64 `json:"threshold_ms" yaml:"threshold_ms"`
	IsSlow      bool    `json:"is_slow" yaml:"is_slow"`
	MemoryDelta *int64  `json:"memory_delta,omitempty" yaml:"memory_delta,omitempty"`
	Async       bool    `json:"async,omitempty" yaml:"async,omitempty"`
	Running     bool    `json:"running,omitempty" yaml:"running,omitempty"`
	Error       string  `json:"error,omitempty" yaml:"error,omitempty"`
	Children    []Node  `json:"children,omitempty" yaml:"children,omitempty"`
}

// Nodes converts the snapshot into nested nodes, roots in entry order
func Nodes(snap execution.Snapshot) []Node {
	roots := snap.RootRecords()
	out := make([]Node, 0, len(roots))
	for _, rec := range roots {
		out = append(out, toNode(snap, rec))
	}
	return out
}

func toNode(snap execution.Snapshot, rec *execution.Record) Node {
	n := Node{
		Name:        rec.Name,
		Level:       rec.Level,
		DurationMs:  rec.DurationMs(),
		ThresholdMs: float64(rec.Threshold.Microseconds()) / 1000,
		IsSlow:      rec.IsSlow,
		MemoryDelta: rec.MemoryDelta,
		Async:       rec.Async,
		Running:     !rec.Closed,
		Error:       rec.ErrorMessage(),
	}
	for _, child := range snap.Children(rec.ID) {
		n.Children = append(n.Children, toNode(snap, child))
	}
	return n
}

// JSON renders the nested tree as indented JSON
func JSON(snap execution.Snapshot) ([]byte, error) {
	return json.MarshalIndent(Nodes(snap), "", "  ")
}

// YAML renders the nested tree as YAML
func YAML(snap execution.Snapshot) ([]byte, error) {
	return yaml.Marshal(Nodes(snap))
}

// Table writes a flat depth-first table of records
func Table(w io.Writer, snap execution.Snapshot) error {
	if snap.Empty() {
		_, err := fmt.Fprintln(w, emptyMessage)
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("Name", "Level", "Duration", "Slow", "Memory", "Error")

	var appendErr error
	snap.Walk(func(rec *execution.Record, _ int) bool {
		duration := "running"
		if rec.Closed {
			duration = FormatDuration(rec.Duration)
		}
		memory := "-"
		if rec.MemoryDelta != nil {
			memory = FormatMemoryDelta(*rec.MemoryDelta)
		}
		slow := "No"
		if rec.IsSlow {
			slow = "Yes"
		}
		errText := rec.ErrorMessage()
		if errText == "" {
			errText = "-"
		}
		if err := table.Append(indentName(rec), strconv.Itoa(rec.Level), duration, slow, memory, errText); err != nil {
			appendErr = err
			return false
		}
		return true
	})
	if appendErr != nil {
		return appendErr
	}

	return table.Render()
}

func indentName(rec *execution.Record) string {
	prefix := ""
	for i := 0; i < rec.Level; i++ {
		prefix += "  "
	}
	return prefix + rec.Name
}
