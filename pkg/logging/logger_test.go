package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WARN, false)
	logger.SetOutput(&buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("INFO should be filtered at WARN level, got %q", out)
	}
	if !strings.Contains(out, "WARN: shown") {
		t.Errorf("Expected WARN line, got %q", out)
	}
}

func TestModeFloor(t *testing.T) {
	tests := []struct {
		name      string
		mode      Mode
		level     Level
		wantShown bool
	}{
		{"Development shows debug", ModeDevelopment, DEBUG, true},
		{"Staging hides debug", ModeStaging, DEBUG, false},
		{"Staging shows info", ModeStaging, INFO, true},
		{"Production hides info", ModeProduction, INFO, false},
		{"Production shows warn", ModeProduction, WARN, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(DEBUG, false)
			logger.SetMode(tt.mode)
			if got := logger.Enabled(tt.level); got != tt.wantShown {
				t.Errorf("Enabled(%v) in %s = %v, want %v", tt.level, tt.mode, got, tt.wantShown)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	for input, want := range map[string]Mode{
		"":           ModeDevelopment,
		"dev":        ModeDevelopment,
		"staging":    ModeStaging,
		"PRODUCTION": ModeProduction,
	} {
		got, err := ParseMode(input)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", input, got, err, want)
		}
	}

	if _, err := ParseMode("qa"); err == nil {
		t.Error("Expected error for unknown mode")
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != DEBUG || ParseLevel("warning") != WARN || ParseLevel("bogus") != INFO {
		t.Error("ParseLevel returned unexpected levels")
	}
}

func TestJSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(INFO, true).WithField("tracker", "demo")
	logger.SetOutput(&buf)

	logger.Info("slow call", map[string]interface{}{"name": "load"})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	if entry.Level != "INFO" || entry.Message != "slow call" {
		t.Errorf("Unexpected entry: %+v", entry)
	}
	if entry.Fields["tracker"] != "demo" || entry.Fields["name"] != "load" {
		t.Errorf("Expected merged fields, got %v", entry.Fields)
	}
}

func TestGroupIndentation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(INFO, false)
	logger.SetOutput(&buf)

	logger.Group("outer")
	logger.Info("inside")
	logger.GroupEnd()
	logger.GroupEnd()
	logger.Info("after")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[1], "INFO:   inside") {
		t.Errorf("Expected indented line, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "INFO: after") {
		t.Errorf("Expected unindented line, got %q", lines[2])
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	if logger.Enabled(ERROR) {
		t.Error("Discard logger should not be enabled for any level below FATAL+1")
	}
	logger.Error("nothing")
}

func TestFieldsSorted(t *testing.T) {
	got := formatFields(map[string]interface{}{"b": 2, "a": 1})
	if got != "a=1 b=2" {
		t.Errorf("Expected sorted fields, got %q", got)
	}
}
