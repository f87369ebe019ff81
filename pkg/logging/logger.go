package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log level
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Mode is the deployment mode. Each mode sets a floor under the level:
// development shows everything, staging hides DEBUG, production shows
// only WARN and above.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeStaging     Mode = "staging"
	ModeProduction  Mode = "production"
)

func (m Mode) floor() Level {
	switch m {
	case ModeStaging:
		return INFO
	case ModeProduction:
		return WARN
	default:
		return DEBUG
	}
}

// ParseMode parses a mode string; unknown values are an error
func ParseMode(mode string) (Mode, error) {
	switch strings.ToLower(mode) {
	case "", "dev", "development":
		return ModeDevelopment, nil
	case "staging", "stage":
		return ModeStaging, nil
	case "prod", "production":
		return ModeProduction, nil
	default:
		return "", fmt.Errorf("unknown log mode %q", mode)
	}
}

// shared is the state every derived logger writes through
type shared struct {
	mu     sync.Mutex
	output io.Writer
	indent int
}

// Logger provides structured logging with level and mode filtering
type Logger struct {
	level      Level
	mode       Mode
	jsonFormat bool
	fields     map[string]interface{}
	out        *shared
}

// NewLogger creates a new logger
func NewLogger(level Level, jsonFormat bool) *Logger {
	return &Logger{
		level:      level,
		mode:       ModeDevelopment,
		jsonFormat: jsonFormat,
		fields:     make(map[string]interface{}),
		out:        &shared{output: os.Stdout},
	}
}

// Discard returns a logger that writes nothing
func Discard() *Logger {
	l := NewLogger(FATAL+1, false)
	l.SetOutput(io.Discard)
	return l
}

// SetOutput sets the output writer
func (l *Logger) SetOutput(w io.Writer) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.output = w
}

// SetMode sets the deployment mode filter
func (l *Logger) SetMode(mode Mode) {
	l.mode = mode
}

// Mode returns the deployment mode
func (l *Logger) Mode() Mode {
	return l.mode
}

// Enabled reports whether a message at level would be written
func (l *Logger) Enabled(level Level) bool {
	return level >= l.level && level >= l.mode.floor()
}

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Group     int                    `json:"group,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// log writes a log entry
func (l *Logger) log(level Level, message string, fields map[string]interface{}) {
	if !l.Enabled(level) {
		return
	}

	// Merge logger fields and call fields
	mergedFields := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		mergedFields[k] = v
	}
	for k, v := range fields {
		mergedFields[k] = v
	}

	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	if l.jsonFormat {
		entry := LogEntry{
			Timestamp: time.Now().Format(time.RFC3339),
			Level:     level.String(),
			Message:   message,
			Group:     l.out.indent,
			Fields:    mergedFields,
		}
		data, err := json.Marshal(entry)
		if err != nil {
			log.Printf("Failed to marshal log entry: %v", err)
			return
		}
		fmt.Fprintln(l.out.output, string(data))
	} else {
		timestamp := time.Now().Format("2006-01-02 15:04:05")
		fmt.Fprintf(l.out.output, "[%s] %s: %s%s", timestamp, level.String(), strings.Repeat("  ", l.out.indent), message)
		if len(mergedFields) > 0 {
			fmt.Fprintf(l.out.output, " %s", formatFields(mergedFields))
		}
		fmt.Fprintln(l.out.output)
	}

	if level == FATAL {
		os.Exit(1)
	}
}

// formatFields prints fields as sorted key=value pairs
func formatFields(fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(parts, " ")
}

// Debug logs a debug message
func (l *Logger) Debug(message string, fields ...map[string]interface{}) {
	var f map[string]interface{}
	if len(fields) > 0 {
		f = fields[0]
	}
	l.log(DEBUG, message, f)
}

// Info logs an info message
func (l *Logger) Info(message string, fields ...map[string]interface{}) {
	var f map[string]interface{}
	if len(fields) > 0 {
		f = fields[0]
	}
	l.log(INFO, message, f)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields ...map[string]interface{}) {
	var f map[string]interface{}
	if len(fields) > 0 {
		f = fields[0]
	}
	l.log(WARN, message, f)
}

// Error logs an error message
func (l *Logger) Error(message string, fields ...map[string]interface{}) {
	var f map[string]interface{}
	if len(fields) > 0 {
		f = fields[0]
	}
	l.log(ERROR, message, f)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(message string, fields ...map[string]interface{}) {
	var f map[string]interface{}
	if len(fields) > 0 {
		f = fields[0]
	}
	l.log(FATAL, message, f)
}

// Group logs a header at INFO and indents everything after it until GroupEnd
func (l *Logger) Group(name string) {
	l.log(INFO, name, nil)
	l.out.mu.Lock()
	l.out.indent++
	l.out.mu.Unlock()
}

// GroupEnd closes the innermost group
func (l *Logger) GroupEnd() {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	if l.out.indent > 0 {
		l.out.indent--
	}
}

// WithField adds a field to the logger context
func (l *Logger) WithField(key string, value interface{}) *Logger {
	// Copy fields to avoid mutation
	newFields := make(map[string]interface{}, len(l.fields)+1)
	for k, v := range l.fields {
		newFields[k] = v
	}
	newFields[key] = value
	return &Logger{
		level:      l.level,
		mode:       l.mode,
		jsonFormat: l.jsonFormat,
		out:        l.out,
		fields:     newFields,
	}
}

// ParseLevel parses a log level string
func ParseLevel(level string) Level {
	switch level {
	case "DEBUG", "debug":
		return DEBUG
	case "INFO", "info":
		return INFO
	case "WARN", "warn", "WARNING", "warning":
		return WARN
	case "ERROR", "error":
		return ERROR
	case "FATAL", "fatal":
		return FATAL
	default:
		return INFO
	}
}
