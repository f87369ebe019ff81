package tracker

import (
	"errors"
	"fmt"
)

// Tracker errors. Errors returned by tracked callables are never wrapped
// in these; they pass through untouched.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrTimerNotFound   = errors.New("timer not found")
)

// Error describes a failure of the tracker API itself
type Error struct {
	Op      string // "track", "wrap", "register_module", "end_timer", ...
	Kind    error  // ErrInvalidArgument or ErrTimerNotFound
	Label   string
	Message string
}

// Error implements error interface
func (e *Error) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("flowtrace: %s %q: %v: %s", e.Op, e.Label, e.Kind, e.Message)
	}
	return fmt.Sprintf("flowtrace: %s: %v: %s", e.Op, e.Kind, e.Message)
}

// Unwrap implements error unwrapping
func (e *Error) Unwrap() error {
	return e.Kind
}

func invalidArgument(op, label, message string) *Error {
	return &Error{Op: op, Kind: ErrInvalidArgument, Label: label, Message: message}
}

func timerNotFound(id TimerID) *Error {
	return &Error{Op: "end_timer", Kind: ErrTimerNotFound, Message: fmt.Sprintf("no running timer with id %s", id)}
}
