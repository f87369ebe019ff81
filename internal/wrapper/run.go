package wrapper

// If tracking breaks, the workload MUST continue.
// If we are unsure, DO LESS.
// Observe the process. Never change its outcome.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/psantana5/flowtrace/pkg/tracker"
)

// Result is what we observed about one command
type Result struct {
	Command  string
	PID      int
	ExitCode int
}

// Options configures a wrapped command
type Options struct {
	Stdout io.Writer
	Stderr io.Writer
	Track  []tracker.Option
}

// Run spawns command as a tracked call labelled "exec:<name>".
// A non-zero exit closes the record as failed and is returned as an
// *exec.ExitError; the exit code is reported either way.
func Run(ctx context.Context, tr *tracker.Tracker, command string, args []string, opts Options) (*Result, error) {
	if command == "" {
		return nil, errors.New("no command given")
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	trackOpts := append([]tracker.Option{tracker.WithLabel("exec:" + filepath.Base(command))}, opts.Track...)
	return tracker.Track(ctx, tr, func(ctx context.Context) (*Result, error) {
		cmd := exec.CommandContext(ctx, command, args...)
		detach(cmd)
		cmd.Stdout = opts.Stdout
		cmd.Stderr = opts.Stderr

		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("failed to start: %w", err)
		}

		result := &Result{Command: command, PID: cmd.Process.Pid}
		err := cmd.Wait()
		result.ExitCode = cmd.ProcessState.ExitCode()
		return result, err
	}, trackOpts...)
}
