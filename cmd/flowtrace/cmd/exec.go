package cmd

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/psantana5/flowtrace/internal/wrapper"
	"github.com/psantana5/flowtrace/pkg/config"
	"github.com/psantana5/flowtrace/pkg/tracker"
)

var execThreshold string

var execCmd = &cobra.Command{
	Use:   "exec -- <command> [args...]",
	Short: "Run an external command as a tracked call",
	Long: `Runs the command with its output forwarded, then prints the tracked call.
The command's exit code is passed through.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
	execCmd.Flags().StringVar(&execThreshold, "threshold", "", "slow threshold for the command (e.g. 2s or 500)")
}

// ExitCodeError carries a wrapped command's non-zero exit code
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("command exited with code %d", e.Code)
}

func runExec(cmd *cobra.Command, args []string) error {
	tr, s, err := newTracker()
	if err != nil {
		return err
	}

	var opts []tracker.Option
	if execThreshold != "" {
		d, err := config.ParseThreshold(execThreshold)
		if err != nil {
			return fmt.Errorf("invalid --threshold: %w", err)
		}
		opts = append(opts, tracker.WithThreshold(d))
	}

	res, runErr := wrapper.Run(cmd.Context(), tr, args[0], args[1:], wrapper.Options{
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
		Track:  opts,
	})

	if err := printTree(cmd.Context(), cmd.OutOrStdout(), tr); err != nil {
		return err
	}
	if err := pushSpans(cmd.Context(), cmd.ErrOrStderr(), tr, s); err != nil {
		return err
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) && res != nil {
		return &ExitCodeError{Code: res.ExitCode}
	}
	return runErr
}
