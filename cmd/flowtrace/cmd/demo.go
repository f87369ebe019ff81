package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psantana5/flowtrace/internal/demo"
)

var (
	demoStats   bool
	demoMetrics bool
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a built-in instrumented workload",
	Long: `Runs a small workload covering nested calls, a slow call, a failing call,
interleaved async calls, recursion, a registered module and a manual timer,
then prints the recorded tree in the chosen output format.`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().BoolVar(&demoStats, "stats", false, "also print per-label latency statistics")
	demoCmd.Flags().BoolVar(&demoMetrics, "metrics", false, "also print Prometheus metrics")
}

func runDemo(cmd *cobra.Command, args []string) error {
	tr, s, err := newTracker()
	if err != nil {
		return err
	}

	if err := demo.Run(cmd.Context(), tr); err != nil {
		return fmt.Errorf("demo workload failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if err := printTree(cmd.Context(), out, tr); err != nil {
		return err
	}
	if demoStats {
		fmt.Fprintln(out)
		if err := printStats(out, tr.Stats()); err != nil {
			return err
		}
	}
	if err := pushSpans(cmd.Context(), cmd.ErrOrStderr(), tr, s); err != nil {
		return err
	}
	if demoMetrics {
		metrics, err := tr.Metrics().PrometheusExport()
		if err != nil {
			return fmt.Errorf("failed to export metrics: %w", err)
		}
		fmt.Fprintf(out, "\n%s", metrics)
	}
	return nil
}
