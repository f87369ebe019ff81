package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/psantana5/flowtrace/internal/report"
	"github.com/psantana5/flowtrace/pkg/config"
	"github.com/psantana5/flowtrace/pkg/export"
	"github.com/psantana5/flowtrace/pkg/flow"
	"github.com/psantana5/flowtrace/pkg/tracker"
)

var (
	cfgFile      string
	outputFormat string
	otlpEndpoint string

	trackerConfig tracker.Config
	settings      *config.Settings
	configErr     error
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "flowtrace",
	Short: "Function execution tracking and flow charts",
	Long: `flowtrace instruments function calls: it times them, samples heap growth,
flags calls slower than a threshold and draws the tree of nested calls.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.flowtrace/config.yaml or ./flowtrace.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, table, json, yaml or spans")
	rootCmd.PersistentFlags().StringVar(&otlpEndpoint, "otlp-endpoint", "", "also push the tree to this OTLP/HTTP collector (host:port)")
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	trackerConfig, settings, configErr = config.Load(cfgFile)
}

// loadedConfig returns the configuration or the error that loading hit
func loadedConfig() (tracker.Config, *config.Settings, error) {
	if configErr != nil {
		return tracker.Config{}, nil, configErr
	}
	return trackerConfig, settings, nil
}

// newTracker builds a tracker from the loaded config that never
// auto-renders; commands print in the requested format instead
func newTracker() (*tracker.Tracker, *config.Settings, error) {
	cfg, s, err := loadedConfig()
	if err != nil {
		return nil, nil, err
	}
	cfg.Silent = true
	cfg.Logger.SetOutput(os.Stderr)
	return tracker.New(cfg), s, nil
}

// printTree writes the session in the requested output format
func printTree(ctx context.Context, w io.Writer, tr *tracker.Tracker) error {
	snap := tr.Snapshot()

	switch outputFormat {
	case "text", "":
		_, err := io.WriteString(w, tr.FlowChart())
		return err
	case "table":
		return flow.Table(w, snap)
	case "json":
		data, err := flow.JSON(snap)
		if err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		data, err := flow.YAML(snap)
		if err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	case "spans":
		spans, err := export.Replay(ctx, snap)
		if err != nil {
			return fmt.Errorf("failed to replay spans: %w", err)
		}
		return printSpans(w, spans)
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
}

// pushSpans sends the session to the OTLP collector named by
// --otlp-endpoint or otlp_endpoint. Without one it does nothing.
func pushSpans(ctx context.Context, w io.Writer, tr *tracker.Tracker, s *config.Settings) error {
	endpoint := otlpEndpoint
	if endpoint == "" && s != nil {
		endpoint = s.OTLPEndpoint
	}
	if endpoint == "" {
		return nil
	}

	n, err := export.Push(ctx, endpoint, tr.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to push spans: %w", err)
	}
	_, err = fmt.Fprintf(w, "Pushed %d spans to %s\n", n, endpoint)
	return err
}

func printSpans(w io.Writer, spans []export.SpanSummary) error {
	for _, s := range spans {
		parent := s.ParentID
		if parent == "" {
			parent = "-"
		}
		if _, err := fmt.Fprintf(w, "%s  span=%s parent=%s %s status=%s\n",
			s.TraceID, s.SpanID, parent, flow.FormatDuration(s.Duration), s.Status); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "    %s\n", s.Name); err != nil {
			return err
		}
	}
	return nil
}

// printStats writes per-label statistics and the root duration plot
func printStats(w io.Writer, stats *report.Stats) error {
	if err := report.StatsTable(w, stats.Summary()); err != nil {
		return err
	}
	if plot := stats.Plot(8); plot != "" {
		_, err := fmt.Fprintf(w, "\n%s\n", plot)
		return err
	}
	return nil
}
