package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/psantana5/flowtrace/internal/demo"
	"github.com/psantana5/flowtrace/pkg/api"
	"github.com/psantana5/flowtrace/pkg/middleware"
	"github.com/psantana5/flowtrace/pkg/tracker"
)

var (
	serveListen string
	serveDemo   bool
	serveAPIKey string
	serveTrack  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP inspector",
	Long: `Starts an HTTP server exposing the tracker:

  GET  /flow       flow chart (text)
  GET  /records    record tree (json)
  GET  /callstack  calls in progress
  GET  /slow?n=    recent slow calls
  GET  /stats      per-label statistics
  POST /reset      clear the session
  GET  /metrics    Prometheus metrics
  GET  /health`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default from config, :9464)")
	serveCmd.Flags().BoolVar(&serveDemo, "demo", true, "run the demo workload before serving")
	serveCmd.Flags().BoolVar(&serveTrack, "track-requests", true, "record inspector requests in the tree")
	serveCmd.Flags().StringVar(&serveAPIKey, "api-key", os.Getenv("FLOWTRACE_API_KEY"), "require this bearer token on every route but /health")
}

func runServe(cmd *cobra.Command, args []string) error {
	tr, s, err := newTracker()
	if err != nil {
		return err
	}
	logger := tr.Logger().WithField("component", "inspector")

	addr := serveListen
	if addr == "" {
		addr = s.ListenAddr
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Warn("Received signal, shutting down", map[string]interface{}{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
	}()

	if serveDemo {
		if err := demo.Run(ctx, tr); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("demo workload failed: %w", err)
		}
	}

	router := api.NewHandler(tr, logger).Router()
	router.Use(middleware.RequireAPIKey(serveAPIKey, "/health"))
	if serveTrack {
		router.Use(middleware.TrackRequests(tr, tracker.WithSilent(true)))
	}
	if serveAPIKey == "" {
		logger.Warn("Inspector is unauthenticated; set --api-key to protect /reset")
	}

	logger.Group("Routes")
	_ = router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, _ := route.GetMethods()
		logger.Info(path, map[string]interface{}{"methods": methods})
		return nil
	})
	logger.GroupEnd()

	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(cmd.OutOrStdout(), "Inspector listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
