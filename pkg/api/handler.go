// Package api serves a read-mostly HTTP view of a live tracker
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/psantana5/flowtrace/pkg/flow"
	"github.com/psantana5/flowtrace/pkg/logging"
	"github.com/psantana5/flowtrace/pkg/tracker"
)

// Handler exposes one tracker over HTTP
type Handler struct {
	Tracker *tracker.Tracker
	Logger  *logging.Logger
}

// NewHandler creates a handler; a nil logger uses the tracker's
func NewHandler(t *tracker.Tracker, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = t.Logger()
	}
	return &Handler{Tracker: t, Logger: logger}
}

// RegisterRoutes registers all inspector routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/flow", h.HandleFlow).Methods("GET")
	r.HandleFunc("/records", h.HandleRecords).Methods("GET")
	r.HandleFunc("/callstack", h.HandleCallStack).Methods("GET")
	r.HandleFunc("/slow", h.HandleSlowCalls).Methods("GET")
	r.HandleFunc("/stats", h.HandleStats).Methods("GET")
	r.HandleFunc("/reset", h.HandleReset).Methods("POST")
	r.Handle("/metrics", promhttp.HandlerFor(h.Tracker.Metrics().Registry(), promhttp.HandlerOpts{})).Methods("GET")
	r.HandleFunc("/health", h.HandleHealth).Methods("GET")
}

// Router builds a router with every route registered
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// HandleFlow renders the flow chart as text
func (h *Handler) HandleFlow(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.Tracker.FlowChart()))
}

// HandleRecords returns the record tree as nested JSON
func (h *Handler) HandleRecords(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, flow.Nodes(h.Tracker.Snapshot()))
}

// HandleCallStack returns the labels of calls in progress
func (h *Handler) HandleCallStack(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Tracker.CallStack())
}

// HandleSlowCalls returns recent slow calls, newest first; ?n= limits them
func (h *Handler) HandleSlowCalls(w http.ResponseWriter, r *http.Request) {
	n := 20
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			http.Error(w, "n must be a non-negative integer", http.StatusBadRequest)
			return
		}
		n = v
	}
	h.writeJSON(w, http.StatusOK, h.Tracker.SlowCalls(n))
}

// HandleStats returns per-label latency statistics
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Tracker.Stats().Summary())
}

// HandleReset clears the tracker's session
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.Tracker.Clear()
	h.Logger.Info("Tracker cleared", map[string]interface{}{"remote_addr": r.RemoteAddr})
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// HandleHealth reports liveness
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("Failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}
