// Package middleware holds HTTP middleware for services that use a
// tracker: per-request tracking and a bearer API key check.
package middleware

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/psantana5/flowtrace/pkg/tracker"
)

// StatusError marks a tracked request that answered with a 5xx status
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d %s", e.Code, http.StatusText(e.Code))
}

// responseWriter captures the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// TrackRequests tracks every request as a call labelled "METHOD route".
// The request context carries the call, so tracked work done by the
// handler nests under it. Concurrent requests are separate roots.
// Server errors mark the call failed; panics propagate to the server as
// usual.
func TrackRequests(tr *tracker.Tracker, opts ...tracker.Option) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if tr == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			label := r.Method + " " + routeName(r)
			callOpts := append([]tracker.Option{tracker.WithLabel(label), tracker.WithContextParent()}, opts...)

			_ = tr.Run(r.Context(), func(ctx context.Context) error {
				rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
				next.ServeHTTP(rw, r.WithContext(ctx))
				if rw.statusCode >= 500 {
					return &StatusError{Code: rw.statusCode}
				}
				return nil
			}, callOpts...)
		})
	}
}

// routeName prefers the mux path template so /jobs/{id} groups together
func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

// RequireAPIKey rejects requests without "Authorization: Bearer <key>".
// Paths in skip are always allowed. An empty key disables the check.
func RequireAPIKey(key string, skip ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		expected := "Bearer " + key
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range skip {
				if r.URL.Path == p {
					next.ServeHTTP(w, r)
					return
				}
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
				return
			}
			if !SecureCompare(strings.TrimSpace(authHeader), expected) {
				http.Error(w, "Invalid API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SecureCompare compares two strings in constant time
func SecureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
