// Package httpapi implements the small admin HTTP surface (C11):
// liveness/readiness and Prometheus scraping, served on a separate
// listener from the wire protocol, grounded on the teacher's
// pkg/controlplane/api router and response helpers.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fileshare/fileshared/internal/logger"
	"github.com/fileshare/fileshared/pkg/metrics"
	"github.com/fileshare/fileshared/pkg/server"
)

// healthResponse mirrors the teacher's {status, timestamp, data} health
// envelope, trimmed to what this service actually reports.
type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// NewRouter builds the admin HTTP handler: /healthz for liveness and
// /metrics for Prometheus scraping, when metrics are enabled.
func NewRouter(acceptor *server.Acceptor, startedAt time.Time) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		uptime := time.Since(startedAt)
		writeJSON(w, http.StatusOK, healthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC(),
			Data: map[string]any{
				"started_at": startedAt.UTC().Format(time.RFC3339),
				"uptime":     uptime.Round(time.Second).String(),
				"addr":       acceptor.Addr().String(),
			},
		})
	})

	if metrics.IsEnabled() {
		r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// requestLogger logs each admin HTTP request at debug level, matching
// the teacher's low-noise treatment of health-probe traffic.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)
		logger.Debug("admin http request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		)
	})
}
