// Package httpadapter exposes the service-mode HTTP surface: health and
// metrics endpoints plus an endpoint that triggers a batch run on demand.
package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/tmc-data-etl/internal/domain"
	"github.com/couchcryptid/tmc-data-etl/internal/pipeline"
)

// BatchRunner executes one aggregation batch.
type BatchRunner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
}

// ReadinessChecker reports whether the service is ready to accept runs.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes health, readiness, metrics, and run-trigger endpoints.
type Server struct {
	httpServer *http.Server
	runner     BatchRunner
	logger     *slog.Logger

	// runMu serializes batch runs; concurrent runs would race on output
	// file names and double-publish detail rows.
	runMu sync.Mutex
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// POST /runs routes.
func NewServer(addr string, runner BatchRunner, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 5 * time.Minute, // a batch run answers inline
			IdleTimeout:  60 * time.Second,
		},
		runner: runner,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /runs", s.handleRun)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// runResponse summarizes a completed batch for the API caller.
type runResponse struct {
	Sites         int    `json:"sites"`
	AMNetworkPeak string `json:"am_network_peak"`
	PMNetworkPeak string `json:"pm_network_peak"`
	ReportPath    string `json:"report_path"`
	GeoJSONPath   string `json:"geojson_path,omitempty"`
	ArchivePath   string `json:"archive_path"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if !s.runMu.TryLock() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a run is already in progress"})
		return
	}
	defer s.runMu.Unlock()

	result, err := s.runner.Run(r.Context())
	if err != nil {
		s.logger.Error("batch run failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, runResponse{
		Sites:         len(result.Report.Sites),
		AMNetworkPeak: result.Report.NetworkPeaks[domain.AM].Window.Text(),
		PMNetworkPeak: result.Report.NetworkPeaks[domain.PM].Window.Text(),
		ReportPath:    result.ReportPath,
		GeoJSONPath:   result.GeoJSONPath,
		ArchivePath:   result.ArchivePath,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
