// Package server implements the HTTP server that exposes the document
// engine via a REST API. The server is started by the `documind serve`
// CLI command.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/documind-ai/documind-go/internal/core"
	"github.com/documind-ai/documind-go/internal/logging"
	"github.com/documind-ai/documind-go/internal/orchestrator"
)

// New constructs a Server from the provided orchestrator and config.
func New(orch *orchestrator.Orchestrator, cfg *Config) (*Server, error) {
	if orch == nil {
		return nil, fmt.Errorf("server: orchestrator must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout must cover LLM synthesis on slow backends.
		cfg.WriteTimeout = 2 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New()
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	s := &Server{
		engine:  orch,
		cfg:     cfg,
		log:     cfg.Logger,
		pingers: cfg.Pingers,
	}
	s.metrics = newServerMetrics(cfg.Registry, func() float64 {
		return float64(orch.ActiveIngests())
	})

	if cfg.APIKey == "" {
		s.log.Warn("server: API key not configured, authentication disabled")
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, s.log)
	s.stopRL = stopRL

	// Protected routes require the Bearer token and count against the
	// per-IP rate limit. Health, readiness and metrics stay open so
	// probes and scrapers work without credentials.
	protect := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(cfg.APIKey, rl.middleware(h))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/documents", protect(s.handleUpload))
	mux.Handle("GET /api/documents", protect(s.handleListDocuments))
	mux.Handle("GET /api/documents/{id}", protect(s.handleGetDocument))
	mux.Handle("DELETE /api/documents/{id}", protect(s.handleDeleteDocument))
	mux.Handle("POST /api/query", protect(s.handleQuery))
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(s.log, s.metrics, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleHealth handles GET /api/health for liveness checks. The response
// carries a corpus summary so operators can see engine state at a glance.
// Unlike /api/ready it never probes external dependencies.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	stats, err := s.engine.Stats(r.Context())
	if err != nil {
		log.Error("health: stats query failed", slog.Any("error", err))
		http.Error(w, "stats unavailable", http.StatusInternalServerError)
		return
	}

	byStatus := make(map[string]int, len(stats.ByStatus))
	for status, n := range stats.ByStatus {
		byStatus[string(status)] = n
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		Documents:     stats.Documents,
		Chunks:        stats.Chunks,
		ByStatus:      byStatus,
		ActiveIngests: s.engine.ActiveIngests(),
	})
}

// writeJSON encodes v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("response encode error", slog.Any("error", err))
	}
}

// documentJSON converts a document record into its API representation.
func documentJSON(d core.Document) documentResponse {
	return documentResponse{
		ID:           d.ID,
		SourceName:   d.SourceName,
		MIMEType:     d.MIMEType,
		IngestedAt:   d.IngestedAt,
		Status:       string(d.Status),
		FailureCause: d.FailureCause,
	}
}
