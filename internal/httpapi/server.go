// Package httpapi is the thin chi-routed HTTP binder around
// pkg/loadforge: just enough surface (start a test, poll its status,
// list history, expose Prometheus metrics, a liveness probe) to give
// the engine a runnable entrypoint from outside a Go program. Grounded
// on vaultaire's internal/api.Server: a chi.Router behind an
// *http.Server, routes registered once in setupRoutes, a logging
// middleware wrapping every request, and symmetric Start/Shutdown
// methods.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/FairForge/loadforge/internal/ratelimit"
	"github.com/FairForge/loadforge/pkg/loadforge"
)

// startTestRatePerSecond and startTestBurst bound how often this
// process accepts new POST /tests calls, independent of the engine's
// own GlobalLimiter (which bounds outgoing generator traffic, not
// inbound admission).
const (
	startTestRatePerSecond = 5
	startTestBurst         = 10
)

// Server binds an *loadforge.Engine to an HTTP mux.
type Server struct {
	engine       *loadforge.Engine
	logger       *zap.Logger
	router       chi.Router
	httpServer   *http.Server
	startLimiter *ratelimit.StartAdmissionLimiter

	requestCount int64
}

// New builds a Server listening on addr (e.g. ":8080") and routes
// requests to engine.
func New(addr string, engine *loadforge.Engine, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	startLimiter := ratelimit.NewStartAdmissionLimiter(startTestRatePerSecond, startTestBurst)
	s := &Server{
		engine:       engine,
		logger:       logger,
		router:       chi.NewRouter(),
		startLimiter: startLimiter,
	}

	s.router.Use(s.loggingMiddleware)
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.With(s.startLimiter.Middleware).Post("/tests", s.handleStartTest)
	s.router.Get("/tests/{id}", s.handleGetTest)
	s.router.Get("/history", s.handleGetHistory)
	s.router.Post("/patterns/preview", s.handlePatternPreview)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{
		"status":    "alive",
		"timestamp": time.Now().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleStartTest(w http.ResponseWriter, r *http.Request) {
	var cfg loadforge.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	cfg.Clamp()
	if err := cfg.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := s.engine.StartLoadTest(cfg)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]string{"id": id}); err != nil {
		s.logger.Error("failed to encode start-test response", zap.Error(err))
	}
}

func (s *Server) handleGetTest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, ok := s.engine.GetTest(id)
	if !ok {
		http.Error(w, "test not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.logger.Error("failed to encode test snapshot", zap.Error(err))
	}
}

// previewRequest is the body for POST /patterns/preview: sample the
// concurrency curve a pattern would produce without starting a test.
type previewRequest struct {
	Pattern         *loadforge.Pattern `json:"pattern"`
	DurationSeconds int                `json:"durationSeconds"`
	ConcurrentUsers int                `json:"concurrentUsers"`
}

func (s *Server) handlePatternPreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	points := s.engine.GetPatternPreview(req.Pattern, req.DurationSeconds, req.ConcurrentUsers)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(points); err != nil {
		s.logger.Error("failed to encode pattern preview", zap.Error(err))
	}
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	history := s.engine.GetHistory()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(history); err != nil {
		s.logger.Error("failed to encode history", zap.Error(err))
	}
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.requestCount, 1)
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("latency", time.Since(start)),
		)
	})
}

// Start begins serving and blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("starting loadforge HTTP server", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// GetRouter exposes the underlying router, mirroring vaultaire's
// Server.GetRouter for test harnesses that want to drive requests
// in-process via httptest.
func (s *Server) GetRouter() chi.Router {
	return s.router
}
