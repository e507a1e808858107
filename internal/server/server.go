// Package server exposes the catalog and the test runner over HTTP and
// WebSocket.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/michaelbrown/conceptloop/internal/challenge"
	"github.com/michaelbrown/conceptloop/internal/runner"
	"github.com/michaelbrown/conceptloop/internal/sandbox"
)

// maxBodyBytes caps request bodies; learner code is small.
const maxBodyBytes = 1 << 20

// Server is the HTTP server for the ConceptLoop API.
type Server struct {
	catalog *challenge.Catalog
	sandbox sandbox.Sandbox
	logger  *log.Logger
	metrics *Metrics
	runs    *RunTracker
	router  chi.Router
	http    *http.Server
}

// New creates a new Server. A nil logger discards output.
func New(catalog *challenge.Catalog, sb sandbox.Sandbox, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		catalog: catalog,
		sandbox: sb,
		logger:  logger,
		metrics: NewMetrics(),
		runs:    NewRunTracker(),
		router:  chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		// WebSocket (no JSON content-type)
		r.Get("/challenges/{id}/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(jsonContentType)
			r.Use(middleware.RequestSize(maxBodyBytes))

			r.Get("/categories", s.handleListCategories)
			r.Get("/challenges", s.handleListChallenges)
			r.Get("/challenges/{id}", s.handleGetChallenge)
			r.Post("/challenges/{id}/run", s.handleRunChallenge)
			r.Post("/run", s.handleRun)
			r.Post("/eval", s.handleEval)
		})
	})

	r.Handle("/*", playgroundHandler())
}

// jsonContentType sets Content-Type to application/json for API routes.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// newRunner returns a Runner logging to the server logger.
func (s *Server) newRunner() *runner.Runner {
	return runner.New(s.sandbox, s.logger)
}

func (s *Server) report(ctx context.Context, rn *runner.Runner, source, entry string, cases []challenge.TestCase) *runner.Report {
	ctx, _, done := s.runs.Start(ctx)
	defer done()
	rep := rn.Report(ctx, source, entry, cases)
	s.metrics.Observe(rep)
	return rep
}

// Start begins listening on addr.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("ConceptLoop server starting", "addr", addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown cancels in-flight runs and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	s.runs.CloseAll()
	if s.http == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.http.Shutdown(shutdownCtx)
}
