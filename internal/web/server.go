// Package web provides the HTTP API of the cruise checker.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/cruisecheck/internal/config"
	"github.com/JonMunkholm/cruisecheck/internal/core"
	"github.com/JonMunkholm/cruisecheck/internal/history"
	mw "github.com/JonMunkholm/cruisecheck/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// HistoryReader lists stored check runs.
type HistoryReader interface {
	ListRuns(ctx context.Context, datasetID string, limit int) ([]history.Run, error)
}

// Deps are the services the server exposes.
type Deps struct {
	Checker *core.Checker
	Limiter *core.CheckLimiter
	History HistoryReader // nil when no database is configured
}

// Server is the HTTP server for the checker API.
type Server struct {
	cfg     *config.Config
	checker *core.Checker
	limiter *core.CheckLimiter
	history HistoryReader
	router  *chi.Mux
	server  *http.Server
	rl      *rateLimiter
}

// NewServer creates a new Server instance.
func NewServer(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:     cfg,
		checker: deps.Checker,
		limiter: deps.Limiter,
		history: deps.History,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		s.rl = newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(s.rl.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&s.cfg.Security))

		r.Get("/column-types", s.handleColumnTypes)
		r.Get("/history", s.handleHistory)

		r.Route("/datasets/{datasetID}", func(r chi.Router) {
			r.Post("/check", s.handleCheck)
			r.Post("/spec", s.handleSpecPreview)
			r.Get("/messages", s.handleMessages)
			r.Delete("/messages", s.handleDeleteMessages)
			r.Get("/history", s.handleHistory)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.rl != nil {
		s.rl.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses. The API serves
// JSON only, so the content policy forbids everything.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
