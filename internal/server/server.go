// Package server provides the HTTP server for the navarasa classifier.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ayusman/navarasa/internal/server/api"
	"github.com/ayusman/navarasa/internal/session"
	"github.com/ayusman/navarasa/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	// Store is optional. Without it nothing is persisted.
	Store *store.Store
	// Sessions is created when nil, publishing to Store if set.
	Sessions *session.Manager
	Logger   *zap.Logger
}

// Server represents the HTTP server for the application.
type Server struct {
	config Config
	router chi.Router
	log    *zap.Logger
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Sessions == nil {
		var sink session.StatusSink
		if config.Store != nil {
			sink = store.NewSink(config.Store)
		}
		config.Sessions = session.NewManager(sink, config.Logger)
	}

	s := &Server{
		config: config,
		router: chi.NewRouter(),
		log:    config.Logger,
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)
	r.Method(http.MethodGet, "/api/status", api.NewStatusHandler(s.config.Store))

	sessions := api.NewSessionHandler(s.config.Sessions, s.config.Store, s.log).
		WithStream(NewStreamHandler(s.config.Sessions, s.log))
	r.Route("/api/sessions", sessions.Routes)

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		r.Handle("/*", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Sessions returns the session manager used by the server.
func (s *Server) Sessions() *session.Manager {
	return s.config.Sessions
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status":   "ok",
		"uptime":   uptime.String(),
		"sessions": len(s.config.Sessions.List()),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// logRequests logs each request once it completes.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// HTTPServer returns an http.Server serving s on addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return s.HTTPServer(addr).ListenAndServe()
}
