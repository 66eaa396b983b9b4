// Package server provides the HTTP API for lookalike.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hyperjump/lookalike/internal/config"
	"github.com/hyperjump/lookalike/internal/query"
	"go.uber.org/zap"
)

// Server is the HTTP server for the lookalike API.
type Server struct {
	svc      *query.Service
	config   *config.ServerConfig
	logger   *zap.Logger
	watching bool
	server   *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithCatalogWatch reports in /api/v1/status that the catalog file is watched.
func WithCatalogWatch(active bool) Option {
	return func(s *Server) { s.watching = active }
}

// NewServer creates a server with the given dependencies.
func NewServer(svc *query.Service, cfg *config.ServerConfig, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		svc:    svc,
		config: cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if s.config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(middleware.Compress(5, "application/json"))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Post("/find-similar", s.handleSimilar)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/similar", s.handleSimilar)
		r.Get("/products", s.handleLookup)
		r.Get("/products/{id}", s.handleGetProduct)
		r.Get("/status", s.handleStatus)
		r.Post("/catalog/reload", s.handleReload)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
