// Package server provides the HTTP API for kotaeru.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mizuame/kotaeru/internal/answer"
	"github.com/mizuame/kotaeru/internal/config"
	"github.com/mizuame/kotaeru/internal/ingest"
	"github.com/mizuame/kotaeru/internal/retrieval"
	"github.com/mizuame/kotaeru/internal/store"
	"github.com/mizuame/kotaeru/internal/watcher"
)

// Server is the HTTP server for the kotaeru API.
type Server struct {
	engine      *retrieval.Engine
	synthesizer *answer.Synthesizer
	pipeline    *ingest.Pipeline
	store       store.Store
	config      *config.Config
	configPath  string
	watch       *watcher.Watcher
	watchMu     sync.Mutex
	logger      *zap.Logger
	server      *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithWatcher attaches a running directory watcher so its roots can be
// managed over the API.
func WithWatcher(w *watcher.Watcher) ServerOption {
	return func(s *Server) { s.watch = w }
}

// WithConfigPath enables persisting watch-directory changes back to the
// config file.
func WithConfigPath(path string) ServerOption {
	return func(s *Server) { s.configPath = path }
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *retrieval.Engine,
	synthesizer *answer.Synthesizer,
	pipeline *ingest.Pipeline,
	st store.Store,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...ServerOption,
) *Server {
	s := &Server{
		engine:      engine,
		synthesizer: synthesizer,
		pipeline:    pipeline,
		store:       st,
		config:      cfg,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/ask", s.handleAsk)
	r.Put("/api/v1/documents/{id}", s.handleIngestDocument)
	r.Get("/api/v1/documents/{id}", s.handleGetDocument)
	r.Delete("/api/v1/documents/{id}", s.handleDeleteDocument)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/api/v1/watch/directories", s.handleWatchDirectoriesList)
	r.Post("/api/v1/watch/directories", s.handleWatchDirectoriesAdd)
	r.Delete("/api/v1/watch/directories", s.handleWatchDirectoriesRemove)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
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
