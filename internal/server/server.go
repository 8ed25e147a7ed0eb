package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"co2-bunny/internal/core"
	"co2-bunny/internal/features/impact"
	"co2-bunny/internal/server/handlers"
)

// Version is reported by /health and the CLI
const Version = "1.0.0"

const shutdownTimeout = 10 * time.Second

type Server struct {
	config   *core.Config
	logger   *core.Logger
	db       *core.Database
	metrics  *core.Metrics
	registry *core.Registry
	server   *http.Server
}

// New wires the features over an already opened database. The caller owns db
// and closes it after the server stops.
func New(config *core.Config, logger *core.Logger, db *core.Database) (*Server, error) {
	var metrics *core.Metrics
	if config.IsFeatureEnabled("metrics") {
		metrics = core.NewMetrics()
	}

	registry := core.NewRegistry(logger)

	impactFeature := impact.NewFeature(logger, db, metrics, impact.ConfigFromCore(config), config.IsFeatureEnabled(impact.FeatureName))
	if err := registry.Register(impactFeature); err != nil {
		return nil, fmt.Errorf("failed to register impact feature: %w", err)
	}

	srv := &Server{
		config:   config,
		logger:   logger,
		db:       db,
		metrics:  metrics,
		registry: registry,
	}

	srv.setupRoutes()

	return srv, nil
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.logger, s.registry, s.db, Version)

	// Create router
	mux := chi.NewRouter()

	// Add middleware
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Logger)

	// Health check
	mux.Get("/health", healthHandler.HealthCheckHandler)

	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}

	// Feature routes - use the registry to get all feature routes
	for _, route := range s.registry.GetAllRoutes() {
		mux.Method(route.Method, route.Path, route.Handler)
	}

	// Create HTTP server
	s.server = &http.Server{
		Addr:              s.config.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Init initializes all enabled features
func (s *Server) Init(ctx context.Context) error {
	if err := s.registry.InitAll(ctx); err != nil {
		s.logger.Error("Failed to initialize features", "error", err)
		return err
	}
	return nil
}

// Start initializes the features and serves until ctx is cancelled, then
// shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	if err := s.Init(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting server", "host", s.config.Server.Host, "port", s.config.Server.Port)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	// Shutdown all features
	if err := s.registry.ShutdownAll(ctx); err != nil {
		s.logger.Error("Failed to shutdown features", "error", err)
	}

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	return nil
}
