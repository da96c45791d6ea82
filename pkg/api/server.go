package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cuemby/storefront/pkg/config"
	"github.com/cuemby/storefront/pkg/engine"
	"github.com/cuemby/storefront/pkg/log"
	"github.com/cuemby/storefront/pkg/metrics"
	"github.com/cuemby/storefront/pkg/registry"
	"github.com/cuemby/storefront/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// Operations is the background lifecycle surface the API schedules work
// on. Provision and Delete run on goroutines spawned by handlers; Status
// backs the state-machine guards.
type Operations interface {
	Provision(storeID string) error
	Delete(storeID string) error
	Status(storeID string) (types.OperationKind, bool)
}

// Server is the REST control-plane surface
type Server struct {
	registry   *registry.Registry
	engines    *engine.Registry
	ops        Operations
	httpServer *http.Server
	logger     zerolog.Logger

	production bool
	maxStores  int

	general *ipLimiter
	creates *ipLimiter

	// delete retries while a provision holds the store's lock
	deleteRetryInterval time.Duration
	deleteRetryBudget   time.Duration
}

// NewServer creates the API server
func NewServer(cfg config.Config, reg *registry.Registry, engines *engine.Registry, ops Operations) *Server {
	s := &Server{
		registry:   reg,
		engines:    engines,
		ops:        ops,
		logger:     log.WithComponent("api"),
		production: cfg.IsProduction(),
		maxStores:  cfg.MaxStores,

		general: newIPLimiter("general", cfg.RateLimitWindow, cfg.RateLimitMaxRequests),
		creates: newIPLimiter("create", cfg.RateLimitWindow, cfg.RateLimitMaxCreates),

		deleteRetryInterval: 2 * time.Second,
		deleteRetryBudget:   cfg.ProvisionTimeout,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Handler returns the configured HTTP handler, usable directly with
// httptest
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(requestMetrics)
	r.Use(s.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus exposition, outside the rate-limited API surface
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.general.middleware)

		r.Get("/health", s.handleHealth)
		r.Get("/stores", s.handleListStores)
		r.With(s.creates.middleware).Post("/stores", s.handleCreateStore)
		r.Get("/stores/{id}", s.handleGetStore)
		r.Delete("/stores/{id}", s.handleDeleteStore)
		r.Post("/stores/{id}/retry", s.handleRetryStore)
		r.Get("/stores/{id}/audit", s.handleStoreAudit)
		r.Get("/audit", s.handleAudit)
		r.Get("/metrics", s.handleMetrics)
	})

	return r
}

// Start begins serving and blocks until the listener closes
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("API server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("API server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("draining API server")
	return s.httpServer.Shutdown(ctx)
}
