// Package server provides the HTTP server hosting the JSON API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hearthplan/v1/internal/infrastructure/config"
	"github.com/hearthplan/v1/internal/infrastructure/http/handlers"
	"github.com/hearthplan/v1/internal/infrastructure/http/middleware"
	"github.com/hearthplan/v1/internal/infrastructure/monitoring"
	"github.com/hearthplan/v1/internal/ports/outbound"
)

// Server is the HTTP server for the generation API.
type Server struct {
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
	router    *chi.Mux
	api       *handlers.APIHandler
	metrics   *monitoring.MetricsCollector
	db        *gorm.DB
	cacheRepo outbound.CacheRepository
}

// NewServer creates the HTTP server and its routes.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	api *handlers.APIHandler,
	metrics *monitoring.MetricsCollector,
	db *gorm.DB,
	cacheRepo outbound.CacheRepository,
) *Server {
	s := &Server{
		config:    cfg,
		logger:    logger.Named("http"),
		api:       api,
		metrics:   metrics,
		db:        db,
		cacheRepo: cacheRepo,
	}

	s.router = s.setupRouter()
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           s.router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Security())

	if s.config.Monitoring.EnableMetrics {
		r.Use(middleware.Metrics(s.metrics))
		r.Handle(s.config.Monitoring.MetricsPath, s.metrics.Handler())
	}

	r.Get(s.config.Monitoring.HealthCheckPath, s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.JSONOnly())

		r.Post("/recipes/generate", s.api.GenerateRecipe)
		r.Get("/recipes", s.api.ListRecipes)
		r.Get("/recipes/{id}", s.api.GetRecipe)
		r.Get("/usage", s.api.TodayUsage)
		r.Post("/members/{id}/cache/invalidate", s.api.InvalidateMemberCache)
	})

	return r
}

// handleHealth probes the datastore and the cache. The AI provider is
// never probed; a probe would incur provider cost.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{
		"database": "ok",
		"cache":    "ok",
	}
	status := "ok"
	code := http.StatusOK

	if sqlDB, err := s.db.DB(); err != nil {
		checks["database"] = "unreachable"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		checks["database"] = "unreachable"
	}

	// A missing key is a healthy round trip; only transport errors count.
	if _, err := s.cacheRepo.Get(ctx, "hearthplan:health"); err != nil {
		checks["cache"] = "unreachable"
	}

	for _, state := range checks {
		if state != "ok" {
			status = "degraded"
			code = http.StatusServiceUnavailable
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  status,
		"service": s.config.App.Name,
		"version": s.config.App.Version,
		"checks":  checks,
	})
}

// Start begins serving. Blocks until the listener closes.
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	return s.server.Shutdown(ctx)
}

// Router exposes the mux for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
