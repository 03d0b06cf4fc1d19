// Package container wires the application with Uber FX.
package container

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hearthplan/v1/internal/application/generation"
	"github.com/hearthplan/v1/internal/application/safety"
	"github.com/hearthplan/v1/internal/infrastructure/ai/openai"
	"github.com/hearthplan/v1/internal/infrastructure/cache"
	"github.com/hearthplan/v1/internal/infrastructure/config"
	"github.com/hearthplan/v1/internal/infrastructure/http/handlers"
	"github.com/hearthplan/v1/internal/infrastructure/http/server"
	"github.com/hearthplan/v1/internal/infrastructure/monitoring"
	"github.com/hearthplan/v1/internal/infrastructure/persistence"
	gormRepo "github.com/hearthplan/v1/internal/infrastructure/persistence/gorm"
	"github.com/hearthplan/v1/internal/ports/inbound"
	"github.com/hearthplan/v1/internal/ports/outbound"
)

// Module assembles every dependency of the API process.
var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	DatabaseModule,
	CacheModule,
	RepositoryModule,
	PipelineModule,
	HTTPModule,
	LifecycleModule,
)

// ConfigModule provides configuration.
var ConfigModule = fx.Provide(
	func() (*config.Config, error) {
		return config.Load("")
	},
)

// LoggerModule provides the structured logger.
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return monitoring.NewLogger(monitoring.LogConfig{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			ServiceName: cfg.App.Name,
			Environment: cfg.App.Environment,
			Version:     cfg.App.Version,
		})
	},
	monitoring.NewMetricsCollector,
)

// DatabaseModule provides the Postgres connection.
var DatabaseModule = fx.Provide(
	persistence.NewDatabase,
)

// CacheModule provides the Redis-backed recipe cache. The concrete
// client is kept in the graph so the lifecycle hook can close its pool.
var CacheModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (*cache.RedisClient, error) {
		return cache.NewRedisClient(cfg.Redis, log)
	},
	func(client *cache.RedisClient) outbound.CacheRepository {
		return client
	},
	func(cfg *config.Config, repo outbound.CacheRepository, log *zap.Logger) outbound.RecipeCache {
		return cache.NewRecipeCache(repo, cfg.Cache.RecipeTTL, log)
	},
)

// RepositoryModule provides the GORM repositories.
var RepositoryModule = fx.Provide(
	gormRepo.NewRecipeRepository,
	gormRepo.NewUsageRepository,
)

// PipelineModule provides the generation pipeline components.
var PipelineModule = fx.Provide(
	safety.NewScorer,
	func(cfg *config.Config, ledger outbound.UsageLedger, log *zap.Logger) *generation.AdmissionController {
		return generation.NewAdmissionController(cfg.Admission, ledger, log)
	},
	func(cfg *config.Config) *generation.RequestBuilder {
		return generation.NewRequestBuilder(cfg.AI)
	},
	func(cfg *config.Config, log *zap.Logger) outbound.TextGenerator {
		return openai.NewClient(cfg.AI, log)
	},
	fx.Annotate(
		generation.NewOrchestrator,
		fx.As(new(inbound.GenerationService)),
	),
	fx.Annotate(
		func(cfg *config.Config, ledger outbound.UsageLedger, log *zap.Logger) *generation.UsageService {
			return generation.NewUsageService(cfg.Admission, ledger, log)
		},
		fx.As(new(inbound.UsageService)),
	),
)

// HTTPModule provides the API handler and server.
var HTTPModule = fx.Provide(
	handlers.NewAPIHandler,
	server.NewServer,
)

// LifecycleModule registers start and stop hooks.
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// RegisterLifecycleHooks starts the HTTP server and tears down shared
// resources on shutdown.
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	db *gorm.DB,
	redis *cache.RedisClient,
	srv *server.Server,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting HearthPlan API",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
			)

			go func() {
				if err := srv.Start(); err != nil {
					log.Fatal("HTTP server failed", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down HearthPlan API")

			if err := srv.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			if sqlDB, err := db.DB(); err == nil {
				if err := sqlDB.Close(); err != nil {
					log.Error("Failed to close database connection", zap.Error(err))
				}
			}

			if err := redis.Close(); err != nil {
				log.Error("Failed to close redis connection", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})
}
