package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Aftab48/Haemologix-sub000/internal/adapters/cache"
	"github.com/Aftab48/Haemologix-sub000/internal/adapters/database"
	"github.com/Aftab48/Haemologix-sub000/internal/adapters/providers/prediction"
	"github.com/Aftab48/Haemologix-sub000/internal/api/handlers"
	"github.com/Aftab48/Haemologix-sub000/internal/api/routes"
	"github.com/Aftab48/Haemologix-sub000/internal/application/services"
	"github.com/Aftab48/Haemologix-sub000/internal/domain/providers"
	"github.com/Aftab48/Haemologix-sub000/internal/domain/repositories"
	"github.com/Aftab48/Haemologix-sub000/internal/infrastructure/clients/modelapi"
	"github.com/Aftab48/Haemologix-sub000/internal/infrastructure/clients/postgres"
	"github.com/Aftab48/Haemologix-sub000/internal/infrastructure/clients/redis"
	"github.com/Aftab48/Haemologix-sub000/internal/infrastructure/observability"
	"github.com/Aftab48/Haemologix-sub000/pkg/config"
)

func main() {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		observability.GetLogger().Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment, cfg.LogLevel)
	logger := observability.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	healthChecks := map[string]handlers.HealthCheck{}

	// Training example store
	var store repositories.TrainingExampleRepository
	switch cfg.Training.Store {
	case config.StoreMemory:
		store = database.NewMemoryTrainingExampleStore()
		logger.Warn().Msg("training examples are kept in memory and lost on restart")
	default:
		pgClient, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
		}
		defer pgClient.Close()
		store = database.NewTrainingExampleAdapter(pgClient)
		healthChecks["database"] = pgClient.Ping
		logger.Info().Str("host", cfg.Database.Host).Msg("PostgreSQL client initialized")
	}

	// Redis only backs the model health cache; the service runs without it
	var healthCache providers.CacheProvider
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialize Redis client, using in-process cache")
		} else {
			defer redisClient.Close()
			healthCache = cache.NewRedisAdapter(redisClient, "haemologix:")
			logger.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis client initialized")
		}
	}
	if healthCache == nil && cfg.Model.HealthCacheTTL > 0 {
		healthCache = cache.NewMemoryAdapter()
	}

	modelCfg := prediction.ConfigFromModel(cfg.Model)
	predictor := prediction.NewModelClient(modelapi.NewClient(cfg.Model.BaseURL), modelCfg, healthCache, metrics)
	logger.Info().
		Bool("enabled", cfg.Model.Enabled).
		Str("base_url", cfg.Model.BaseURL).
		Dur("budget", modelCfg.Policy.MaxTotalTimeout).
		Msg("prediction client configured")

	collector := services.NewTrainingDataCollector(store, cfg.Training, metrics)
	decisionService := services.NewDecisionService(predictor, collector, metrics)

	router := routes.NewRouter(
		handlers.NewDecisionHandler(decisionService),
		handlers.NewHealthHandler(healthChecks),
		cfg.Server,
		metrics,
	)

	// A decision may spend the whole model budget before falling back
	writeTimeout := max(15*time.Second, modelCfg.Policy.MaxTotalTimeout+5*time.Second)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), writeTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}

	// Pending training example writes finish before the store closes
	collector.Wait()

	logger.Info().Msg("server stopped")
}
