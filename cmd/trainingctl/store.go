package main

import (
	"context"
	"fmt"

	"github.com/Aftab48/Haemologix-sub000/internal/adapters/database"
	"github.com/Aftab48/Haemologix-sub000/internal/adapters/locks"
	"github.com/Aftab48/Haemologix-sub000/internal/domain/providers"
	"github.com/Aftab48/Haemologix-sub000/internal/domain/repositories"
	"github.com/Aftab48/Haemologix-sub000/internal/infrastructure/clients/postgres"
	"github.com/Aftab48/Haemologix-sub000/internal/infrastructure/clients/redis"
	"github.com/Aftab48/Haemologix-sub000/internal/infrastructure/observability"
	"github.com/Aftab48/Haemologix-sub000/pkg/config"
)

// backend is what a command needs from the environment. Tests replace openBackend.
type backend struct {
	store    repositories.TrainingExampleRepository
	migrator interface{ Migrate(ctx context.Context) error }
	locks    providers.LockProvider
	close    func()
}

var openBackend = defaultOpenBackend

func defaultOpenBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	b := &backend{close: func() {}}
	var closers []func()

	switch cfg.Training.Store {
	case config.StoreMemory:
		b.store = database.NewMemoryTrainingExampleStore()
	default:
		pgClient, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		closers = append(closers, func() { _ = pgClient.Close() })
		adapter := database.NewTrainingExampleAdapter(pgClient)
		b.store, b.migrator = adapter, adapter
	}

	b.locks = locks.NewMemoryLockProvider()
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			observability.GetLogger().Warn().Err(err).Msg("Redis unavailable, export lock is process-local")
		} else {
			closers = append(closers, func() { _ = redisClient.Close() })
			b.locks = locks.NewRedisLockProvider(redisClient, "haemologix:")
		}
	}

	b.close = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return b, nil
}
