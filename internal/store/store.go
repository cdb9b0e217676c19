// Package store opens the task repository selected by configuration.
package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/tasks/internal/config"
	boltInfra "github.com/fastygo/tasks/internal/infrastructure/bolt"
	dynamoInfra "github.com/fastygo/tasks/internal/infrastructure/dynamodb"
	pgInfra "github.com/fastygo/tasks/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/tasks/internal/infrastructure/redis"
	"github.com/fastygo/tasks/internal/services/lifecycle"
	"github.com/fastygo/tasks/repository"
	boltRepo "github.com/fastygo/tasks/repository/bolt"
	dynamoRepo "github.com/fastygo/tasks/repository/dynamodb"
	pgRepo "github.com/fastygo/tasks/repository/postgres"
	redisRepo "github.com/fastygo/tasks/repository/redis"
)

// Open connects the configured backend and returns its repository. Close
// hooks for the underlying clients are registered on lc.
func Open(ctx context.Context, cfg *config.Config, lc *lifecycle.Manager, logger *zap.Logger) (repository.TaskRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("driver", cfg.Storage.Driver))

	switch cfg.Storage.Driver {
	case config.DriverDynamoDB:
		client, err := dynamoInfra.NewClient(ctx, cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("store: dynamodb client: %w", err)
		}
		if cfg.Storage.Offline {
			if err := dynamoInfra.EnsureTable(ctx, client, cfg.Storage.Table, cfg.Storage.UserIndex, logger); err != nil {
				return nil, fmt.Errorf("store: ensure table: %w", err)
			}
		}
		return dynamoRepo.NewTaskRepository(client, cfg.Storage.Table, cfg.Storage.UserIndex), nil

	case config.DriverBolt:
		db, err := boltInfra.Open(cfg.Bolt.Path)
		if err != nil {
			return nil, fmt.Errorf("store: open bolt: %w", err)
		}
		lc.RegisterCloser("bolt", db.Close)
		logger.Info("bolt store opened", zap.String("path", cfg.Bolt.Path))
		return boltRepo.NewTaskRepository(db, cfg.Storage.Table)

	case config.DriverRedis:
		client, err := redisInfra.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("store: redis client: %w", err)
		}
		lc.RegisterCloser("redis", client.Close)
		return redisRepo.NewTaskRepository(client, cfg.Storage.Table), nil

	case config.DriverPostgres:
		if err := pgInfra.RunMigrations(cfg, logger); err != nil {
			return nil, fmt.Errorf("store: migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("store: postgres pool: %w", err)
		}
		lc.RegisterCloser("postgres", func() error { return pgInfra.Close(pool, logger) })
		return pgRepo.NewTaskRepository(pool, cfg.Storage.Table), nil
	}

	return nil, fmt.Errorf("store: unknown driver %q", cfg.Storage.Driver)
}
