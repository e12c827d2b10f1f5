// Package storage выбирает реализацию хранилища по конфигурации.
package storage

import (
	"context"
	"fmt"
	"taskboard/internal/config"
	"taskboard/internal/logger"
	"taskboard/internal/repository/inmemory"
	"taskboard/internal/repository/mongo"
	"taskboard/internal/repository/postgres"
	"taskboard/internal/service"

	"go.uber.org/zap"
)

type Store interface {
	service.TaskRepository
	service.UserRepository
	Close()
}

var (
	_ Store = (*inmemory.Storage)(nil)
	_ Store = (*mongo.Storage)(nil)
	_ Store = (*postgres.Storage)(nil)
)

// Open подключается к выбранной базе. Для postgres перед подключением накатываются миграции.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	logger.Info("Storage: Подключение к хранилищу", zap.String("driver", cfg.Driver))

	switch cfg.Driver {
	case config.DriverMongo:
		store, err := mongo.New(ctx, mongo.Options{
			URI:            cfg.URI,
			Database:       cfg.Name,
			MaxConnections: cfg.MaxConnections,
			MinConnections: cfg.MinConnections,
			IdleTimeout:    cfg.IdleTimeout,
			ConnectTimeout: cfg.ConnectTimeout,
			SlowQuery:      cfg.SlowQuery,
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.DriverPostgres:
		if err := postgres.Migrate(cfg.URI); err != nil {
			return nil, err
		}
		store, err := postgres.New(ctx, postgres.Options{
			ConnString:     cfg.URI,
			MaxConnections: cfg.MaxConnections,
			MinConnections: cfg.MinConnections,
			IdleTimeout:    cfg.IdleTimeout,
			ConnectTimeout: cfg.ConnectTimeout,
			SlowQuery:      cfg.SlowQuery,
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.DriverInMemory:
		logger.Warn("Storage: Данные хранятся только в памяти и пропадут после перезапуска")
		return inmemory.NewStorage(), nil

	default:
		return nil, fmt.Errorf("неизвестный драйвер базы данных: %q", cfg.Driver)
	}
}
