// Package factory builds infrastructure selected by configuration.
package factory

import (
	"fmt"

	"messenger/internal/adapter/file"
	"messenger/internal/adapter/memory"
	"messenger/internal/adapter/postgres"
	"messenger/internal/adapter/redis"
	"messenger/internal/adapter/sqlite"
	"messenger/internal/config"
	"messenger/internal/domain"
)

// Repository is a state repository that may hold connections.
type Repository interface {
	domain.StateRepository
	Close() error
}

type nopCloser struct {
	domain.StateRepository
}

func (nopCloser) Close() error { return nil }

// NewRepository selects the storage backend named by cfg.StoreDriver.
func NewRepository(cfg *config.Config) (Repository, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return nopCloser{memory.New()}, nil
	case config.DriverFile:
		return nopCloser{file.New(cfg.StorePath)}, nil
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		return db, nil
	case config.DriverPostgres:
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return db, nil
	case config.DriverRedis:
		r, err := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisKey)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER: %s", cfg.StoreDriver)
	}
}
