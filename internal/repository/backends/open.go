// Package backends opens the repository set for the configured database driver.
package backends

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/recipebook/internal/config"
	"github.com/prn-tf/recipebook/internal/repository"
	"github.com/prn-tf/recipebook/internal/repository/mongo"
	"github.com/prn-tf/recipebook/internal/repository/postgres"
	"github.com/prn-tf/recipebook/internal/repository/sqlite"
)

// Open connects to the database named by cfg.Driver and wires its repositories.
// The caller owns the returned Database and must Close it.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*repository.CreateRepositoriesResult, error) {
	logger = logger.With().Str("driver", cfg.Driver).Logger()

	switch cfg.Driver {
	case "mongo":
		db, err := mongo.NewDB(ctx, cfg.Mongo, logger)
		if err != nil {
			return nil, err
		}
		return &repository.CreateRepositoriesResult{
			Repos:    mongo.NewRepositories(db),
			Database: db,
			Driver:   cfg.Driver,
		}, nil

	case "postgres":
		db, err := postgres.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &repository.CreateRepositoriesResult{
			Repos:    postgres.NewRepositories(db),
			Database: db,
			Driver:   cfg.Driver,
		}, nil

	case "sqlite":
		sqlCfg := sqlite.DefaultConfig(cfg.Path)
		if cfg.JournalMode != "" {
			sqlCfg.JournalMode = cfg.JournalMode
		}
		if cfg.BusyTimeout > 0 {
			sqlCfg.BusyTimeout = cfg.BusyTimeout
		}
		db, err := sqlite.NewDB(ctx, sqlCfg, logger)
		if err != nil {
			return nil, err
		}
		return &repository.CreateRepositoriesResult{
			Repos:    sqlite.NewRepositories(db),
			Database: db,
			Driver:   cfg.Driver,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
