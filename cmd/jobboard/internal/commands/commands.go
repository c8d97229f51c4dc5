package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/uptrace/bun"

	auth "github.com/goliatone/go-jobboard-auth"
	"github.com/goliatone/go-jobboard-auth/config"
	"github.com/goliatone/go-jobboard-auth/database"
)

type Globals struct {
	Debug   bool
	Version string
}

// loadEnvironment reads the configuration and opens the database
func loadEnvironment(ctx context.Context, globals *Globals) (*config.Config, zerolog.Logger, *bun.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}

	log := config.Setup(globals.Debug || cfg.Debug)

	db, err := database.Open(ctx, database.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		return nil, log, nil, fmt.Errorf("failed to open database: %w", err)
	}

	return cfg, log, db, nil
}

func migrate(ctx context.Context, db *bun.DB, logger auth.Logger) error {
	if _, err := auth.Migrate(ctx, db, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
