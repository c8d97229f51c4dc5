package commands

import (
	"context"
	"fmt"

	auth "github.com/goliatone/go-jobboard-auth"
)

type MigrateCmd struct {
	Rollback bool `help:"roll back the last migration group instead of applying"`
}

func (m *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, log, db, err := loadEnvironment(ctx, globals)
	if err != nil {
		return err
	}
	defer db.Close()

	logger := auth.NewZerologLogger(log)
	log.Info().Str("driver", cfg.Database.Driver).Bool("rollback", m.Rollback).Msg("Running migrations")

	if m.Rollback {
		if _, err := auth.Rollback(ctx, db, logger); err != nil {
			return fmt.Errorf("failed to roll back database: %w", err)
		}
		return nil
	}

	return migrate(ctx, db, logger)
}
