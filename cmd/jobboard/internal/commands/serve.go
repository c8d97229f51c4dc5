package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	auth "github.com/goliatone/go-jobboard-auth"
	"github.com/goliatone/go-jobboard-auth/httpapi"
)

type ServeCmd struct {
	Listen string `help:"HTTP listen address, overrides JOBBOARD_HTTP_ADDR" default:""`
}

func (s *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, log, db, err := loadEnvironment(ctx, globals)
	if err != nil {
		return err
	}
	defer db.Close()

	logger := auth.NewZerologLogger(log)
	debug := globals.Debug || cfg.Debug

	log.Info().Str("version", globals.Version).Bool("debug", debug).Msg("Starting server")

	if cfg.Database.AutoMigrate {
		if err := migrate(ctx, db, logger); err != nil {
			return err
		}
	}

	hasher := auth.NewBcryptHasher(
		auth.WithBcryptCost(cfg.Hashing.Cost),
		auth.WithBcryptWorkers(cfg.Hashing.Workers),
		auth.WithBcryptLogger(logger),
	)

	tokens, err := auth.NewTokenService(cfg, auth.WithTokenLogger(logger))
	if err != nil {
		return err
	}

	validator, err := auth.NewRotatingTokenValidator(tokens, cfg.JWT.PreviousKeys, auth.WithTokenLogger(logger))
	if err != nil {
		return err
	}

	repo := auth.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		return err
	}

	accounts := auth.NewAccountService(repo, hasher, tokens,
		auth.WithAccountLogger(logger),
		auth.WithPhoneRegion(cfg.PhoneRegion),
		auth.WithHashidAccountIDs(cfg.UseHashid),
	)
	offers := auth.NewOfferService(repo).WithLogger(logger)
	payments := auth.NewPaymentService(repo).WithLogger(logger)

	app := httpapi.NewServer(accounts, offers, payments, validator,
		httpapi.WithLogger(logger),
		httpapi.WithConfig(httpapi.Config{
			Debug:     debug,
			BodyLimit: cfg.HTTP.BodyLimit,
		}),
	).App()

	addr := cfg.HTTP.Addr
	if s.Listen != "" {
		addr = s.Listen
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", addr).Msg("Listening for HTTP connections")
		errCh <- app.Listen(addr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")
	case <-ctx.Done():
	}

	if err := app.ShutdownWithTimeout(cfg.HTTP.ShutdownTimeout); err != nil {
		return err
	}

	if err := <-errCh; err != nil {
		return err
	}

	log.Info().Msg("Server stopped")
	return nil
}
