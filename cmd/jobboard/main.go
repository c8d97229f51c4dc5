package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/goliatone/go-jobboard-auth/cmd/jobboard/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool `help:"Enable debug mode." env:"JOBBOARD_DEBUG"`
		Version kong.VersionFlag
		Serve   commands.ServeCmd   `cmd:"" help:"Run migrations and start the HTTP API"`
		Migrate commands.MigrateCmd `cmd:"" help:"Apply or roll back database migrations"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("jobboard"),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
