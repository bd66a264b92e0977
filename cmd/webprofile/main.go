package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/wolfeidau/webprofile/cmd/webprofile/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool `help:"Enable debug mode."`
		JSON    bool `help:"Write logs as JSON." env:"WEBPROFILE_LOG_JSON"`
		Version kong.VersionFlag

		Profile commands.ProfileFlags `embed:""`

		Resolve commands.ResolveCmd `cmd:"" help:"Print the resolved build profile"`
		Build   commands.BuildCmd   `cmd:"" help:"Build the front end with esbuild"`
	}
)

func main() {
	// A missing .env file is fine, flags and the environment still apply
	_ = godotenv.Load()

	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{
		Debug:   cli.Debug,
		JSON:    cli.JSON,
		Version: version,
		Profile: cli.Profile,
	})
	cmd.FatalIfErrorf(err)
}
