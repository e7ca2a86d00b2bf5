package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kamikazebr/parkspot/internal/server/api"
	"github.com/kamikazebr/parkspot/pkg/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  "Start the parkspot HTTP API with the live spot stream at /api/spots/stream",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	a.Log.Info().Str("version", version.GetVersion("parkspot")).Msg("starting parkspot")

	router := api.NewRouter(api.Deps{
		Profiles: a.Identity,
		Spots:    a.Spots,
		Location: a.Location,
		Feed:     a.Syncer,
		Log:      a.Log,
	})

	srv := api.NewServer(ctx, a.Config.API.Addr(), router)
	if err := api.Run(ctx, srv, nil, a.Log); err != nil {
		return err
	}
	a.Log.Info().Msg("server stopped")
	return nil
}
