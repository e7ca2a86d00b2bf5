package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamikazebr/parkspot/internal/app"
	"github.com/kamikazebr/parkspot/internal/config"
	"github.com/kamikazebr/parkspot/pkg/logger"
	"github.com/kamikazebr/parkspot/pkg/version"
)

var (
	offline  bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:           "parkspot",
	Short:         "Parkspot - shared parking spot availability",
	Long:          "Mark parking spots as available or occupied and follow their state live",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			fmt.Println(version.Current().Detail())
			return
		}
		fmt.Println(version.GetVersion("parkspot"))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Keep spots on this device only (no remote store, no live feed)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL (trace, debug, info, warn, error)")
	versionCmd.Flags().BoolP("verbose", "v", false, "Show commit, build time and Go version")
	rootCmd.AddCommand(serveCmd, profileCmd, spotCmd, watchCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openApp loads configuration, initialises logging and opens the stores
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty || !cfg.IsProduction(),
	})

	return app.New(ctx, cfg, log, app.Options{Offline: offline})
}

// closeApp flushes pending identity mirrors before closing the stores
func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		a.Log.Warn().Err(err).Msg("failed to close stores")
	}
}
