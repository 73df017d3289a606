package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atenger/gmfc101/internal/app"
	"github.com/atenger/gmfc101/internal/logging"
	"github.com/atenger/gmfc101/pkg/config"
)

func newRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gmfc101",
		Short: "GM Farcaster reply bot",
		Long: `gmfc101 answers Farcaster mentions using the GM Farcaster Network's
episode catalog and transcripts.

Examples:
  gmfc101 serve
  gmfc101 simulate --cast-url https://warpcast.com/alice/0xabc123
  gmfc101 gm --text "gm ☕"`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newSimulateCmd(),
		newGMCmd(),
	)

	rootCmd.PersistentFlags().StringP("config", "c", "config.yaml", "path to the configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	return rootCmd
}

// bootstrap loads configuration, builds the logger and wires the application.
func bootstrap(ctx context.Context, cmd *cobra.Command) (*app.App, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	logger := logging.New(verbose || cfg.Features.VerboseLogging, cfg.Log)

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrMissingCredential) {
			logger.Error("Required configuration is missing", zap.Error(err))
		}
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", zap.Error(err))
		return nil, err
	}
	return a, nil
}

func shutdown(a *app.App) {
	a.Close()
	_ = a.Logger.Sync()
}
