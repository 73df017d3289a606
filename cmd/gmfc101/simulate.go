package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atenger/gmfc101/internal/bot"
	"github.com/atenger/gmfc101/internal/server"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a live cast through the pipeline without posting",
		Long: `Hydrate a cast by URL, run it through the full reply pipeline in dry-run
mode and print the outcome. Nothing is posted.

Examples:
  gmfc101 simulate --cast-url https://warpcast.com/alice/0xabc123`,
		RunE: runSimulate,
	}
	cmd.Flags().String("cast-url", "", "URL of the cast to simulate")
	_ = cmd.MarkFlagRequired("cast-url")
	return cmd
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	castURL, _ := cmd.Flags().GetString("cast-url")

	a, err := bootstrap(ctx, cmd)
	if err != nil {
		return err
	}
	defer shutdown(a)

	cast, err := a.Neynar.CastByURL(ctx, castURL)
	if err != nil {
		return err
	}
	ev, err := server.SimulatedEvent(cast)
	if err != nil {
		return fmt.Errorf("parse cast timestamp: %w", err)
	}

	res := a.Bot.HandleWebhook(ctx, ev, bot.RunOptions{DryRun: true, UseLLM: true})
	out, err := json.MarshalIndent(map[string]any{
		"webhook_response": res.Body(),
		"status_code":      res.HTTPStatus,
		"cast_data":        cast,
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
