package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGMCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gm",
		Short: "Publish a top-level cast from the bot account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, _ := cmd.Flags().GetString("text")

			a, err := bootstrap(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer shutdown(a)

			if err := a.Bot.PostAnnouncement(cmd.Context(), text); err != nil {
				return fmt.Errorf("failed to create cast: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cast created successfully")
			return nil
		},
	}
	cmd.Flags().String("text", "", "cast text (defaults to the standard introduction)")
	return cmd
}
