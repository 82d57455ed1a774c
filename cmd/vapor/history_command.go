package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vapord/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent request outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := journal.Open(cfg)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			outcomes, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list outcomes: %w", err)
			}
			summary, err := store.Summarize(cmd.Context())
			if err != nil {
				return fmt.Errorf("summarize outcomes: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(outcomes) == 0 {
				fmt.Fprintln(out, "No requests recorded yet")
				return nil
			}

			fmt.Fprintln(out, renderHistoryTable(outcomes))
			fmt.Fprintf(out, "%d recorded: %d completed, %d failed\n", summary.Total, summary.Completed, summary.Failed)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of outcomes to show")
	return cmd
}
