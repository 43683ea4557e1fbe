package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"reelfeed/internal/app"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently watched episodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(cctx context.Context, engine *app.Engine) error {
				entries, err := engine.State().History(cctx, limit)
				if err != nil {
					return fmt.Errorf("read history: %w", err)
				}
				if jsonOutput {
					return writeJSON(cmd, entries)
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "Nothing watched yet")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, []string{
						entry.StoryID,
						entry.EpisodeID,
						formatDuration(int(entry.PositionSeconds)),
						entry.UpdatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"STORY", "EPISODE", "POSITION", "WATCHED"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
					isTerminal(out),
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}
