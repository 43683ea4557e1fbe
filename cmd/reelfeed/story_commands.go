package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reelfeed/internal/api"
	"reelfeed/internal/app"
	"reelfeed/internal/catalog"
)

func newStoriesCommand(ctx *commandContext) *cobra.Command {
	var contentType string
	var limit int
	var offset int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stories",
		Short: "Browse the story catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(cctx context.Context, engine *app.Engine) error {
				page, err := engine.Stories(cctx, api.ContentQuery{
					Type:   contentType,
					Limit:  limit,
					Offset: offset,
				})
				if err != nil {
					return fmt.Errorf("list stories: %w", err)
				}
				if jsonOutput {
					return writeJSON(cmd, page)
				}

				out := cmd.OutOrStdout()
				if len(page.Stories) == 0 {
					fmt.Fprintln(out, "No stories found")
					return nil
				}
				rows := make([][]string, 0, len(page.Stories))
				for _, story := range page.Stories {
					rows = append(rows, []string{
						story.ID,
						truncate(story.Title, 40),
						displayGenres(story.Genres),
						strconv.Itoa(story.FreeEpisodes),
						strconv.Itoa(story.TotalEpisodes),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "TITLE", "GENRES", "FREE", "EPISODES"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
					isTerminal(out),
				))
				if page.HasMore {
					fmt.Fprintf(out, "Showing %d of %d stories (use --offset to page)\n", len(page.Stories), page.Total)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&contentType, "type", "", "Filter by content type")
	cmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "Page offset")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}

func newEpisodesCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "episodes <story-id>",
		Short: "List a story's episodes with lock state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(cctx context.Context, engine *app.Engine) error {
				view, err := engine.LoadStory(cctx, args[0])
				if err != nil {
					return fmt.Errorf("load story: %w", err)
				}

				if jsonOutput {
					type episodeRow struct {
						catalog.Episode
						Locked bool `json:"locked"`
					}
					rows := make([]episodeRow, len(view.Episodes))
					for i, ep := range view.Episodes {
						rows[i] = episodeRow{
							Episode: ep,
							Locked:  catalog.Locked(ep, view.Story.FreeEpisodes, view.Unlocked),
						}
					}
					return writeJSON(cmd, map[string]any{
						"story":    view.Story,
						"episodes": rows,
					})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (%d episodes, %d free)\n", view.Story.Title, view.Story.TotalEpisodes, view.Story.FreeEpisodes)
				if len(view.Episodes) == 0 {
					fmt.Fprintln(out, "No episodes available")
					return nil
				}
				rows := make([][]string, 0, len(view.Episodes))
				for _, ep := range view.Episodes {
					access := "free"
					if catalog.Locked(ep, view.Story.FreeEpisodes, view.Unlocked) {
						access = "locked (" + formatCoins(ep.UnlockCost()) + ")"
					} else if ep.Sequence > view.Story.FreeEpisodes {
						access = "unlocked"
					}
					rows = append(rows, []string{
						strconv.Itoa(ep.Sequence),
						truncate(ep.DisplayTitle(), 40),
						formatDuration(ep.DurationSeconds),
						access,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "TITLE", "LENGTH", "ACCESS"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
					isTerminal(out),
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}
