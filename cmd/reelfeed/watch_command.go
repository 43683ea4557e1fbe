package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"reelfeed/internal/app"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var startEpisode int
	var skipFailed bool

	cmd := &cobra.Command{
		Use:   "watch <story-id>",
		Short: "Watch a story episode by episode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(cctx context.Context, engine *app.Engine) error {
				// Playback URLs are signed per viewer, so even anonymous
				// watching needs a guest session first.
				if _, err := engine.Sessions().EnsureSession(cctx); err != nil {
					return fmt.Errorf("start session: %w", err)
				}

				view, err := engine.LoadStory(cctx, args[0])
				if err != nil {
					return fmt.Errorf("load story: %w", err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (%d episodes)\n", view.Story.Title, len(view.Episodes))

				if startEpisode > 0 {
					view.Feed.SetIndex(startEpisode - 1)
				} else if last, ok, err := engine.State().LastWatched(cctx, view.Story.ID); err == nil && ok {
					for i, ep := range view.Episodes {
						if ep.ID == last.EpisodeID {
							view.Feed.SetIndex(i)
							fmt.Fprintf(out, "Resuming at episode %d\n", ep.Sequence)
							break
						}
					}
				}

				for {
					stop, err := engine.Watch(cctx, view)
					if err != nil {
						return err
					}
					switch stop.Reason {
					case app.StopEndOfContent:
						fmt.Fprintln(out, "You're all caught up.")
						return nil
					case app.StopLocked:
						sess, _ := engine.Sessions().Current()
						printLockedStop(out, view, stop, sess.Authenticated)
						return nil
					case app.StopPlaybackFailed:
						if skipFailed {
							fmt.Fprintf(out, "Episode %d failed to play, skipping: %v\n",
								stop.Episode.Sequence, stop.Err)
							if !engine.Skip(view) {
								fmt.Fprintln(out, "You're all caught up.")
								return nil
							}
							continue
						}
						if stop.Err != nil {
							return fmt.Errorf("episode %d failed: %w", stop.Episode.Sequence, stop.Err)
						}
						return fmt.Errorf("episode %d failed to play", stop.Episode.Sequence)
					case app.StopCancelled:
						return nil
					}
				}
			})
		},
	}

	cmd.Flags().IntVar(&startEpisode, "episode", 0, "Start at this episode number")
	cmd.Flags().BoolVar(&skipFailed, "skip-failed", false, "Skip episodes that fail to play")
	return cmd
}

// printLockedStop explains a paywall stop using the slide's own
// call-to-action label.
func printLockedStop(out io.Writer, view *app.StoryView, stop app.WatchStop, authenticated bool) {
	label := fmt.Sprintf("Unlock for %d coins", stop.Episode.UnlockCost())
	if pl, ok := view.Rail.Player(stop.Index); ok {
		label = pl.CTALabel(authenticated)
	}
	fmt.Fprintf(out, "Episode %d is locked. %s\n", stop.Episode.Sequence, label)
	if !authenticated {
		fmt.Fprintln(out, "Sign in first: reelfeed login --email <email>")
		return
	}
	fmt.Fprintf(out, "Unlock it with: reelfeed unlock %s %d\n", view.Story.ID, stop.Episode.Sequence)
}
