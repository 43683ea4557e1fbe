package app

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"

	"reelfeed/internal/catalog"
	"reelfeed/internal/logging"
	"reelfeed/internal/services"
	"reelfeed/internal/telemetry"
)

// Runner plays one video URL and blocks until playback finishes. The default
// implementation shells out to the configured player command.
type Runner interface {
	Play(ctx context.Context, videoURL, title string) error
}

type commandRunner struct {
	command string
	args    []string
}

// NewCommandRunner builds a runner that invokes an external player binary
// with the video URL appended to the configured arguments.
func NewCommandRunner(command string, args []string) Runner {
	return &commandRunner{command: command, args: args}
}

func (r *commandRunner) Play(ctx context.Context, videoURL, title string) error {
	args := append(append([]string{}, r.args...), videoURL)
	cmd := exec.CommandContext(ctx, r.command, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return cmd.Run()
}

// StopReason explains why a watch loop returned.
type StopReason int

const (
	// StopEndOfContent means the last episode finished.
	StopEndOfContent StopReason = iota
	// StopLocked means the loop reached a paywalled episode. The caller
	// offers the unlock flow and may resume.
	StopLocked
	// StopPlaybackFailed means the active episode could not load or play.
	// The caller may skip past it.
	StopPlaybackFailed
	// StopCancelled means the context ended the loop.
	StopCancelled
)

// WatchStop is the terminal state of one watch loop run.
type WatchStop struct {
	Reason  StopReason
	Index   int
	Episode catalog.Episode
	Err     error
}

// Watch runs the feed loop from the view's current index: resolve the active
// episode's playback URL, hand it to the external player, record history, and
// auto-advance until content runs out or a paywalled or failing episode stops
// the loop.
func (e *Engine) Watch(ctx context.Context, view *StoryView) (WatchStop, error) {
	ctx = services.WithRequestID(ctx, uuid.New().String())
	ctx = services.WithStoryID(ctx, view.Story.ID)

	userID := ""
	if sess, ok := e.sessions.Current(); ok {
		userID = sess.UserID
	}

	for {
		if err := ctx.Err(); err != nil {
			return WatchStop{Reason: StopCancelled, Err: err}, nil
		}
		index, episode, ok := view.Feed.Active()
		if !ok {
			return WatchStop{Reason: StopEndOfContent}, nil
		}
		epCtx := services.WithEpisodeID(ctx, episode.ID)
		log := logging.WithContext(epCtx, e.log)

		current, found := view.Rail.Player(index)
		if !found {
			return WatchStop{Reason: StopEndOfContent}, nil
		}
		if current.Locked() {
			return WatchStop{Reason: StopLocked, Index: index, Episode: episode}, nil
		}

		if err := view.Rail.Activate(epCtx, index, userID); err != nil {
			return WatchStop{Reason: StopPlaybackFailed, Index: index, Episode: episode, Err: err}, nil
		}
		playback, ready := current.Playback()
		if !ready {
			return WatchStop{Reason: StopPlaybackFailed, Index: index, Episode: episode}, nil
		}

		if err := e.telemetry.Record(epCtx, telemetry.EventPlaybackStarted, map[string]any{
			"storyId":   view.Story.ID,
			"episodeId": episode.ID,
		}); err != nil {
			log.Debug("record playback event", "error", err)
		}

		log.Info("playing episode", "sequence", episode.Sequence)
		if err := e.runner.Play(epCtx, playback.VideoURL, episode.DisplayTitle()); err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return WatchStop{Reason: StopCancelled, Err: ctx.Err()}, nil
			}
			return WatchStop{Reason: StopPlaybackFailed, Index: index, Episode: episode, Err: err}, nil
		}

		position := float64(playback.DurationSeconds)
		if position <= 0 {
			position = float64(episode.DurationSeconds)
		}
		if err := e.state.RecordWatch(epCtx, view.Story.ID, episode.ID, position, time.Now()); err != nil {
			log.Warn("record watch history", "error", err)
		}
		e.telemetry.MaybeFlush(epCtx)

		// Natural end: the player pauses the transport and the feed schedules
		// the auto-advance. Wait for it to land.
		current.HandleEnded()
		select {
		case <-ctx.Done():
			return WatchStop{Reason: StopCancelled, Err: ctx.Err()}, nil
		case <-view.Advanced():
			continue
		case <-view.Ended():
			return WatchStop{Reason: StopEndOfContent, Index: index, Episode: episode}, nil
		}
	}
}

// Skip moves the feed past a failed episode so Watch can continue. It
// reports false when the feed is already at the last episode, so callers can
// stop instead of re-activating the same failed slide.
func (e *Engine) Skip(view *StoryView) bool {
	before, _, ok := view.Feed.Active()
	if !ok {
		return false
	}
	view.Feed.Next()
	after, _, _ := view.Feed.Active()
	return after != before
}
