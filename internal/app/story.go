package app

import (
	"context"
	"time"

	"reelfeed/internal/api"
	"reelfeed/internal/catalog"
	"reelfeed/internal/feed"
	"reelfeed/internal/logging"
	"reelfeed/internal/player"
	"reelfeed/internal/services"
	"reelfeed/internal/telemetry"
	"reelfeed/internal/unlock"
)

// StoryView is one loaded story: metadata, the shared unlocked set, and the
// feed/playback machinery built over its episode list.
type StoryView struct {
	Story     catalog.Story
	Episodes  []catalog.Episode
	Unlocked  *catalog.UnlockedSet
	Feed      *feed.Coordinator
	Rail      *player.Rail
	Transport *player.Transport
	Unlocker  *unlock.Orchestrator

	advanced chan int
	ended    chan struct{}
}

// Advanced signals each feed index change during a watch loop.
func (v *StoryView) Advanced() <-chan int { return v.advanced }

// Ended signals that auto-advance ran past the last episode.
func (v *StoryView) Ended() <-chan struct{} { return v.ended }

// LoadStory fetches a story with its episodes, rebuilds the unlocked set
// from the viewer's narrative state when a session exists, and assembles the
// feed coordinator and player rail.
func (e *Engine) LoadStory(ctx context.Context, storyID string) (*StoryView, error) {
	ctx = services.WithStoryID(ctx, storyID)
	log := logging.WithContext(ctx, e.log)

	story, err := e.catalog.GetStory(ctx, storyID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "app", "load story", "fetch story", err)
	}
	episodes, err := e.catalog.ListEpisodes(ctx, storyID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "app", "load story", "fetch episodes", err)
	}

	unlocked := catalog.NewUnlockedSet()
	if _, ok := e.sessions.Current(); ok {
		narrative, err := e.catalog.Narrative(ctx, storyID)
		if err != nil {
			// Playable state degrades to free episodes only; the next
			// successful load rebuilds the set.
			log.Warn("narrative fetch failed", "error", err)
		} else {
			unlocked.Rebuild(narrative.UnlockedEpisodes)
		}
	}

	view := &StoryView{
		Story:    story,
		Episodes: episodes,
		Unlocked: unlocked,
		advanced: make(chan int, 8),
		ended:    make(chan struct{}, 1),
	}

	view.Transport = player.NewTransport(e.cfg.Player.StartMuted)
	players := make([]*player.Player, len(episodes))

	callbacks := feed.Callbacks{
		ActiveChanged: func(index int, ep catalog.Episode) {
			if err := e.telemetry.Record(ctx, telemetry.EventEpisodeViewed, map[string]any{
				"storyId":   storyID,
				"episodeId": ep.ID,
			}); err != nil {
				e.log.Debug("record view event", "error", err)
			}
			select {
			case view.advanced <- index:
			default:
			}
		},
		EndOfContent: func() {
			select {
			case view.ended <- struct{}{}:
			default:
			}
		},
	}
	feedOpts := append(feed.FromConfig(e.cfg), feed.WithLogger(e.log))
	view.Feed = feed.New(episodes, callbacks, feedOpts...)

	retryDelay := time.Duration(e.cfg.API.PlaybackRetryDelayMS) * time.Millisecond
	for i, ep := range episodes {
		players[i] = player.New(ep, story.FreeEpisodes, unlocked, e.client, view.Transport,
			player.WithRetryPolicy(e.cfg.API.PlaybackRetryAttempts, retryDelay),
			player.WithLogger(e.log),
			player.OnEnded(view.Feed.AdvanceAfterEnd),
		)
	}
	view.Rail = player.NewRail(players, view.Transport)

	view.Unlocker = unlock.New(e.client, e.sessions, unlocked,
		unlock.WithLogger(e.log),
		unlock.WithInvalidate(func(string) {
			// Unlock state lives in the shared set; server-side caches are
			// refreshed on the next narrative fetch.
		}),
	)
	return view, nil
}

// UnlockEpisode runs the paywall flow for one episode of a loaded story and
// records the telemetry event on success.
func (e *Engine) UnlockEpisode(ctx context.Context, view *StoryView, episode catalog.Episode) (unlock.Status, error) {
	status, err := view.Unlocker.Begin(ctx, episode, view.Story.ID)
	if err != nil {
		return status, err
	}
	if status == unlock.StatusUnlocked {
		if recErr := e.telemetry.Record(ctx, telemetry.EventEpisodeUnlocked, map[string]any{
			"storyId":   view.Story.ID,
			"episodeId": episode.ID,
		}); recErr != nil {
			e.log.Debug("record unlock event", "error", recErr)
		}
	}
	return status, nil
}

// ResumePendingUnlock retries the unlock that was waiting on a coin purchase.
// retried is false when nothing was pending.
func (e *Engine) ResumePendingUnlock(ctx context.Context, view *StoryView) (unlock.Status, bool, error) {
	episode, pending := view.Unlocker.Pending()
	status, retried, err := view.Unlocker.ResumePending(ctx)
	if err != nil || !retried {
		return status, retried, err
	}
	if status == unlock.StatusUnlocked && pending {
		if recErr := e.telemetry.Record(ctx, telemetry.EventEpisodeUnlocked, map[string]any{
			"storyId":   view.Story.ID,
			"episodeId": episode.ID,
		}); recErr != nil {
			e.log.Debug("record unlock event", "error", recErr)
		}
	}
	return status, retried, nil
}

// Stories proxies the story listing.
func (e *Engine) Stories(ctx context.Context, q api.ContentQuery) (api.ContentPage, error) {
	return e.client.ListContent(ctx, q)
}
