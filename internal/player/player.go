package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"reelfeed/internal/api"
	"reelfeed/internal/catalog"
	"reelfeed/internal/logging"
	"reelfeed/internal/services"
)

// State is the per-slide playback lifecycle.
type State int

const (
	// StateIdle means no playback source has been requested yet.
	StateIdle State = iota
	// StateFetching means the signed playback URL request is in flight.
	StateFetching
	// StateReady means a playback URL is held and the slide can play.
	StateReady
	// StateEnded means the media reached its natural end.
	StateEnded
	// StateFailed is terminal for the episode; no automatic retry happens.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateReady:
		return "ready"
	case StateEnded:
		return "ended"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// PlaybackSource resolves signed playback URLs. *api.Client satisfies it.
type PlaybackSource interface {
	PlaybackURL(ctx context.Context, userID, episodeID string) (api.Playback, error)
}

// SleepFunc waits for d or until ctx is done. Tests inject an instant sleeper.
type SleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Option configures a Player.
type Option func(*Player)

// WithRetryPolicy sets the playback URL fetch retry budget. Only unauthorized
// responses are retried; attempts below one are coerced to one.
func WithRetryPolicy(attempts int, delay time.Duration) Option {
	return func(p *Player) {
		if attempts > 0 {
			p.retryAttempts = attempts
		}
		if delay >= 0 {
			p.retryDelay = delay
		}
	}
}

// WithSleepFunc overrides the inter-attempt wait (used in tests).
func WithSleepFunc(sleep SleepFunc) Option {
	return func(p *Player) {
		if sleep != nil {
			p.sleep = sleep
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Player) {
		if logger != nil {
			p.log = logger.With(logging.FieldComponent, "player")
		}
	}
}

// OnEnded registers the natural-end handler, typically the feed coordinator's
// auto-advance trigger.
func OnEnded(fn func()) Option {
	return func(p *Player) { p.onEnded = fn }
}

// Player is one slide's playback machine. The lock gate is orthogonal to the
// lifecycle state: while the episode is locked, activation never fetches and
// the machine stays idle.
type Player struct {
	mu       sync.Mutex
	episode  catalog.Episode
	free     int
	unlocked *catalog.UnlockedSet

	source    PlaybackSource
	transport *Transport
	sleep     SleepFunc
	log       *slog.Logger

	retryAttempts int
	retryDelay    time.Duration

	state    State
	active   bool
	playback api.Playback
	lastErr  error
	onEnded  func()
}

// New builds a player for one episode. The unlocked set is shared with the
// catalog layer so an unlock is visible here without re-fetching.
func New(episode catalog.Episode, freeEpisodes int, unlocked *catalog.UnlockedSet, source PlaybackSource, transport *Transport, opts ...Option) *Player {
	p := &Player{
		episode:       episode,
		free:          freeEpisodes,
		unlocked:      unlocked,
		source:        source,
		transport:     transport,
		sleep:         defaultSleep,
		log:           logging.NewNop(),
		retryAttempts: 3,
		retryDelay:    500 * time.Millisecond,
		state:         StateIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Episode returns the episode this player renders.
func (p *Player) Episode() catalog.Episode {
	return p.episode
}

// State returns the current lifecycle state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err returns the error that moved the player to StateFailed, if any.
func (p *Player) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Locked reports whether the paywall gate currently suppresses this slide.
func (p *Player) Locked() bool {
	return catalog.Locked(p.episode, p.free, p.unlocked)
}

// CTALabel returns the call-to-action shown over a locked slide.
func (p *Player) CTALabel(authenticated bool) string {
	if !authenticated {
		return "Sign in to watch"
	}
	return fmt.Sprintf("Unlock for %d coins", p.episode.UnlockCost())
}

// Playback returns the resolved playback details; ok is false before the
// fetch has succeeded.
func (p *Player) Playback() (api.Playback, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playback, p.state == StateReady || p.state == StateEnded
}

// Activate makes this slide the playback owner. If the episode is unlocked
// and no URL is held yet, the signed playback URL is fetched; once ready,
// playback starts through the shared transport. Locked slides stay idle.
func (p *Player) Activate(ctx context.Context, userID string) error {
	p.mu.Lock()
	p.active = true
	p.mu.Unlock()

	if p.Locked() {
		return nil
	}
	if err := p.prepare(ctx, userID); err != nil {
		return err
	}
	p.Play()
	return nil
}

// Deactivate pauses this slide and releases transport ownership.
func (p *Player) Deactivate() {
	p.mu.Lock()
	wasActive := p.active
	p.active = false
	p.mu.Unlock()
	if wasActive {
		p.transport.setPlaying(false)
	}
}

// Unlocked notifies the player that its episode was unlocked while mounted.
// It resolves the playback URL and starts playing when the slide is active.
func (p *Player) Unlocked(ctx context.Context, userID string) error {
	if p.Locked() {
		return services.Wrap(services.ErrValidation, "player", "unlocked", "episode is still locked", nil)
	}
	if err := p.prepare(ctx, userID); err != nil {
		return err
	}
	p.mu.Lock()
	active := p.active
	p.mu.Unlock()
	if active {
		p.Play()
	}
	return nil
}

// prepare resolves the playback URL, retrying only unauthorized responses up
// to the configured attempt budget. A fresh guest token can lag behind the
// first playback request, so a brief retry window covers that race; any other
// error is terminal for the episode.
func (p *Player) prepare(ctx context.Context, userID string) error {
	p.mu.Lock()
	switch p.state {
	case StateReady, StateEnded:
		p.mu.Unlock()
		return nil
	case StateFailed:
		err := p.lastErr
		p.mu.Unlock()
		return err
	case StateFetching:
		p.mu.Unlock()
		return nil
	}
	p.state = StateFetching
	p.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= p.retryAttempts; attempt++ {
		playback, err := p.source.PlaybackURL(ctx, userID, p.episode.ID)
		if err == nil {
			p.mu.Lock()
			p.playback = playback
			p.state = StateReady
			p.mu.Unlock()
			p.transport.SetDuration(float64(playback.DurationSeconds))
			p.log.Debug("playback url resolved", logging.FieldEpisodeID, p.episode.ID, "attempt", attempt)
			return nil
		}
		lastErr = err
		if !errors.Is(err, services.ErrUnauthorized) || attempt == p.retryAttempts {
			break
		}
		p.log.Debug("playback url unauthorized, retrying",
			logging.FieldEpisodeID, p.episode.ID, "attempt", attempt)
		if err := p.sleep(ctx, p.retryDelay); err != nil {
			lastErr = err
			break
		}
	}

	failure := services.Wrap(services.ErrTransient, "player", "prepare", "resolve playback url", lastErr)
	if errors.Is(lastErr, services.ErrUnauthorized) {
		failure = services.Wrap(services.ErrUnauthorized, "player", "prepare", "resolve playback url", lastErr)
	}
	p.mu.Lock()
	p.state = StateFailed
	p.lastErr = failure
	p.mu.Unlock()
	p.log.Warn("playback url failed", logging.FieldEpisodeID, p.episode.ID, "error", lastErr)
	return failure
}

// Play starts playback; only the active, ready slide may own the transport.
func (p *Player) Play() {
	p.mu.Lock()
	allowed := p.active && p.state == StateReady
	p.mu.Unlock()
	if allowed {
		p.transport.setPlaying(true)
	}
}

// Pause stops playback for the active slide.
func (p *Player) Pause() {
	p.mu.Lock()
	active := p.active
	p.mu.Unlock()
	if active {
		p.transport.setPlaying(false)
	}
}

// TogglePlay flips between playing and paused.
func (p *Player) TogglePlay() {
	if p.transport.Playing() {
		p.Pause()
		return
	}
	p.Play()
}

// Seek writes a new position through the transport; active slides only.
func (p *Player) Seek(seconds float64) {
	p.mu.Lock()
	active := p.active
	p.mu.Unlock()
	if active {
		p.transport.Seek(seconds)
	}
}

// HandleEnded marks natural end of playback: the transport pauses and the
// registered end handler (feed auto-advance) fires.
func (p *Player) HandleEnded() {
	p.mu.Lock()
	if p.state != StateReady {
		p.mu.Unlock()
		return
	}
	p.state = StateEnded
	onEnded := p.onEnded
	p.mu.Unlock()

	p.transport.setPlaying(false)
	p.log.Debug("playback ended", logging.FieldEpisodeID, p.episode.ID)
	if onEnded != nil {
		onEnded()
	}
}

// Rewind resets an ended slide so it can play again.
func (p *Player) Rewind() {
	p.mu.Lock()
	if p.state == StateEnded {
		p.state = StateReady
	}
	p.mu.Unlock()
	p.transport.Seek(0)
}
