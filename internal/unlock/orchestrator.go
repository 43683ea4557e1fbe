// Package unlock sequences the paywall flow: balance check, optimistic
// unlock staging, the backend unlock call, and the purchase fallback when
// coins run short.
package unlock

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"reelfeed/internal/api"
	"reelfeed/internal/catalog"
	"reelfeed/internal/logging"
	"reelfeed/internal/services"
	"reelfeed/internal/session"
)

// ErrSignInRequired is returned when an unlock is attempted without an
// authenticated account. Callers redirect to sign-in.
var ErrSignInRequired = errors.New("sign in required to unlock episodes")

// Status is the outcome of an unlock attempt.
type Status int

const (
	// StatusUnlocked means the episode is confirmed unlocked and the balance
	// was updated from the server response.
	StatusUnlocked Status = iota
	// StatusPurchaseRequired means the balance cannot cover the cost; the
	// episode is remembered so ResumePending can retry after a top-up.
	StatusPurchaseRequired
)

// Backend performs the server-side unlock. *api.Client satisfies it.
type Backend interface {
	Unlock(ctx context.Context, episodeID, storyID string) (api.UnlockResult, error)
}

// Sessions exposes the account state the orchestrator needs.
type Sessions interface {
	Current() (session.Session, bool)
	SetBalance(balance int) error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithInvalidate registers a callback fired after a confirmed unlock so the
// caller can refresh cached story and narrative data.
func WithInvalidate(fn func(storyID string)) Option {
	return func(o *Orchestrator) { o.invalidate = fn }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.log = logger.With(logging.FieldComponent, "unlock")
		}
	}
}

// Orchestrator coordinates one unlock flow at a time against a shared
// unlocked set. Entries are staged before the server confirms and rolled
// back if it rejects, so the set never regresses on a confirmed unlock.
type Orchestrator struct {
	mu             sync.Mutex
	backend        Backend
	sessions       Sessions
	unlocked       *catalog.UnlockedSet
	invalidate     func(storyID string)
	log            *slog.Logger
	pendingEpisode catalog.Episode
	pendingStory   string
	hasPending     bool
}

// New builds an orchestrator over the shared unlocked set.
func New(backend Backend, sessions Sessions, unlocked *catalog.UnlockedSet, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend:  backend,
		sessions: sessions,
		unlocked: unlocked,
		log:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Begin runs the unlock flow for one episode. Without an authenticated
// account it returns ErrSignInRequired. With insufficient coins, locally or
// as reported by the server, it records the episode as pending and reports
// StatusPurchaseRequired so the caller can open the top-up flow.
func (o *Orchestrator) Begin(ctx context.Context, episode catalog.Episode, storyID string) (Status, error) {
	sess, ok := o.sessions.Current()
	if !ok || !sess.Authenticated {
		return 0, ErrSignInRequired
	}

	cost := episode.UnlockCost()
	if sess.Balance < cost {
		o.rememberPending(episode, storyID)
		o.log.Info("purchase required",
			logging.FieldEpisodeID, episode.ID, "balance", sess.Balance, "cost", cost)
		return StatusPurchaseRequired, nil
	}

	o.unlocked.Stage(episode.ID)
	result, err := o.backend.Unlock(ctx, episode.ID, storyID)
	if err != nil {
		o.unlocked.Rollback(episode.ID)
		if errors.Is(err, services.ErrInsufficientBalance) {
			o.rememberPending(episode, storyID)
			return StatusPurchaseRequired, nil
		}
		return 0, services.Wrap(services.ErrTransient, "unlock", "begin", "unlock transaction failed", err)
	}
	if !result.Success {
		o.unlocked.Rollback(episode.ID)
		return 0, services.Wrap(services.ErrTransient, "unlock", "begin", "unlock rejected by server", nil)
	}

	o.unlocked.Commit(episode.ID)
	if err := o.sessions.SetBalance(result.RemainingTokens); err != nil {
		o.log.Warn("persist balance after unlock", "error", err)
	}
	o.clearPending(episode.ID)
	if o.invalidate != nil {
		o.invalidate(storyID)
	}
	o.log.Info("episode unlocked",
		logging.FieldEpisodeID, episode.ID, "remaining", result.RemainingTokens)
	return StatusUnlocked, nil
}

// Pending returns the episode waiting on a coin purchase, if any.
func (o *Orchestrator) Pending() (catalog.Episode, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pendingEpisode, o.hasPending
}

// ResumePending retries the remembered unlock once after a successful
// purchase. The marker is cleared regardless of outcome so a failing retry
// does not loop. retried is false when nothing was pending.
func (o *Orchestrator) ResumePending(ctx context.Context) (Status, bool, error) {
	o.mu.Lock()
	if !o.hasPending {
		o.mu.Unlock()
		return 0, false, nil
	}
	episode := o.pendingEpisode
	storyID := o.pendingStory
	o.hasPending = false
	o.pendingEpisode = catalog.Episode{}
	o.pendingStory = ""
	o.mu.Unlock()

	status, err := o.Begin(ctx, episode, storyID)
	return status, true, err
}

func (o *Orchestrator) rememberPending(episode catalog.Episode, storyID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pendingEpisode = episode
	o.pendingStory = storyID
	o.hasPending = true
}

func (o *Orchestrator) clearPending(episodeID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.hasPending && o.pendingEpisode.ID == episodeID {
		o.hasPending = false
		o.pendingEpisode = catalog.Episode{}
		o.pendingStory = ""
	}
}
