// Package app composes the client subsystems behind one engine: backend
// client, session manager, local state, telemetry, payments, and the
// per-story feed machinery.
package app

import (
	"context"
	"errors"
	"log/slog"

	"reelfeed/internal/api"
	"reelfeed/internal/catalog"
	"reelfeed/internal/config"
	"reelfeed/internal/logging"
	"reelfeed/internal/payments"
	"reelfeed/internal/session"
	"reelfeed/internal/statedb"
	"reelfeed/internal/telemetry"
)

// CatalogSource serves story and episode metadata. *api.Client satisfies it.
type CatalogSource interface {
	GetStory(ctx context.Context, storyID string) (catalog.Story, error)
	ListEpisodes(ctx context.Context, storyID string) ([]catalog.Episode, error)
	Narrative(ctx context.Context, storyID string) (catalog.Narrative, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithRunner overrides the external video player invocation (used in tests).
func WithRunner(runner Runner) Option {
	return func(e *Engine) {
		if runner != nil {
			e.runner = runner
		}
	}
}

// WithCatalogSource overrides the metadata source (used in tests).
func WithCatalogSource(source CatalogSource) Option {
	return func(e *Engine) {
		if source != nil {
			e.catalog = source
		}
	}
}

// WithHTTPClient passes a custom HTTP client to the backend client.
func WithHTTPClient(doer api.HTTPDoer) Option {
	return func(e *Engine) { e.httpDoer = doer }
}

// tokenProxy breaks the construction cycle between the api client and the
// session manager: the client is built first with a proxy whose manager is
// attached afterwards.
type tokenProxy struct {
	manager *session.Manager
}

func (p *tokenProxy) Token() string {
	if p.manager == nil {
		return ""
	}
	return p.manager.Token()
}

// Engine wires the client subsystems together and owns their lifecycles.
type Engine struct {
	cfg       *config.Config
	log       *slog.Logger
	client    *api.Client
	catalog   CatalogSource
	sessions  *session.Manager
	state     *statedb.Store
	telemetry *telemetry.Collector
	payments  *payments.Service
	runner    Runner
	httpDoer  api.HTTPDoer
}

// New builds a fully wired engine. The state database lock is taken here;
// Close releases it.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	e := &Engine{cfg: cfg, log: logger}
	for _, opt := range opts {
		opt(e)
	}

	proxy := &tokenProxy{}
	apiOpts := []api.Option{
		api.WithTokenSource(proxy),
		api.WithRefresh(func(ctx context.Context) error {
			if proxy.manager == nil {
				return nil
			}
			return proxy.manager.Refresh(ctx)
		}),
	}
	if e.httpDoer != nil {
		apiOpts = append(apiOpts, api.WithHTTPClient(e.httpDoer))
	}
	client, err := api.NewFromConfig(cfg, apiOpts...)
	if err != nil {
		return nil, err
	}
	e.client = client
	if e.catalog == nil {
		e.catalog = client
	}

	manager, err := session.NewManager(cfg, client)
	if err != nil {
		return nil, err
	}
	proxy.manager = manager
	e.sessions = manager

	store, err := statedb.Open(cfg)
	if err != nil {
		return nil, err
	}
	e.state = store

	e.telemetry = telemetry.NewFromConfig(store, client, cfg, telemetry.WithLogger(logger))
	e.payments = payments.NewFromConfig(client, cfg, payments.WithLogger(logger))
	if e.runner == nil {
		e.runner = NewCommandRunner(cfg.Player.Command, cfg.Player.Args)
	}
	return e, nil
}

// API returns the backend client.
func (e *Engine) API() *api.Client { return e.client }

// Sessions returns the session manager.
func (e *Engine) Sessions() *session.Manager { return e.sessions }

// State returns the local state store.
func (e *Engine) State() *statedb.Store { return e.state }

// Telemetry returns the event collector.
func (e *Engine) Telemetry() *telemetry.Collector { return e.telemetry }

// Payments returns the top-up service.
func (e *Engine) Payments() *payments.Service { return e.payments }

// Close flushes queued telemetry on a best-effort basis and releases the
// state database.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	if e.telemetry != nil {
		if _, err := e.telemetry.Flush(context.Background()); err != nil {
			e.log.Debug("final telemetry flush skipped", "error", err)
		}
	}
	if e.state != nil {
		return e.state.Close()
	}
	return nil
}
