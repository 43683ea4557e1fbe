package player

import (
	"context"
	"errors"
	"testing"
	"time"

	"reelfeed/internal/api"
	"reelfeed/internal/catalog"
	"reelfeed/internal/services"
)

type fakeSource struct {
	calls    int
	failures []error
	playback api.Playback
}

func (f *fakeSource) PlaybackURL(_ context.Context, _, _ string) (api.Playback, error) {
	f.calls++
	if f.calls <= len(f.failures) {
		return api.Playback{}, f.failures[f.calls-1]
	}
	return f.playback, nil
}

func instantSleep(context.Context, time.Duration) error { return nil }

func unauthorized() error {
	return &api.Error{Status: 401, Message: "unauthorized"}
}

func freeEpisode() catalog.Episode {
	return catalog.Episode{ID: "ep-1", StoryID: "story-1", Sequence: 1, DurationSeconds: 90}
}

func newTestPlayer(ep catalog.Episode, free int, source *fakeSource, opts ...Option) (*Player, *Transport) {
	transport := NewTransport(false)
	opts = append([]Option{WithSleepFunc(instantSleep)}, opts...)
	return New(ep, free, catalog.NewUnlockedSet(), source, transport, opts...), transport
}

func TestActivateFetchesAndPlays(t *testing.T) {
	source := &fakeSource{playback: api.Playback{VideoURL: "https://cdn.example/v.m3u8", DurationSeconds: 90}}
	p, transport := newTestPlayer(freeEpisode(), 3, source)

	if err := p.Activate(context.Background(), "user-1"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if p.State() != StateReady {
		t.Fatalf("expected ready, got %s", p.State())
	}
	if !transport.Playing() {
		t.Fatal("expected playback started")
	}
	if got := transport.Duration(); got != 90 {
		t.Fatalf("expected duration adopted, got %v", got)
	}
	playback, ok := p.Playback()
	if !ok || playback.VideoURL != "https://cdn.example/v.m3u8" {
		t.Fatalf("unexpected playback: %+v ok=%v", playback, ok)
	}
}

func TestPrepareRetriesUnauthorizedThenSucceeds(t *testing.T) {
	source := &fakeSource{
		failures: []error{unauthorized(), unauthorized()},
		playback: api.Playback{VideoURL: "https://cdn.example/v.m3u8"},
	}
	p, _ := newTestPlayer(freeEpisode(), 3, source)

	if err := p.Activate(context.Background(), "user-1"); err != nil {
		t.Fatalf("expected success within retry budget: %v", err)
	}
	if source.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", source.calls)
	}
	if p.State() != StateReady {
		t.Fatalf("expected ready, got %s", p.State())
	}
}

func TestPrepareExhaustsUnauthorizedRetries(t *testing.T) {
	source := &fakeSource{failures: []error{unauthorized(), unauthorized(), unauthorized()}}
	p, _ := newTestPlayer(freeEpisode(), 3, source)

	err := p.Activate(context.Background(), "user-1")
	if err == nil {
		t.Fatal("expected failure after exhausting retries")
	}
	if !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("expected unauthorized marker, got %v", err)
	}
	if source.calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", source.calls)
	}
	if p.State() != StateFailed {
		t.Fatalf("expected failed, got %s", p.State())
	}

	// Failure is terminal: a second activation must not refetch.
	if err := p.Activate(context.Background(), "user-1"); err == nil {
		t.Fatal("expected cached failure")
	}
	if source.calls != 3 {
		t.Fatalf("expected no further attempts, got %d", source.calls)
	}
}

func TestPrepareDoesNotRetryOtherErrors(t *testing.T) {
	source := &fakeSource{failures: []error{&api.Error{Status: 404, Message: "gone"}}}
	p, _ := newTestPlayer(freeEpisode(), 3, source)

	if err := p.Activate(context.Background(), "user-1"); err == nil {
		t.Fatal("expected failure")
	}
	if source.calls != 1 {
		t.Fatalf("expected single attempt for non-auth error, got %d", source.calls)
	}
	if p.State() != StateFailed {
		t.Fatalf("expected failed, got %s", p.State())
	}
}

func TestLockedSlideStaysIdle(t *testing.T) {
	source := &fakeSource{}
	locked := catalog.Episode{ID: "ep-5", Sequence: 5, TokenCost: 10}
	p, transport := newTestPlayer(locked, 3, source)

	if err := p.Activate(context.Background(), "user-1"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if source.calls != 0 {
		t.Fatal("locked slide must not fetch a playback url")
	}
	if p.State() != StateIdle {
		t.Fatalf("expected idle, got %s", p.State())
	}
	if transport.Playing() {
		t.Fatal("locked slide must not play")
	}
}

func TestUnlockedTriggersFetchWhileActive(t *testing.T) {
	source := &fakeSource{playback: api.Playback{VideoURL: "u"}}
	unlocked := catalog.NewUnlockedSet()
	transport := NewTransport(false)
	ep := catalog.Episode{ID: "ep-5", Sequence: 5, TokenCost: 10}
	p := New(ep, 3, unlocked, source, transport, WithSleepFunc(instantSleep))

	if err := p.Activate(context.Background(), "user-1"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	unlocked.Add("ep-5")
	if err := p.Unlocked(context.Background(), "user-1"); err != nil {
		t.Fatalf("unlocked: %v", err)
	}
	if p.State() != StateReady || !transport.Playing() {
		t.Fatalf("expected playing after unlock, state=%s playing=%v", p.State(), transport.Playing())
	}
}

func TestCTALabel(t *testing.T) {
	ep := catalog.Episode{ID: "ep-5", Sequence: 5, TokenCost: 12}
	p, _ := newTestPlayer(ep, 3, &fakeSource{})
	if got := p.CTALabel(false); got != "Sign in to watch" {
		t.Fatalf("unexpected guest label %q", got)
	}
	if got := p.CTALabel(true); got != "Unlock for 12 coins" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestHandleEndedPausesAndSignals(t *testing.T) {
	advanced := 0
	source := &fakeSource{playback: api.Playback{VideoURL: "u"}}
	transport := NewTransport(false)
	p := New(freeEpisode(), 3, catalog.NewUnlockedSet(), source, transport,
		WithSleepFunc(instantSleep), OnEnded(func() { advanced++ }))

	if err := p.Activate(context.Background(), "user-1"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	p.HandleEnded()
	if p.State() != StateEnded {
		t.Fatalf("expected ended, got %s", p.State())
	}
	if transport.Playing() {
		t.Fatal("expected transport paused at end")
	}
	if advanced != 1 {
		t.Fatalf("expected one advance signal, got %d", advanced)
	}

	// Ended is sticky until rewind.
	p.HandleEnded()
	if advanced != 1 {
		t.Fatalf("expected no duplicate signal, got %d", advanced)
	}
	p.Rewind()
	if p.State() != StateReady {
		t.Fatalf("expected ready after rewind, got %s", p.State())
	}
}

func TestRailSingleActive(t *testing.T) {
	transport := NewTransport(false)
	unlocked := catalog.NewUnlockedSet()
	src1 := &fakeSource{playback: api.Playback{VideoURL: "a"}}
	src2 := &fakeSource{playback: api.Playback{VideoURL: "b"}}
	p1 := New(catalog.Episode{ID: "ep-1", Sequence: 1}, 3, unlocked, src1, transport, WithSleepFunc(instantSleep))
	p2 := New(catalog.Episode{ID: "ep-2", Sequence: 2}, 3, unlocked, src2, transport, WithSleepFunc(instantSleep))
	rail := NewRail([]*Player{p1, p2}, transport)

	if err := rail.Activate(context.Background(), 0, "user-1"); err != nil {
		t.Fatalf("activate 0: %v", err)
	}
	if !transport.Playing() {
		t.Fatal("expected first slide playing")
	}
	if err := rail.Activate(context.Background(), 1, "user-1"); err != nil {
		t.Fatalf("activate 1: %v", err)
	}
	active, ok := rail.Active()
	if !ok || active != p2 {
		t.Fatal("expected second slide active")
	}
	// The deactivated slide cannot restart playback.
	transport.setPlaying(false)
	p1.Play()
	if transport.Playing() {
		t.Fatal("inactive slide must not play")
	}
}

func TestMuteIsGlobalAcrossSlides(t *testing.T) {
	transport := NewTransport(true)
	if !transport.Muted() {
		t.Fatal("expected start muted")
	}
	if transport.ToggleMute() {
		t.Fatal("expected unmuted after toggle")
	}
	// A later slide sees the same flag.
	if transport.Muted() {
		t.Fatal("mute flag must persist across slides")
	}
}

func TestSeekClampsToDuration(t *testing.T) {
	transport := NewTransport(false)
	transport.SetDuration(120)
	transport.Seek(500)
	if got := transport.Position(); got != 120 {
		t.Fatalf("expected clamp to duration, got %v", got)
	}
	transport.Seek(-3)
	if got := transport.Position(); got != 0 {
		t.Fatalf("expected clamp to zero, got %v", got)
	}
}
