package player

import "sync"

// Transport is the single shared playback surface. Exactly one slide owns it
// at a time; the owning player writes play/pause, position, and buffering
// state through it. The mute flag is global and survives slide changes.
type Transport struct {
	mu        sync.Mutex
	playing   bool
	muted     bool
	buffering bool
	position  float64
	duration  float64
}

// Snapshot is a point-in-time copy of the transport state.
type Snapshot struct {
	Playing   bool
	Muted     bool
	Buffering bool
	Position  float64
	Duration  float64
}

// NewTransport builds a transport with the given initial mute state.
func NewTransport(startMuted bool) *Transport {
	return &Transport{muted: startMuted}
}

// Snapshot returns the current transport state.
func (t *Transport) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		Playing:   t.playing,
		Muted:     t.muted,
		Buffering: t.buffering,
		Position:  t.position,
		Duration:  t.duration,
	}
}

func (t *Transport) Playing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playing
}

func (t *Transport) setPlaying(playing bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing = playing
}

// Muted reports the global mute flag.
func (t *Transport) Muted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.muted
}

// ToggleMute flips the global mute flag and returns the new value.
func (t *Transport) ToggleMute() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.muted = !t.muted
	return t.muted
}

// SetMuted sets the global mute flag.
func (t *Transport) SetMuted(muted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.muted = muted
}

// Seek moves the playback position, clamped to [0, duration] when a duration
// is known.
func (t *Transport) Seek(seconds float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if seconds < 0 {
		seconds = 0
	}
	if t.duration > 0 && seconds > t.duration {
		seconds = t.duration
	}
	t.position = seconds
}

// Position returns the current playback position in seconds.
func (t *Transport) Position() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.position
}

// SetDuration records the media duration for the current slide. It also
// resets the position when a new duration is adopted.
func (t *Transport) SetDuration(seconds float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if seconds != t.duration {
		t.position = 0
	}
	t.duration = seconds
}

func (t *Transport) Duration() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.duration
}

func (t *Transport) SetBuffering(buffering bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buffering = buffering
}

func (t *Transport) Buffering() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buffering
}
