package player

import (
	"context"
	"sync"
)

// Rail owns the set of per-slide players behind one transport and enforces
// the single-active rule: activating a slide deactivates every other.
type Rail struct {
	mu        sync.Mutex
	players   []*Player
	transport *Transport
	active    int
}

// NewRail builds a rail over the given players. The first slide starts active
// only once Activate is called; nothing plays until then.
func NewRail(players []*Player, transport *Transport) *Rail {
	return &Rail{players: players, transport: transport, active: -1}
}

// Len returns the number of slides on the rail.
func (r *Rail) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Player returns the player at index.
func (r *Rail) Player(index int) (*Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.players) {
		return nil, false
	}
	return r.players[index], true
}

// Active returns the currently active player, if any.
func (r *Rail) Active() (*Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active < 0 || r.active >= len(r.players) {
		return nil, false
	}
	return r.players[r.active], true
}

// Transport returns the shared playback surface.
func (r *Rail) Transport() *Transport {
	return r.transport
}

// Activate makes the slide at index the playback owner, pausing all others.
// The returned error comes from the activated slide's playback URL fetch;
// the activation itself always takes effect.
func (r *Rail) Activate(ctx context.Context, index int, userID string) error {
	r.mu.Lock()
	if index < 0 || index >= len(r.players) {
		r.mu.Unlock()
		return nil
	}
	var others []*Player
	for i, p := range r.players {
		if i != index {
			others = append(others, p)
		}
	}
	target := r.players[index]
	r.active = index
	r.mu.Unlock()

	for _, p := range others {
		p.Deactivate()
	}
	return target.Activate(ctx, userID)
}
