package feed

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"reelfeed/internal/catalog"
	"reelfeed/internal/config"
	"reelfeed/internal/logging"
)

// CancelFunc stops a pending timer callback.
type CancelFunc func()

// TimerFunc schedules fn after d and returns a cancel handle. The default
// implementation wraps time.AfterFunc; tests inject a manual trigger.
type TimerFunc func(d time.Duration, fn func()) CancelFunc

// Callbacks are invoked by the coordinator as the active slide changes.
// All callbacks run outside the coordinator lock.
type Callbacks struct {
	// ActiveChanged fires whenever a new slide becomes the active one.
	ActiveChanged func(index int, episode catalog.Episode)
	// ScrollTo fires when programmatic navigation needs the viewport moved.
	ScrollTo func(offsetPx int)
	// EndOfContent fires when auto-advance runs past the last episode.
	EndOfContent func()
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithViewportHeight sets the slide height in pixels.
func WithViewportHeight(px int) Option {
	return func(c *Coordinator) {
		if px > 0 {
			c.viewportHeight = px
		}
	}
}

// WithSwipeThreshold sets the minimum vertical swipe distance in pixels.
func WithSwipeThreshold(px int) Option {
	return func(c *Coordinator) {
		if px > 0 {
			c.swipeThreshold = px
		}
	}
}

// WithSettleDelay sets the debounce applied after scrolling stops.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.settleDelay = d
		}
	}
}

// WithAdvanceDelay sets the pause before auto-advancing after playback ends.
func WithAdvanceDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.advanceDelay = d
		}
	}
}

// WithTimerFunc overrides timer scheduling (used in tests).
func WithTimerFunc(timer TimerFunc) Option {
	return func(c *Coordinator) {
		if timer != nil {
			c.timer = timer
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.log = logger.With(logging.FieldComponent, "feed")
		}
	}
}

// FromConfig derives coordinator options from feed and player configuration.
func FromConfig(cfg *config.Config) []Option {
	if cfg == nil {
		return nil
	}
	return []Option{
		WithViewportHeight(cfg.Feed.ViewportHeight),
		WithSwipeThreshold(cfg.Feed.SwipeThresholdPX),
		WithSettleDelay(time.Duration(cfg.Feed.ScrollSettleMS) * time.Millisecond),
		WithAdvanceDelay(time.Duration(cfg.Player.AutoAdvanceDelayMS) * time.Millisecond),
	}
}

// Coordinator presents an ordered, vertically-paged sequence of episodes and
// keeps a single current index synchronized between programmatic navigation,
// user scrolling, and swipe gestures. At most one slide is active at a time.
type Coordinator struct {
	mu             sync.Mutex
	episodes       []catalog.Episode
	index          int
	viewportHeight int
	swipeThreshold int
	settleDelay    time.Duration
	advanceDelay   time.Duration
	callbacks      Callbacks
	timer          TimerFunc
	log            *slog.Logger

	lastOffset    int
	swipeStartY   int
	swiping       bool
	cancelSettle  CancelFunc
	cancelAdvance CancelFunc
}

// New builds a coordinator over the ordered episode list. An empty list is
// valid; every operation is then a no-op and no slide is ever active.
func New(episodes []catalog.Episode, callbacks Callbacks, opts ...Option) *Coordinator {
	c := &Coordinator{
		episodes:       append([]catalog.Episode{}, episodes...),
		viewportHeight: 844,
		swipeThreshold: 50,
		settleDelay:    150 * time.Millisecond,
		advanceDelay:   time.Second,
		callbacks:      callbacks,
		timer: func(d time.Duration, fn func()) CancelFunc {
			t := time.AfterFunc(d, fn)
			return func() { t.Stop() }
		},
		log: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Len returns the number of episodes in the feed.
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.episodes)
}

// Active returns the current index and episode. ok is false for an empty feed.
func (c *Coordinator) Active() (int, catalog.Episode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.episodes) == 0 {
		return 0, catalog.Episode{}, false
	}
	return c.index, c.episodes[c.index], true
}

// IsActive reports whether the slide at index is the active one.
func (c *Coordinator) IsActive(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.episodes) > 0 && index == c.index
}

// Episodes returns a copy of the ordered episode list.
func (c *Coordinator) Episodes() []catalog.Episode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]catalog.Episode{}, c.episodes...)
}

// SetIndex navigates programmatically to the clamped target index, scrolling
// the viewport to its offset.
func (c *Coordinator) SetIndex(target int) {
	c.mu.Lock()
	if len(c.episodes) == 0 {
		c.mu.Unlock()
		return
	}
	target = clamp(target, 0, len(c.episodes)-1)
	if target == c.index {
		c.mu.Unlock()
		return
	}
	c.index = target
	c.lastOffset = target * c.viewportHeight
	episode := c.episodes[target]
	scrollTo := c.callbacks.ScrollTo
	activeChanged := c.callbacks.ActiveChanged
	offset := c.lastOffset
	c.mu.Unlock()

	c.log.Debug("active slide changed", logging.FieldEpisodeID, episode.ID, "index", target)
	if scrollTo != nil {
		scrollTo(offset)
	}
	if activeChanged != nil {
		activeChanged(target, episode)
	}
}

// Next advances to the following episode; a no-op at the last slide.
func (c *Coordinator) Next() {
	c.mu.Lock()
	target := c.index + 1
	c.mu.Unlock()
	c.SetIndex(target)
}

// Previous moves to the preceding episode; a no-op at index zero.
func (c *Coordinator) Previous() {
	c.mu.Lock()
	target := c.index - 1
	c.mu.Unlock()
	c.SetIndex(target)
}

// Scroll records a new viewport offset and re-arms the settle debounce.
// The index is only adopted once scrolling has stopped for the settle delay,
// preventing index thrashing mid-scroll.
func (c *Coordinator) Scroll(offsetPx int) {
	c.mu.Lock()
	if len(c.episodes) == 0 {
		c.mu.Unlock()
		return
	}
	c.lastOffset = offsetPx
	if c.cancelSettle != nil {
		c.cancelSettle()
	}
	c.cancelSettle = c.timer(c.settleDelay, c.settle)
	c.mu.Unlock()
}

func (c *Coordinator) settle() {
	c.mu.Lock()
	c.cancelSettle = nil
	if len(c.episodes) == 0 || c.viewportHeight <= 0 {
		c.mu.Unlock()
		return
	}
	settled := int(math.Round(float64(c.lastOffset) / float64(c.viewportHeight)))
	if settled == c.index || settled < 0 || settled >= len(c.episodes) {
		c.mu.Unlock()
		return
	}
	c.index = settled
	episode := c.episodes[settled]
	activeChanged := c.callbacks.ActiveChanged
	c.mu.Unlock()

	c.log.Debug("scroll settled", logging.FieldEpisodeID, episode.ID, "index", settled)
	if activeChanged != nil {
		activeChanged(settled, episode)
	}
}

// BeginSwipe records the starting Y coordinate of a touch gesture.
func (c *Coordinator) BeginSwipe(y int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.swipeStartY = y
	c.swiping = true
}

// EndSwipe interprets the completed gesture. A vertical travel exceeding the
// threshold advances one slide: upward (end above start) moves forward,
// downward moves back. Anything shorter is ignored.
func (c *Coordinator) EndSwipe(y int) {
	c.mu.Lock()
	if !c.swiping {
		c.mu.Unlock()
		return
	}
	c.swiping = false
	delta := c.swipeStartY - y
	threshold := c.swipeThreshold
	c.mu.Unlock()

	switch {
	case delta > threshold:
		c.Next()
	case delta < -threshold:
		c.Previous()
	}
}

// AdvanceAfterEnd schedules the post-playback auto-advance. After the
// configured delay the feed moves to the next episode, or reports end of
// content when the active slide is already the last one.
func (c *Coordinator) AdvanceAfterEnd() {
	c.mu.Lock()
	if len(c.episodes) == 0 {
		c.mu.Unlock()
		return
	}
	if c.cancelAdvance != nil {
		c.cancelAdvance()
	}
	c.cancelAdvance = c.timer(c.advanceDelay, c.advance)
	c.mu.Unlock()
}

func (c *Coordinator) advance() {
	c.mu.Lock()
	c.cancelAdvance = nil
	atEnd := c.index >= len(c.episodes)-1
	endOfContent := c.callbacks.EndOfContent
	c.mu.Unlock()

	if atEnd {
		if endOfContent != nil {
			endOfContent()
		}
		return
	}
	c.Next()
}

// Stop cancels any pending settle or advance timers.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelSettle != nil {
		c.cancelSettle()
		c.cancelSettle = nil
	}
	if c.cancelAdvance != nil {
		c.cancelAdvance()
		c.cancelAdvance = nil
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
