package match

import (
	"sync"
	"time"

	"github.com/hailam/chesscore/internal/board"
)

// A running side plus frozen is that side's clock paused. stopped means no
// game is on the clock.
const (
	frozen  = 2
	stopped = -1
)

// Clock is a pair of chess clocks with a Fischer increment.
type Clock struct {
	mu        sync.Mutex
	initial   time.Duration
	increment time.Duration
	remaining [2]time.Duration
	ticking   int
}

// NewClock returns a stopped clock with both sides on initial.
func NewClock(initial, increment time.Duration) *Clock {
	return &Clock{
		initial:   initial,
		increment: increment,
		remaining: [2]time.Duration{initial, initial},
		ticking:   stopped,
	}
}

// Start resets both sides and runs side's clock.
func (c *Clock) Start(side board.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remaining = [2]time.Duration{c.initial, c.initial}
	c.ticking = int(side)
}

// Reset restores both sides to the initial time and stops the clock.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remaining = [2]time.Duration{c.initial, c.initial}
	c.ticking = stopped
}

// Tick charges dt to the running side. A frozen or stopped clock ignores it.
func (c *Clock) Tick(dt time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ticking >= 0 && c.ticking < frozen {
		c.remaining[c.ticking] -= dt
	}
}

// SwitchPlayer credits the increment to the side that just moved and hands
// the clock to its opponent.
func (c *Clock) SwitchPlayer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ticking == stopped {
		return
	}
	if c.ticking < frozen {
		c.remaining[c.ticking] += c.increment
	}
	c.ticking ^= 1
}

// Freeze stops the running side until Unfreeze.
func (c *Clock) Freeze() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ticking >= 0 && c.ticking < frozen {
		c.ticking += frozen
	}
}

func (c *Clock) Unfreeze() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ticking >= frozen {
		c.ticking -= frozen
	}
}

// Running reports whether some side's time is currently being charged.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticking >= 0 && c.ticking < frozen
}

// Remaining returns side's time left. It goes negative once the flag falls.
func (c *Clock) Remaining(side board.Color) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining[side]
}

func (c *Clock) Increment() time.Duration { return c.increment }
func (c *Clock) Initial() time.Duration   { return c.initial }
