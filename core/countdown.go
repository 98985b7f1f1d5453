// Periodic timer service
// A software countdown paced by the hardware tick
package core

import "sync/atomic"

// Countdown paces one recurring action off the periodic tick
type Countdown struct {
	remaining  atomic.Uint32 // Milliseconds left
	periodMs   uint32        // Tick period
	resolution uint32        // Reload value
}

// NewCountdown creates a countdown decremented by periodMs on every tick
// and reloaded to resolutionMs
func NewCountdown(periodMs, resolutionMs uint32) *Countdown {
	return &Countdown{periodMs: periodMs, resolution: resolutionMs}
}

// OnTick advances the countdown by one tick period. Runs in interrupt
// context; it is the only writer while the main loop is running.
// The countdown stops at zero instead of wrapping.
func (c *Countdown) OnTick() {
	r := c.remaining.Load()
	if r == 0 {
		return
	}
	if r <= c.periodMs {
		r = 0
	} else {
		r -= c.periodMs
	}
	c.remaining.Store(r)
}

// Due reports whether the countdown has run out
func (c *Countdown) Due() bool {
	return c.remaining.Load() == 0
}

// Reload restarts the countdown from the resolution
func (c *Countdown) Reload() {
	c.remaining.Store(c.resolution)
}

// Remaining returns the milliseconds left
func (c *Countdown) Remaining() uint32 {
	return c.remaining.Load()
}

// Resolution returns the reload value, which is also the elapsed time of
// one period
func (c *Countdown) Resolution() uint32 {
	return c.resolution
}
