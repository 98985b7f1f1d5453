// State coordination between interrupt handlers and the main loop
package core

import "sync/atomic"

// StateID identifies a state machine state
type StateID uint8

const (
	StateRun  StateID = 0 // Both motors at the run speed
	StateIdle StateID = 1 // No motor command
)

// Mailbox is a single-slot channel from interrupt context to the main loop.
// The producer stores the value before raising pending; the consumer copies
// the value before clearing pending, with interrupts masked so a second post
// cannot slip in between.
type Mailbox struct {
	value   atomic.Uint32
	pending atomic.Bool
}

// Post leaves a value for the main loop. Safe from any interrupt handler.
// A later post before the main loop takes the first replaces it.
func (m *Mailbox) Post(v uint32) {
	m.value.Store(v)
	m.pending.Store(true)
}

// Take consumes the posted value, if any. Main loop only.
func (m *Mailbox) Take() (uint32, bool) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if !m.pending.Load() {
		return 0, false
	}
	v := m.value.Load()
	m.pending.Store(false)
	return v, true
}

// clear drops any posted value. The caller must already have interrupts
// masked.
func (m *Mailbox) clear() {
	m.pending.Store(false)
	m.value.Store(0)
}

// Pending reports whether a value is waiting
func (m *Mailbox) Pending() bool {
	return m.pending.Load()
}

// Coordinator holds the current and next state plus the override mailbox.
// The main loop owns current and next; interrupt handlers may read them.
type Coordinator struct {
	current   atomic.Uint32
	next      atomic.Uint32
	breakdown StateID
	override  Mailbox
}

// NewCoordinator creates a coordinator starting in initial
func NewCoordinator(initial, breakdown StateID) *Coordinator {
	c := &Coordinator{breakdown: breakdown}
	c.current.Store(uint32(initial))
	c.next.Store(uint32(initial))
	return c
}

// Reset puts the machine back into state s with no pending override.
// Call with interrupts masked.
func (c *Coordinator) Reset(s StateID) {
	c.override.clear()
	c.current.Store(uint32(s))
	c.next.Store(uint32(s))
}

// RequestState asks for an immediate transition at the next tick boundary.
// Safe from any interrupt handler.
func (c *Coordinator) RequestState(id StateID) {
	c.override.Post(uint32(id))
}

// RequestBreakdown asks for the fault state
func (c *Coordinator) RequestBreakdown() {
	c.RequestState(c.breakdown)
}

// Take consumes a pending override without adopting it
func (c *Coordinator) Take() (StateID, bool) {
	v, ok := c.override.Take()
	return StateID(v), ok
}

// Begin starts a tick. A pending override wins over the previous tick's
// next state. Returns the state for this tick and whether it came from an
// override.
func (c *Coordinator) Begin() (StateID, bool) {
	if id, ok := c.Take(); ok {
		c.current.Store(uint32(id))
		return id, true
	}
	next := c.next.Load()
	c.current.Store(next)
	return StateID(next), false
}

// Commit records the next state computed by this tick
func (c *Coordinator) Commit(next StateID) {
	c.next.Store(uint32(next))
}

// Current returns the state driving this tick
func (c *Coordinator) Current() StateID {
	return StateID(c.current.Load())
}

// Next returns the state committed for the following tick
func (c *Coordinator) Next() StateID {
	return StateID(c.next.Load())
}

// Breakdown returns the fault state id
func (c *Coordinator) Breakdown() StateID {
	return c.breakdown
}

// OverridePending reports whether an interrupt has requested a state
func (c *Coordinator) OverridePending() bool {
	return c.override.Pending()
}
