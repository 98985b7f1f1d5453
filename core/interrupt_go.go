//go:build !tinygo

package core

import "sync"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// irqMask stands in for the global interrupt enable bit. Simulated
// handlers hold it while they run, so a masked region excludes them the
// same way it excludes real interrupts. It is not reentrant.
var irqMask sync.Mutex

// disableInterrupts masks simulated interrupts
func disableInterrupts() State {
	irqMask.Lock()
	return 0
}

// restoreInterrupts unmasks simulated interrupts
func restoreInterrupts(state State) {
	irqMask.Unlock()
}

// SimulateInterrupt runs handler the way the hardware would deliver an
// interrupt: never while the main loop has interrupts masked, and never
// nested with another handler.
func SimulateInterrupt(handler func()) {
	irqMask.Lock()
	defer irqMask.Unlock()
	handler()
}
