// Watchdog supervision
package core

import "sync/atomic"

// Supervisor arms the watchdog, pets it from the main loop and runs the
// emergency-save hook when it is about to reset the chip
type Supervisor struct {
	wd        WatchdogDriver
	timeoutMs uint32
	save      func()
	cause     ResetCause
	fired     atomic.Bool
}

// NewSupervisor creates a supervisor. save may be nil.
func NewSupervisor(wd WatchdogDriver, timeoutMs uint32, save func()) *Supervisor {
	if save == nil {
		save = func() {}
	}
	return &Supervisor{wd: wd, timeoutMs: timeoutMs, save: save}
}

// Boot reads and clears the reset flags, then disarms a watchdog left
// running by the previous boot. The flags go first: a set watchdog reset
// flag keeps some parts from disabling the watchdog. A brown-out gets an
// emergency save attempt. Call with interrupts masked.
func (s *Supervisor) Boot(rs ResetSource) ResetCause {
	s.cause = rs.ResetCause()
	rs.ClearResetCause()

	s.wd.Pet()
	s.wd.Disarm()
	s.fired.Store(false)

	if s.cause == ResetBrownOut {
		s.save()
	}
	return s.cause
}

// Arm starts the watchdog in interrupt-then-reset mode
func (s *Supervisor) Arm() error {
	s.wd.Pet()
	return s.wd.Arm(s.timeoutMs, WatchdogInterruptReset)
}

// Pet restarts the timeout
func (s *Supervisor) Pet() {
	s.wd.Pet()
}

// OnTimeout is the watchdog interrupt. The hardware resets the chip after
// it, so the save hook runs at most once per boot.
func (s *Supervisor) OnTimeout() {
	if s.fired.CompareAndSwap(false, true) {
		s.save()
	}
}

// Fired reports whether the watchdog interrupt has run since Boot
func (s *Supervisor) Fired() bool {
	return s.fired.Load()
}

// Cause returns the reset cause read at Boot
func (s *Supervisor) Cause() ResetCause {
	return s.cause
}
