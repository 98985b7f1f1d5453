//go:build rp2040

package main

import (
	"machine"
	"math"
	"runtime/volatile"
	"sync/atomic"
	"unsafe"

	"rover/core"
)

// The RP2040 watchdog has no pre-reset interrupt. RPWatchdog runs the
// hardware counter for the reset and raises a software warning from the
// tick interrupt once most of the timeout has passed without a pet.
type RPWatchdog struct {
	armed     atomic.Bool
	warned    atomic.Bool
	mode      core.WatchdogMode
	timeoutUs uint32
	lastPet   atomic.Uint32
	onWarning func()
}

// NewRPWatchdog creates the watchdog driver
func NewRPWatchdog() *RPWatchdog {
	return &RPWatchdog{}
}

// OnWarning sets the handler run shortly before the hardware reset
func (w *RPWatchdog) OnWarning(handler func()) {
	w.onWarning = handler
}

// Arm starts the watchdog. Interrupt-only mode never starts the hardware
// counter since it cannot be stopped from resetting.
func (w *RPWatchdog) Arm(timeoutMs uint32, mode core.WatchdogMode) error {
	w.mode = mode
	w.timeoutUs = timeoutMs * 1000
	w.lastPet.Store(GetHardwareTime())
	w.warned.Store(false)

	if mode != core.WatchdogInterrupt {
		err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: timeoutMs})
		if err != nil {
			return err
		}
		if err := machine.Watchdog.Start(); err != nil {
			return err
		}
	}
	w.armed.Store(true)
	return nil
}

// Disarm stops the hardware counter
func (w *RPWatchdog) Disarm() {
	w.armed.Store(false)
	// Reconfiguring leaves the watchdog stopped until the next Start
	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
}

// Pet reloads the hardware counter and the warning deadline
func (w *RPWatchdog) Pet() {
	machine.Watchdog.Update()
	w.lastPet.Store(GetHardwareTime())
	w.warned.Store(false)
}

// check runs from the tick interrupt
func (w *RPWatchdog) check(now uint32) {
	if !w.armed.Load() || w.mode == core.WatchdogReset || w.warned.Load() {
		return
	}
	// Warn with a fifth of the timeout left
	if now-w.lastPet.Load() < w.timeoutUs/5*4 {
		return
	}
	if w.mode == core.WatchdogInterruptReset {
		w.warned.Store(true)
	} else {
		w.lastPet.Store(now)
	}
	if w.onWarning != nil {
		w.onWarning()
	}
}

// Reset cause registers
const (
	chipResetAddr      = 0x40064008 // VREG_AND_CHIP_RESET CHIP_RESET
	watchdogReasonAddr = 0x40058008 // WATCHDOG REASON
	watchdogScratch0   = 0x4005800C // WATCHDOG SCRATCH0, kept across watchdog resets

	chipHadPOR        = 1 << 8
	chipHadRun        = 1 << 16
	chipHadPSMRestart = 1 << 20

	reasonTimer = 1 << 0
	reasonForce = 1 << 1
)

var (
	chipReset      = (*volatile.Register32)(unsafe.Pointer(uintptr(chipResetAddr)))
	watchdogReason = (*volatile.Register32)(unsafe.Pointer(uintptr(watchdogReasonAddr)))
)

// RPResetSource reports why the chip last reset. The RP2040 flags are
// read-only and clear on the next chip-level reset, so clearing is tracked
// in software. Brown-out detection goes through the power-on reset block
// and reads as power-on.
type RPResetSource struct {
	cleared bool
}

// ResetCause decodes the reset flags. The watchdog reason is checked first
// because a watchdog reset leaves the chip-level flags untouched.
func (r *RPResetSource) ResetCause() core.ResetCause {
	if r.cleared {
		return core.ResetUnknown
	}
	if watchdogReason.Get()&(reasonTimer|reasonForce) != 0 {
		return core.ResetWatchdog
	}
	chip := chipReset.Get()
	switch {
	case chip&chipHadRun != 0, chip&chipHadPSMRestart != 0:
		return core.ResetExternal
	case chip&chipHadPOR != 0:
		return core.ResetPowerOn
	}
	return core.ResetUnknown
}

// ClearResetCause marks the flags consumed
func (r *RPResetSource) ClearResetCause() {
	r.cleared = true
}

// Emergency save area in the watchdog scratch registers. SCRATCH4-7 are
// used by the boot ROM, so only 0-3 are touched.
const scratchMagic = 0x524F5652 // "ROVR"

func scratch(i int) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(uintptr(watchdogScratch0 + 4*i)))
}

// savedState is what survives a watchdog reset
type savedState struct {
	Ticks    uint32
	State    core.StateID
	Velocity float32
}

// saveToScratch records the controller's last moments. Runs from the
// watchdog warning in interrupt context.
func saveToScratch() {
	if ctrl == nil {
		return
	}
	scratch(1).Set(ctrl.Ticks())
	scratch(2).Set(uint32(ctrl.State()))
	scratch(3).Set(math.Float32bits(ctrl.Odometry().Velocity()))
	scratch(0).Set(scratchMagic)
}

// recoverScratch returns the state saved before the last watchdog reset
// and clears it
func recoverScratch() (savedState, bool) {
	if scratch(0).Get() != scratchMagic {
		return savedState{}, false
	}
	s := savedState{
		Ticks:    scratch(1).Get(),
		State:    core.StateID(scratch(2).Get()),
		Velocity: math.Float32frombits(scratch(3).Get()),
	}
	scratch(0).Set(0)
	return s, true
}
