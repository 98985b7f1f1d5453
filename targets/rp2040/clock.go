//go:build rp2040

package main

import (
	"device/rp"
	"errors"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerALARM1   = timerBase + 0x14 // Alarm 1 target, low 32 bits
	timerTIMERAWL = timerBase + 0x28 // Raw timer low word
	timerINTR     = timerBase + 0x34 // Raw interrupts, write 1 to clear
	timerINTE     = timerBase + 0x38 // Interrupt enable

	alarm1 = 1 << 1
)

var (
	timerAlarm1 = (*volatile.Register32)(unsafe.Pointer(uintptr(timerALARM1)))
	timerRAWL   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
	timerIntr   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTR)))
	timerInte   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTE)))
)

var errTickPeriod = errors.New("tick period must be nonzero")

// GetHardwareTime reads the low 32 bits of the 1MHz microsecond counter
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}

// AlarmTicker raises the periodic tick from hardware alarm 1. Alarm 0
// belongs to the TinyGo runtime's sleep timer.
type AlarmTicker struct {
	periodUs uint32
	deadline uint32
	handler  func()

	// Checked on every tick for the early warning
	watchdog *RPWatchdog
}

var activeTicker *AlarmTicker

// NewAlarmTicker creates a ticker that also polls wd for its early warning
func NewAlarmTicker(wd *RPWatchdog) *AlarmTicker {
	return &AlarmTicker{watchdog: wd}
}

// Start arms alarm 1 and enables its interrupt
func (t *AlarmTicker) Start(periodMs uint32, handler func()) error {
	if periodMs == 0 {
		return errTickPeriod
	}
	t.periodUs = periodMs * 1000
	t.handler = handler
	activeTicker = t

	intr := interrupt.New(rp.IRQ_TIMER_IRQ_1, func(interrupt.Interrupt) {
		activeTicker.onAlarm()
	})
	timerInte.SetBits(alarm1)
	t.deadline = GetHardwareTime() + t.periodUs
	timerAlarm1.Set(t.deadline)
	intr.Enable()
	return nil
}

// onAlarm runs in interrupt context. The next deadline is computed from the
// previous one so the period does not drift with handler latency.
func (t *AlarmTicker) onAlarm() {
	timerIntr.Set(alarm1)
	t.deadline += t.periodUs
	timerAlarm1.Set(t.deadline)

	t.handler()
	if t.watchdog != nil {
		t.watchdog.check(GetHardwareTime())
	}
}
