//go:build !tinygo

// Package sim provides a virtual rover board for running the controller on
// a host. Time only moves when Advance is called, so runs are reproducible.
package sim

import (
	"errors"
	"sync"

	"rover/core"
)

var (
	ErrNotOutput    = errors.New("pin not configured as output")
	ErrNotAttached  = errors.New("no handler attached")
	ErrInvalidTimer = errors.New("tick period must be nonzero")
)

// BoardConfig describes the virtual hardware
type BoardConfig struct {
	Motor1PWM core.PWMChannel
	Motor2PWM core.PWMChannel

	// Encoder pulses per second per motor at full duty. Zero disables the
	// wheel model; pulses then only come from Pulse.
	PulsesPerSecond uint32
}

// Board implements every capability interface of the controller
type Board struct {
	mu  sync.Mutex
	cfg BoardConfig

	clockMs uint64

	pwmCfg     core.PWMConfig
	pwmEnabled bool
	duty       map[core.PWMChannel]core.PWMValue

	outputs map[core.GPIOPin]bool
	pins    map[core.GPIOPin]bool

	wdArmed   bool
	wdMode    core.WatchdogMode
	wdTimeout uint32
	wdPetAt   uint64
	wdWarned  bool
	pets      uint64

	cause   core.ResetCause
	cleared bool
	resets  int

	tickPeriod  uint32
	tickHandler func()
	nextTick    uint64

	encoders [2]func()
	wheel    [2]uint32 // Pulse accumulators in thousandths

	onWatchdog func()
	onReset    func()
}

// NewBoard creates a board that reports a power-on reset at first boot
func NewBoard(cfg BoardConfig) *Board {
	return &Board{
		cfg:     cfg,
		duty:    make(map[core.PWMChannel]core.PWMValue),
		outputs: make(map[core.GPIOPin]bool),
		pins:    make(map[core.GPIOPin]bool),
		cause:   core.ResetPowerOn,
	}
}

// Hardware returns the capability bundle for core.NewController
func (b *Board) Hardware() core.Hardware {
	return core.Hardware{
		PWM:      b,
		GPIO:     b,
		Watchdog: b,
		Ticker:   b,
		Encoders: b,
		Reset:    b,
	}
}

// OnWatchdog sets the handler for the watchdog interrupt
func (b *Board) OnWatchdog(handler func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onWatchdog = handler
}

// OnReset sets the callback run when the watchdog resets the board
func (b *Board) OnReset(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onReset = fn
}

// SetResetCause sets the cause reported at the next boot
func (b *Board) SetResetCause(cause core.ResetCause) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cause = cause
}

// PWM

func (b *Board) Configure(cfg core.PWMConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pwmCfg = cfg
	return nil
}

func (b *Board) Enable() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pwmEnabled = true
}

func (b *Board) Disable() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pwmEnabled = false
}

func (b *Board) SetDuty(ch core.PWMChannel, value core.PWMValue) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.duty[ch] = value
}

// Duty returns the compare value of a channel
func (b *Board) Duty(ch core.PWMChannel) core.PWMValue {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.duty[ch]
}

// PWMEnabled reports whether the PWM timer is running
func (b *Board) PWMEnabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pwmEnabled
}

// GPIO

func (b *Board) ConfigureOutput(pin core.GPIOPin) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outputs[pin] = true
	return nil
}

func (b *Board) SetPin(pin core.GPIOPin, value bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.outputs[pin] {
		return ErrNotOutput
	}
	b.pins[pin] = value
	return nil
}

func (b *Board) GetPin(pin core.GPIOPin) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pins[pin], nil
}

// Watchdog

func (b *Board) Arm(timeoutMs uint32, mode core.WatchdogMode) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wdArmed = true
	b.wdMode = mode
	b.wdTimeout = timeoutMs
	b.wdPetAt = b.clockMs
	b.wdWarned = false
	return nil
}

func (b *Board) Disarm() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wdArmed = false
	b.wdWarned = false
}

func (b *Board) Pet() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wdPetAt = b.clockMs
	b.wdWarned = false
	b.pets++
}

// Pets returns how many times the watchdog was restarted
func (b *Board) Pets() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pets
}

// WatchdogArmed reports whether the watchdog is running
func (b *Board) WatchdogArmed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.wdArmed
}

// Resets returns how many watchdog resets have happened
func (b *Board) Resets() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.resets
}

// Reset flags

func (b *Board) ResetCause() core.ResetCause {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cleared {
		return core.ResetUnknown
	}
	return b.cause
}

func (b *Board) ClearResetCause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cleared = true
}

// Timer and encoders

func (b *Board) Start(periodMs uint32, handler func()) error {
	if periodMs == 0 {
		return ErrInvalidTimer
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tickPeriod = periodMs
	b.tickHandler = handler
	b.nextTick = b.clockMs + uint64(periodMs)
	return nil
}

func (b *Board) AttachEncoder(motor int, handler func()) error {
	if motor < 0 || motor > 1 {
		return core.ErrInvalidMotor
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.encoders[motor] = handler
	return nil
}

// Pulse delivers one encoder edge for a motor from interrupt context
func (b *Board) Pulse(motor int) error {
	if motor < 0 || motor > 1 {
		return core.ErrInvalidMotor
	}
	b.mu.Lock()
	handler := b.encoders[motor]
	b.mu.Unlock()
	if handler == nil {
		return ErrNotAttached
	}
	core.SimulateInterrupt(handler)
	return nil
}

// Now returns the virtual time in milliseconds
func (b *Board) Now() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clockMs
}

// pending holds what one millisecond of virtual time produced. Handlers run
// after the board lock is released since they may call back into the board.
type pending struct {
	tick     func()
	pulses   [2]uint32
	encoders [2]func()
	watchdog func()
	reset    func()
}

// Advance moves virtual time forward, delivering timer, encoder and
// watchdog events in order
func (b *Board) Advance(ms uint32) {
	for i := uint32(0); i < ms; i++ {
		p := b.step()
		if p.tick != nil {
			core.SimulateInterrupt(p.tick)
		}
		for m := 0; m < 2; m++ {
			for n := uint32(0); n < p.pulses[m] && p.encoders[m] != nil; n++ {
				core.SimulateInterrupt(p.encoders[m])
			}
		}
		if p.watchdog != nil {
			core.SimulateInterrupt(p.watchdog)
		}
		if p.reset != nil {
			p.reset()
		}
	}
}

func (b *Board) step() pending {
	b.mu.Lock()
	defer b.mu.Unlock()

	var p pending
	b.clockMs++

	if b.tickHandler != nil && b.clockMs >= b.nextTick {
		p.tick = b.tickHandler
		b.nextTick += uint64(b.tickPeriod)
	}

	b.spinWheels(&p)

	if b.wdArmed && b.clockMs-b.wdPetAt >= uint64(b.wdTimeout) {
		b.expireWatchdog(&p)
	}
	return p
}

// spinWheels turns the duty of each motor into encoder pulses
func (b *Board) spinWheels(p *pending) {
	if b.cfg.PulsesPerSecond == 0 || !b.pwmEnabled {
		return
	}
	channels := [2]core.PWMChannel{b.cfg.Motor1PWM, b.cfg.Motor2PWM}
	for m, ch := range channels {
		b.wheel[m] += uint32(b.duty[ch]) * b.cfg.PulsesPerSecond / core.PWMMax
		p.pulses[m] = b.wheel[m] / 1000
		b.wheel[m] %= 1000
		p.encoders[m] = b.encoders[m]
	}
}

// expireWatchdog handles a timeout. In interrupt-then-reset mode the first
// timeout raises the interrupt and restarts the count; the next one resets.
func (b *Board) expireWatchdog(p *pending) {
	switch {
	case b.wdMode == core.WatchdogInterrupt:
		p.watchdog = b.onWatchdog
		b.wdPetAt = b.clockMs
	case b.wdMode == core.WatchdogInterruptReset && !b.wdWarned:
		p.watchdog = b.onWatchdog
		b.wdWarned = true
		b.wdPetAt = b.clockMs
	default:
		b.powerCycle(core.ResetWatchdog)
		p.reset = b.onReset
	}
}

// powerCycle puts the board back into its reset state
func (b *Board) powerCycle(cause core.ResetCause) {
	b.resets++
	b.cause = cause
	b.cleared = false
	b.wdArmed = false
	b.wdWarned = false
	b.pwmEnabled = false
	b.tickHandler = nil
	b.encoders = [2]func(){}
	b.wheel = [2]uint32{}
	for ch := range b.duty {
		b.duty[ch] = 0
	}
	// GPIO comes back as floating inputs
	clear(b.outputs)
	clear(b.pins)
}
