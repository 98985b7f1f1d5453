// Rover controller
// Owns every component and runs one main-loop iteration per Tick
package core

import (
	"io"
	"sync/atomic"

	"rover/protocol"
)

// Hardware bundles the capabilities a target provides
type Hardware struct {
	PWM      PWMDriver
	GPIO     GPIODriver
	Watchdog WatchdogDriver
	Ticker   TickSource
	Encoders EncoderSource
	Reset    ResetSource

	// Telemetry receives framed telemetry; nil disables it
	Telemetry io.Writer
}

// Controller is the hardware context of the rover. Interrupt handlers get
// a pointer to it and call only the On* entry points.
type Controller struct {
	cfg Config
	hw  Hardware

	motors     *MotorDriver
	odometry   *Odometry
	countdown  *Countdown
	supervisor *Supervisor
	states     *Coordinator

	// Last byte from the serial receive callback
	rx Mailbox

	telemetry protocol.TelemetryEncoder
	events    EventRing
	ticks     atomic.Uint32
}

// NewController wires the components. save is the emergency-save hook run
// on brown-out boots and from the watchdog interrupt; nil dumps the event
// ring through the debug writer.
func NewController(cfg Config, hw Hardware, save func()) *Controller {
	c := &Controller{
		cfg:       cfg,
		hw:        hw,
		motors:    NewMotorDriver(hw.PWM, hw.GPIO, cfg.Motor1, cfg.Motor2),
		odometry:  NewOdometry(cfg.DistancePerCount),
		countdown: NewCountdown(cfg.TickPeriodMs, cfg.OdometryResolutionMs),
		states:    NewCoordinator(cfg.InitialState, cfg.BreakdownState),
	}
	if save == nil {
		save = c.events.Dump
	}
	c.supervisor = NewSupervisor(hw.Watchdog, cfg.WatchdogTimeoutMs, save)
	return c
}

// Initialize performs all hardware setup with interrupts masked. The
// countdown is loaded last so the first odometry sample covers a full
// period.
func (c *Controller) Initialize() error {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	cause := c.supervisor.Boot(c.hw.Reset)
	initial := c.cfg.InitialState
	if cause == ResetUnknown {
		initial = c.cfg.BreakdownState
	}
	c.states.Reset(initial)
	c.rx.clear()

	c.odometry.Reset()
	err := c.motors.Initialize(PWMConfig{
		Prescaler: c.cfg.PWMPrescaler,
		Mode:      PWMPhaseCorrect,
	})
	if err != nil {
		return err
	}

	if err := c.hw.Encoders.AttachEncoder(0, c.OnEncoder1); err != nil {
		return err
	}
	if err := c.hw.Encoders.AttachEncoder(1, c.OnEncoder2); err != nil {
		return err
	}
	if err := c.hw.Ticker.Start(c.cfg.TickPeriodMs, c.OnTick); err != nil {
		return err
	}
	if err := c.supervisor.Arm(); err != nil {
		return err
	}

	c.countdown.Reload()
	c.ticks.Store(0)
	c.events.Record(EvtBoot, 0, uint32(cause), uint32(initial))
	c.send(c.telemetry.Boot(uint8(cause)))
	DebugPrintln("[ROVER] boot cause=" + cause.String() + " state=" + utoa(uint32(initial)) + " run=" + itoa(c.cfg.RunSpeed))
	return nil
}

// Tick runs one main-loop iteration
func (c *Controller) Tick() {
	c.supervisor.Pet()
	c.ticks.Add(1)

	prev := c.states.Current()
	current, overridden := c.states.Begin()
	if overridden {
		c.record(EvtOverride, uint32(prev), uint32(current))
		c.send(c.telemetry.Override(uint8(prev), uint8(current)))
	}

	if c.countdown.Due() {
		c.sampleOdometry(current)
		c.countdown.Reload()
	}

	next := c.step(current)
	next = c.applyCommand(next)
	c.states.Commit(next)
}

// step runs the policy of the current state and returns the next state
func (c *Controller) step(current StateID) StateID {
	switch current {
	case StateRun:
		c.motors.SetSpeed(c.cfg.RunSpeed, c.cfg.RunSpeed)
		return StateRun
	case StateIdle:
		return StateIdle
	default:
		c.record(EvtFault, uint32(current), uint32(c.states.Breakdown()))
		return c.states.Breakdown()
	}
}

// applyCommand maps a byte received since the last tick to a state request
func (c *Controller) applyCommand(next StateID) StateID {
	v, ok := c.rx.Take()
	if !ok {
		return next
	}
	requested := next
	switch byte(v) {
	case 'r', 'R':
		requested = StateRun
	case 'i', 'I':
		requested = StateIdle
	}
	c.record(EvtCommand, v, uint32(requested))
	return requested
}

func (c *Controller) sampleOdometry(current StateID) {
	elapsed := c.countdown.Resolution()
	v := c.odometry.Update(elapsed)
	c1, c2 := c.odometry.LastCounts()
	n := c.odometry.Samples()
	c.record(EvtSample, c1+c2, n)
	c.send(c.telemetry.Odometry(n, uint8(current), c1, c2, v))
}

// record adds a main-loop event to the ring with interrupts masked, since
// the watchdog interrupt writes to the same ring
func (c *Controller) record(eventType uint8, value1, value2 uint32) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	c.events.Record(eventType, c.ticks.Load(), value1, value2)
}

func (c *Controller) send(frame []byte) {
	if c.hw.Telemetry == nil {
		return
	}
	if _, err := c.hw.Telemetry.Write(frame); err != nil {
		DebugPrintln("[ROVER] telemetry write failed: " + err.Error())
	}
}

// OnEncoder1 is the motor 1 encoder edge interrupt
func (c *Controller) OnEncoder1() {
	c.odometry.OnEdge(0)
}

// OnEncoder2 is the motor 2 encoder edge interrupt
func (c *Controller) OnEncoder2() {
	c.odometry.OnEdge(1)
}

// OnTick is the periodic timer interrupt
func (c *Controller) OnTick() {
	c.countdown.OnTick()
}

// OnWatchdogTimeout is the watchdog interrupt, taken before the hardware
// reset. The main loop may still be running; its ring writes are masked,
// so this one cannot interleave with them.
func (c *Controller) OnWatchdogTimeout() {
	if !c.supervisor.Fired() {
		c.events.Record(EvtWatchdog, c.ticks.Load(), uint32(c.states.Current()), 0)
	}
	c.supervisor.OnTimeout()
}

// OnUnhandledInterrupt is the catch-all for unexpected interrupts. The
// rover keeps running in the breakdown state instead of resetting.
func (c *Controller) OnUnhandledInterrupt() {
	c.states.RequestBreakdown()
}

// OnReceive is the serial receive callback
func (c *Controller) OnReceive(b byte) {
	c.rx.Post(uint32(b))
}

// RequestState asks for a state at the next tick boundary. Interrupt safe.
func (c *Controller) RequestState(id StateID) {
	c.states.RequestState(id)
}

// State returns the state that drove the last tick
func (c *Controller) State() StateID {
	return c.states.Current()
}

// Next returns the state committed for the next tick
func (c *Controller) Next() StateID {
	return c.states.Next()
}

// Ticks returns the number of main-loop iterations since Initialize
func (c *Controller) Ticks() uint32 {
	return c.ticks.Load()
}

// ResetCause returns the cause read at boot
func (c *Controller) ResetCause() ResetCause {
	return c.supervisor.Cause()
}

// WatchdogFired reports whether the watchdog interrupt ran this boot
func (c *Controller) WatchdogFired() bool {
	return c.supervisor.Fired()
}

// Motors returns the motor driver
func (c *Controller) Motors() *MotorDriver {
	return c.motors
}

// Odometry returns the odometry component
func (c *Controller) Odometry() *Odometry {
	return c.odometry
}

// Countdown returns the odometry countdown
func (c *Controller) Countdown() *Countdown {
	return c.countdown
}

// Events returns the recorded events, oldest first
func (c *Controller) Events() []Event {
	return c.events.Events()
}
