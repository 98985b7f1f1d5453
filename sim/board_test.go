//go:build !tinygo

package sim

import (
	"sync"
	"testing"

	"rover/core"
)

func newTestBoard(pps uint32) (*Board, core.Config) {
	cfg := core.DefaultConfig()
	board := NewBoard(BoardConfig{
		Motor1PWM:       cfg.Motor1.PWM,
		Motor2PWM:       cfg.Motor2.PWM,
		PulsesPerSecond: pps,
	})
	return board, cfg
}

// run advances one tick period and runs one main-loop iteration, n times
func run(board *Board, ctrl *core.Controller, cfg core.Config, n int) {
	for i := 0; i < n; i++ {
		board.Advance(cfg.TickPeriodMs)
		ctrl.Tick()
	}
}

func TestBoardTicksAtPeriod(t *testing.T) {
	board, _ := newTestBoard(0)
	ticks := 0
	if err := board.Start(10, func() { ticks++ }); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	board.Advance(95)
	if ticks != 9 {
		t.Errorf("Expected 9 ticks in 95ms, got %d", ticks)
	}
	board.Advance(5)
	if ticks != 10 {
		t.Errorf("Expected 10 ticks in 100ms, got %d", ticks)
	}
	if board.Now() != 100 {
		t.Errorf("Expected clock 100, got %d", board.Now())
	}

	if err := board.Start(0, func() {}); err != ErrInvalidTimer {
		t.Errorf("Expected ErrInvalidTimer, got %v", err)
	}
}

func TestBoardSetPinRequiresOutput(t *testing.T) {
	board, _ := newTestBoard(0)
	if err := board.SetPin(3, true); err != ErrNotOutput {
		t.Errorf("Expected ErrNotOutput, got %v", err)
	}
	board.ConfigureOutput(3)
	if err := board.SetPin(3, true); err != nil {
		t.Errorf("SetPin failed: %v", err)
	}
	if v, _ := board.GetPin(3); !v {
		t.Error("Pin level not stored")
	}
}

func TestControllerOnBoard(t *testing.T) {
	board, cfg := newTestBoard(0)
	ctrl := core.NewController(cfg, board.Hardware(), nil)
	if err := ctrl.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if ctrl.ResetCause() != core.ResetPowerOn {
		t.Errorf("Expected power-on reset, got %s", ctrl.ResetCause())
	}
	if !board.WatchdogArmed() || !board.PWMEnabled() {
		t.Fatal("Watchdog or PWM not running after init")
	}

	run(board, ctrl, cfg, 5)
	if board.Duty(cfg.Motor1.PWM) != 255 || board.Duty(cfg.Motor2.PWM) != 255 {
		t.Errorf("Expected full duty, got %d/%d", board.Duty(cfg.Motor1.PWM), board.Duty(cfg.Motor2.PWM))
	}
	if brake, _ := board.GetPin(cfg.Motor1.BrakePin); brake {
		t.Error("Brake engaged while running")
	}
}

func TestWheelModelFeedsOdometry(t *testing.T) {
	board, cfg := newTestBoard(1000)
	ctrl := core.NewController(cfg, board.Hardware(), nil)
	if err := ctrl.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	// One full odometry period at full duty
	run(board, ctrl, cfg, int(cfg.OdometryResolutionMs/cfg.TickPeriodMs)+1)

	if ctrl.Odometry().Samples() != 1 {
		t.Fatalf("Expected one sample, got %d", ctrl.Odometry().Samples())
	}
	c1, c2 := ctrl.Odometry().LastCounts()
	// The first tick runs before the motors are commanded, so a little
	// less than a full second of pulses is counted
	if c1 < 980 || c1 > 1000 || c1 != c2 {
		t.Errorf("Unexpected counts %d/%d", c1, c2)
	}
	if ctrl.Odometry().Velocity() <= 0 {
		t.Errorf("Expected positive velocity, got %v", ctrl.Odometry().Velocity())
	}
}

func TestWatchdogHookFiresOnceBeforeReset(t *testing.T) {
	board, cfg := newTestBoard(0)

	saves := 0
	var savedBeforeReset int
	ctrl := core.NewController(cfg, board.Hardware(), func() { saves++ })
	board.OnWatchdog(ctrl.OnWatchdogTimeout)
	board.OnReset(func() { savedBeforeReset = saves })

	if err := ctrl.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	// A healthy loop keeps the watchdog quiet
	run(board, ctrl, cfg, 200)
	if saves != 0 || board.Resets() != 0 {
		t.Fatalf("Watchdog fired while the loop was running: saves=%d resets=%d", saves, board.Resets())
	}

	// The main loop hangs
	board.Advance(cfg.WatchdogTimeoutMs)
	if saves != 1 || !ctrl.WatchdogFired() {
		t.Fatalf("Expected the save hook after one timeout, got %d", saves)
	}
	if board.Resets() != 0 {
		t.Fatal("Board reset before the second timeout")
	}

	board.Advance(cfg.WatchdogTimeoutMs)
	if board.Resets() != 1 {
		t.Fatalf("Expected a reset after the second timeout, got %d", board.Resets())
	}
	if savedBeforeReset != 1 || saves != 1 {
		t.Errorf("Save hook ran %d times before reset, %d total", savedBeforeReset, saves)
	}

	// The next boot sees the watchdog cause and gets a fresh hook
	if err := ctrl.Initialize(); err != nil {
		t.Fatalf("Re-initialize failed: %v", err)
	}
	if ctrl.ResetCause() != core.ResetWatchdog {
		t.Errorf("Expected watchdog reset cause, got %s", ctrl.ResetCause())
	}
	if ctrl.WatchdogFired() {
		t.Error("Watchdog flag survived the reboot")
	}
}

func TestWatchdogResetReleasesPins(t *testing.T) {
	board, cfg := newTestBoard(0)
	ctrl := core.NewController(cfg, board.Hardware(), func() {})
	if err := ctrl.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	run(board, ctrl, cfg, 1)

	// Motor 2 is inverted, so forward drives its direction pin high
	if level, _ := board.GetPin(cfg.Motor2.DirectionPin); !level {
		t.Fatal("Motor 2 direction pin should be high while running")
	}

	board.Advance(2 * cfg.WatchdogTimeoutMs)
	if board.Resets() != 1 {
		t.Fatalf("Expected one reset, got %d", board.Resets())
	}
	if level, _ := board.GetPin(cfg.Motor2.DirectionPin); level {
		t.Error("Direction pin kept its level across the reset")
	}
	if err := board.SetPin(cfg.Motor1.BrakePin, true); err != ErrNotOutput {
		t.Errorf("Expected ErrNotOutput after reset, got %v", err)
	}

	if err := ctrl.Initialize(); err != nil {
		t.Fatalf("Re-initialize failed: %v", err)
	}
	if err := board.SetPin(cfg.Motor1.BrakePin, true); err != nil {
		t.Errorf("Brake pin not configured after reboot: %v", err)
	}
}

func TestConcurrentPulsesCounted(t *testing.T) {
	board, cfg := newTestBoard(0)
	cfg.InitialState = core.StateIdle
	ctrl := core.NewController(cfg, board.Hardware(), nil)
	if err := ctrl.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	const pulses = 5000
	var wg sync.WaitGroup
	for m := 0; m < 2; m++ {
		wg.Add(1)
		go func(m int) {
			defer wg.Done()
			for i := 0; i < pulses; i++ {
				if err := board.Pulse(m); err != nil {
					t.Errorf("Pulse failed: %v", err)
					return
				}
			}
		}(m)
	}

	// Keep the main loop and timer running while pulses arrive
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	var total1, total2 uint32
	collect := func() {
		if ctrl.Odometry().Samples() > 0 {
			c1, c2 := ctrl.Odometry().LastCounts()
			total1 += c1
			total2 += c2
		}
	}
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
			before := ctrl.Odometry().Samples()
			run(board, ctrl, cfg, 1)
			if ctrl.Odometry().Samples() != before {
				collect()
			}
		}
	}

	// Flush the remaining pulses into one more sample
	run(board, ctrl, cfg, int(cfg.OdometryResolutionMs/cfg.TickPeriodMs))
	if ctrl.Odometry().Samples() == 0 {
		t.Fatal("No sample taken")
	}
	collect()

	if total1 != pulses || total2 != pulses {
		t.Errorf("Expected %d pulses per motor, counted %d/%d", pulses, total1, total2)
	}
}

func TestPulseWithoutHandler(t *testing.T) {
	board, _ := newTestBoard(0)
	if err := board.Pulse(0); err != ErrNotAttached {
		t.Errorf("Expected ErrNotAttached, got %v", err)
	}
	if err := board.Pulse(2); err != core.ErrInvalidMotor {
		t.Errorf("Expected ErrInvalidMotor, got %v", err)
	}
}
