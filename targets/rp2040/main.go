//go:build rp2040

package main

import (
	"strconv"
	"time"

	"rover/core"
)

// ctrl is the hardware context shared with interrupt handlers
var ctrl *core.Controller

func main() {
	core.SetDebugWriter(debugWrite)
	core.SetDebugEnabled(true)

	status := NewStatusLED(statusPin)
	if err := initTelemetry(); err != nil {
		halt(status, "telemetry UART: "+err.Error())
	}

	saved, recovered := recoverScratch()

	wd := NewRPWatchdog()
	hw := core.Hardware{
		PWM:       NewRP2040PWMDriver(pwmPins),
		GPIO:      NewRPGPIODriver(),
		Watchdog:  wd,
		Ticker:    NewAlarmTicker(wd),
		Encoders:  NewRPEncoders(encoderPins),
		Reset:     &RPResetSource{},
		Telemetry: telemetryUART,
	}
	ctrl = core.NewController(boardConfig(), hw, saveToScratch)
	wd.OnWarning(ctrl.OnWatchdogTimeout)

	if err := ctrl.Initialize(); err != nil {
		halt(status, "init: "+err.Error())
	}
	status.Boot(ctrl.ResetCause())

	if recovered {
		core.DebugPrintln("[ROVER] watchdog save: ticks=" +
			strconv.FormatUint(uint64(saved.Ticks), 10) +
			" state=" + strconv.FormatUint(uint64(saved.State), 10) +
			" velocity=" + strconv.FormatFloat(float64(saved.Velocity), 'f', 4, 32))
	}

	go receiveLoop()

	// Main loop
	for {
		// A panic stands in for an unexpected interrupt: drop to the
		// breakdown state instead of resetting
		func() {
			defer func() {
				if r := recover(); r != nil {
					ctrl.OnUnhandledInterrupt()
				}
			}()

			ctrl.Tick()
			status.Show(ctrl.State())
		}()

		// Yield to other goroutines
		time.Sleep(10 * time.Microsecond)
	}
}

// halt stops with the fault color. The watchdog is not armed yet, so the
// board stays here until reset.
func halt(status *StatusLED, msg string) {
	core.DebugPrintln("[ROVER] fatal: " + msg)
	status.Fault()
	for {
		time.Sleep(time.Second)
	}
}
