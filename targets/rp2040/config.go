//go:build rp2040

package main

import (
	"machine"

	"rover/core"
)

// Board wiring of the rover carrier for a Raspberry Pi Pico
var (
	// Pins behind the two PWM compare channels. Both sit on slice 3 so one
	// Configure call sets the period for both motors.
	pwmPins = [2]machine.Pin{machine.GP6, machine.GP7}

	// Encoder inputs, one per wheel
	encoderPins = [2]machine.Pin{machine.GP2, machine.GP3}

	// Telemetry UART
	telemetryUART = machine.UART0
	telemetryTX   = machine.GP0
	telemetryRX   = machine.GP1

	// Single WS2812 status LED
	statusPin = machine.GP16
)

const telemetryBaud = 115200

// boardConfig returns the controller settings for this board
func boardConfig() core.Config {
	cfg := core.DefaultConfig()
	cfg.Motor1.DirectionPin = 8
	cfg.Motor1.BrakePin = 9
	cfg.Motor2.DirectionPin = 12
	cfg.Motor2.BrakePin = 13
	return cfg
}
