//go:build rp2040

package main

import (
	"image/color"
	"machine"

	"tinygo.org/x/drivers/ws2812"

	"rover/core"
)

var (
	colorRun   = color.RGBA{G: 0x20}
	colorIdle  = color.RGBA{B: 0x20}
	colorFault = color.RGBA{R: 0x40}
	colorBoot  = color.RGBA{R: 0x20, G: 0x10} // Amber after a watchdog reset
)

// StatusLED shows the controller state on a single WS2812
type StatusLED struct {
	dev   ws2812.Device
	buf   [1]color.RGBA
	last  core.StateID
	shown bool
}

// NewStatusLED creates the LED driver on pin
func NewStatusLED(pin machine.Pin) *StatusLED {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &StatusLED{dev: ws2812.New(pin)}
}

// Show updates the LED when the state changes. Writing the strip masks
// interrupts for tens of microseconds, so repeats are skipped.
func (s *StatusLED) Show(state core.StateID) {
	if s.shown && state == s.last {
		return
	}
	s.last = state
	s.shown = true
	s.write(stateColor(state))
}

// Boot marks a watchdog reset until the first state is shown
func (s *StatusLED) Boot(cause core.ResetCause) {
	if cause == core.ResetWatchdog {
		s.write(colorBoot)
	}
}

// Fault shows an unrecoverable error
func (s *StatusLED) Fault() {
	s.shown = false
	s.write(colorFault)
}

func (s *StatusLED) write(c color.RGBA) {
	s.buf[0] = c
	s.dev.WriteColors(s.buf[:])
}

func stateColor(state core.StateID) color.RGBA {
	switch state {
	case core.StateRun:
		return colorRun
	case core.StateIdle:
		return colorIdle
	default:
		return colorFault
	}
}
