//go:build rp2040

package main

import (
	"machine"

	"rover/core"
)

// Reference clock the prescaler is expressed against, so a prescaler gives
// the same motor PWM frequency as on an 8-bit timer part
const pwmReferenceHz = 16000000

// pwmPeripheral is an interface for PWM hardware peripherals
// This abstracts over TinyGo's unexported *pwmGroup type
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// RP2040PWMDriver drives the two motor channels from hardware PWM slices.
// The slices free-run once configured, so Enable and Disable gate the
// outputs in software.
type RP2040PWMDriver struct {
	pins        [2]machine.Pin
	peripherals [2]pwmPeripheral
	channels    [2]uint8
	duty        [2]core.PWMValue
	enabled     bool
}

// NewRP2040PWMDriver creates a driver for the given channel pins
func NewRP2040PWMDriver(pins [2]machine.Pin) *RP2040PWMDriver {
	return &RP2040PWMDriver{pins: pins}
}

// PeriodFor returns the PWM period matching prescaler and mode. A
// phase-correct cycle counts up and down, so it takes 510 steps instead
// of 256.
func PeriodFor(cfg core.PWMConfig) uint64 {
	steps := uint64(256)
	if cfg.Mode == core.PWMPhaseCorrect {
		steps = 510
	}
	prescaler := uint64(cfg.Prescaler)
	if prescaler == 0 {
		prescaler = 1
	}
	return prescaler * steps * 1000000000 / pwmReferenceHz
}

// Configure sets up both slices and leaves the outputs low
func (d *RP2040PWMDriver) Configure(cfg core.PWMConfig) error {
	period := PeriodFor(cfg)
	for i, pin := range d.pins {
		// RP2040: GPIO pin N maps to slice (N >> 1) & 0x7
		pwm := getPWMPeripheral(uint8((uint32(pin) >> 1) & 0x7))
		if err := pwm.Configure(machine.PWMConfig{Period: period}); err != nil {
			return err
		}
		channel, err := pwm.Channel(pin)
		if err != nil {
			return err
		}
		d.peripherals[i] = pwm
		d.channels[i] = channel
		pwm.Set(channel, 0)
	}
	return nil
}

// Enable applies the stored duty values
func (d *RP2040PWMDriver) Enable() {
	d.enabled = true
	for i := range d.pins {
		d.apply(i)
	}
}

// Disable drives both outputs low, keeping the duty values
func (d *RP2040PWMDriver) Disable() {
	d.enabled = false
	for i := range d.pins {
		d.apply(i)
	}
}

// SetDuty sets a channel's compare value, 0 (off) to 255 (fully on)
func (d *RP2040PWMDriver) SetDuty(ch core.PWMChannel, value core.PWMValue) {
	if int(ch) >= len(d.pins) {
		return
	}
	d.duty[ch] = value
	d.apply(int(ch))
}

func (d *RP2040PWMDriver) apply(i int) {
	pwm := d.peripherals[i]
	if pwm == nil {
		return
	}
	value := uint32(0)
	if d.enabled {
		// Scale 0-255 onto the slice's counter range
		value = uint32(d.duty[i]) * pwm.Top() / core.PWMMax
	}
	pwm.Set(d.channels[i], value)
}

// getPWMPeripheral returns the PWM peripheral for a given slice number
// RP2040 has 8 PWM slices: PWM0-PWM7
func getPWMPeripheral(sliceNum uint8) pwmPeripheral {
	switch sliceNum {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}
