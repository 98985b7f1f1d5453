//go:build rp2040

package main

import (
	"machine"

	"rover/core"
)

// RPGPIODriver implements the GPIODriver interface for RP2040
type RPGPIODriver struct {
	// Pins configured as outputs
	outputs map[core.GPIOPin]machine.Pin
}

// NewRPGPIODriver creates a new RP2040 GPIO driver
func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{
		outputs: make(map[core.GPIOPin]machine.Pin),
	}
}

// ConfigureOutput configures a pin as a digital output
func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	if pin > 29 {
		return core.ErrInvalidPin
	}
	machinePin := machine.Pin(pin)
	machinePin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.outputs[pin] = machinePin
	return nil
}

// SetPin drives an output pin
func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	machinePin, ok := d.outputs[pin]
	if !ok {
		return core.ErrInvalidPin
	}
	machinePin.Set(value)
	return nil
}

// GetPin reads a pin level
func (d *RPGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	if pin > 29 {
		return false, core.ErrInvalidPin
	}
	return machine.Pin(pin).Get(), nil
}

// RPEncoders delivers encoder edges from GPIO interrupts
type RPEncoders struct {
	pins [2]machine.Pin
}

// NewRPEncoders creates an encoder source for the given input pins
func NewRPEncoders(pins [2]machine.Pin) *RPEncoders {
	return &RPEncoders{pins: pins}
}

// AttachEncoder counts rising edges on a motor's encoder pin
func (e *RPEncoders) AttachEncoder(motor int, handler func()) error {
	if motor < 0 || motor > 1 {
		return core.ErrInvalidMotor
	}
	pin := e.pins[motor]
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return pin.SetInterrupt(machine.PinRising, func(machine.Pin) {
		handler()
	})
}
