package core

import "errors"

var ErrInvalidPin = errors.New("invalid or unconfigured pin")

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	// Returns error if pin is invalid or already in use
	ConfigureOutput(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// GetPin reads the current pin state
	GetPin(pin GPIOPin) (bool, error)
}

// EncoderSource delivers wheel encoder edges to a handler in interrupt context
type EncoderSource interface {
	// AttachEncoder enables the edge interrupt for a motor (0 or 1)
	AttachEncoder(motor int, handler func()) error
}
