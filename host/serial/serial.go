// Package serial opens the rover's telemetry UART on the host
package serial

import (
	"io"
)

// Port is a telemetry link to the rover. The monitor only needs a byte
// stream, so tests and the simulator substitute pipes.
type Port interface {
	io.ReadWriteCloser

	// Flush discards bytes not yet read or written
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string `yaml:"device"`

	// Baud rate of the rover UART
	Baud int `yaml:"baud"`

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int `yaml:"read_timeout_ms"`
}

// DefaultBaud matches the firmware's telemetry UART
const DefaultBaud = 115200

// DefaultConfig returns the configuration for a rover on device
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100,
	}
}
