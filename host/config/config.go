// Package config loads rover settings for the host tools from YAML
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"rover/core"
	"rover/host/serial"
)

var (
	ErrTickPeriod     = errors.New("tick period must be nonzero")
	ErrResolution     = errors.New("odometry resolution must be at least one tick period")
	ErrWatchdog       = errors.New("watchdog timeout must exceed the tick period")
	ErrRunSpeed       = errors.New("run speed must be within -100..100")
	ErrDistance       = errors.New("distance per count must be positive")
	ErrPinConflict    = errors.New("motor pins overlap")
	ErrChannelOverlap = errors.New("motors share a PWM channel")
)

// File is the on-disk configuration of the simulator and monitor
type File struct {
	Rover  core.Config   `yaml:"rover"`
	Board  Board         `yaml:"board"`
	Serial serial.Config `yaml:"serial"`
}

// Board describes the simulated chassis
type Board struct {
	// Encoder pulses per second at full duty
	PulsesPerSecond uint32 `yaml:"pulses_per_second"`
}

// Default returns the configuration used when no file is given
func Default() File {
	return File{
		Rover:  core.DefaultConfig(),
		Board:  Board{PulsesPerSecond: 1000},
		Serial: *serial.DefaultConfig(""),
	}
}

// Parse decodes YAML on top of the defaults, so a file only needs the
// settings it changes
func Parse(data []byte) (File, error) {
	f := Default()
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("unable to unmarshal yaml: %w", err)
	}
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// Load reads and parses a YAML file
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("unable to read yaml file: %w", err)
	}
	return Parse(data)
}

// Validate checks the settings the firmware cannot recover from
func (f File) Validate() error {
	r := f.Rover
	if r.TickPeriodMs == 0 {
		return ErrTickPeriod
	}
	if r.OdometryResolutionMs < r.TickPeriodMs {
		return ErrResolution
	}
	if r.WatchdogTimeoutMs <= r.TickPeriodMs {
		return ErrWatchdog
	}
	if r.RunSpeed < -100 || r.RunSpeed > 100 {
		return fmt.Errorf("%w: %d", ErrRunSpeed, r.RunSpeed)
	}
	if r.DistancePerCount <= 0 {
		return ErrDistance
	}
	if r.Motor1.PWM == r.Motor2.PWM {
		return ErrChannelOverlap
	}

	used := make(map[core.GPIOPin]string)
	claim := func(name string, pin core.GPIOPin, enabled bool) error {
		if !enabled {
			return nil
		}
		if other, ok := used[pin]; ok {
			return fmt.Errorf("%w: %s and %s both use pin %d", ErrPinConflict, other, name, pin)
		}
		used[pin] = name
		return nil
	}
	for _, p := range []struct {
		name    string
		pin     core.GPIOPin
		enabled bool
	}{
		{"motor1 direction", r.Motor1.DirectionPin, r.Motor1.HasDirection},
		{"motor1 brake", r.Motor1.BrakePin, r.Motor1.HasBrake},
		{"motor2 direction", r.Motor2.DirectionPin, r.Motor2.HasDirection},
		{"motor2 brake", r.Motor2.BrakePin, r.Motor2.HasBrake},
	} {
		if err := claim(p.name, p.pin, p.enabled); err != nil {
			return err
		}
	}
	return nil
}
