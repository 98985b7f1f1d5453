// Motor driver
// Generates PWM duty, direction and brake signals for the two drive motors
package core

import "errors"

var ErrInvalidMotor = errors.New("invalid motor index")

// MotorChannelConfig is the static wiring of one motor
type MotorChannelConfig struct {
	PWM          PWMChannel `yaml:"pwm"`           // Compare channel driving the H-bridge enable
	HasDirection bool       `yaml:"has_direction"` // Direction output present
	DirectionPin GPIOPin    `yaml:"direction_pin"`
	HasBrake     bool       `yaml:"has_brake"` // Brake output present
	BrakePin     GPIOPin    `yaml:"brake_pin"`
	Inverted     bool       `yaml:"inverted"` // Motor mounted backwards
}

// MotorDriver owns the PWM timer and the per-motor auxiliary pins.
// It is not interrupt safe; call it from the main loop only.
type MotorDriver struct {
	pwm      PWMDriver
	gpio     GPIODriver
	channels [2]MotorChannelConfig
	speeds   [2]int
}

// NewMotorDriver creates a driver for two motors
func NewMotorDriver(pwm PWMDriver, gpio GPIODriver, m1, m2 MotorChannelConfig) *MotorDriver {
	return &MotorDriver{
		pwm:      pwm,
		gpio:     gpio,
		channels: [2]MotorChannelConfig{m1, m2},
	}
}

// Initialize configures the PWM timer and auxiliary pins.
// Both motors are commanded to zero before the timer starts so the outputs
// never carry a duty while direction and brake are undefined.
func (m *MotorDriver) Initialize(cfg PWMConfig) error {
	m.pwm.Disable()
	if err := m.pwm.Configure(cfg); err != nil {
		return err
	}

	for i := range m.channels {
		if err := m.initAuxPins(&m.channels[i]); err != nil {
			return err
		}
	}

	m.SetSpeed(0, 0)
	m.pwm.Enable()
	return nil
}

// initAuxPins configures the direction and brake outputs that are present
func (m *MotorDriver) initAuxPins(ch *MotorChannelConfig) error {
	if ch.HasDirection {
		if err := m.gpio.ConfigureOutput(ch.DirectionPin); err != nil {
			return err
		}
		if err := m.gpio.SetPin(ch.DirectionPin, false); err != nil {
			return err
		}
	}
	if ch.HasBrake {
		if err := m.gpio.ConfigureOutput(ch.BrakePin); err != nil {
			return err
		}
	}
	return nil
}

// SetSpeed commands both motors. Speeds are signed percentages; values
// beyond +/-100 are not clamped and wrap in the 8-bit compare register.
func (m *MotorDriver) SetSpeed(speed1, speed2 int) {
	m.setMotor(0, speed1)
	m.setMotor(1, speed2)
}

// SetMotor commands a single motor
func (m *MotorDriver) SetMotor(motor int, speed int) error {
	if motor < 0 || motor >= len(m.channels) {
		return ErrInvalidMotor
	}
	m.setMotor(motor, speed)
	return nil
}

func (m *MotorDriver) setMotor(motor int, speed int) {
	ch := &m.channels[motor]

	if ch.HasDirection {
		// Drop the drive while the H-bridge changes direction
		m.pwm.SetDuty(ch.PWM, 0)
		_ = m.gpio.SetPin(ch.DirectionPin, DirectionForSpeed(speed, ch.Inverted))
	}

	m.pwm.SetDuty(ch.PWM, DutyForSpeed(speed))

	if ch.HasBrake {
		_ = m.gpio.SetPin(ch.BrakePin, speed == 0)
	}

	m.speeds[motor] = speed
}

// Speeds returns the last commanded speed pair
func (m *MotorDriver) Speeds() (int, int) {
	return m.speeds[0], m.speeds[1]
}

// DutyForSpeed maps a signed percentage to a compare value:
// round(|speed| * 255 / 100), rounding halves up. 50% gives 128.
func DutyForSpeed(speed int) PWMValue {
	if speed < 0 {
		speed = -speed
	}
	duty := (uint32(speed)*PWMMax + 50) / 100
	return PWMValue(duty)
}

// DirectionForSpeed returns the direction output level.
// Forward drives the pin low unless the motor is inverted.
func DirectionForSpeed(speed int, inverted bool) bool {
	return (speed < 0) != inverted
}
