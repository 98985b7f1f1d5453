package core

// Config holds the build-time settings of the rover.
// Boards start from DefaultConfig and override what differs.
type Config struct {
	Motor1 MotorChannelConfig `yaml:"motor1"`
	Motor2 MotorChannelConfig `yaml:"motor2"`

	PWMPrescaler uint16 `yaml:"pwm_prescaler"`

	WatchdogTimeoutMs    uint32  `yaml:"watchdog_timeout_ms"`
	TickPeriodMs         uint32  `yaml:"tick_period_ms"`
	OdometryResolutionMs uint32  `yaml:"odometry_resolution_ms"`
	DistancePerCount     float32 `yaml:"distance_per_count"` // mm per encoder pulse

	RunSpeed       int     `yaml:"run_speed"` // percent, both motors
	InitialState   StateID `yaml:"initial_state"`
	BreakdownState StateID `yaml:"breakdown_state"`
}

// DefaultConfig returns the settings of the reference two-wheel chassis:
// 65mm wheels with 20-slot encoder discs, so velocity comes out in m/s.
func DefaultConfig() Config {
	return Config{
		Motor1: MotorChannelConfig{
			PWM:          0,
			HasDirection: true,
			DirectionPin: 7,
			HasBrake:     true,
			BrakePin:     8,
		},
		Motor2: MotorChannelConfig{
			PWM:          1,
			HasDirection: true,
			DirectionPin: 12,
			HasBrake:     true,
			BrakePin:     13,
			Inverted:     true, // Mirrored on the chassis
		},
		PWMPrescaler:         1024,
		WatchdogTimeoutMs:    500,
		TickPeriodMs:         10,
		OdometryResolutionMs: 1000,
		DistancePerCount:     10.21,
		RunSpeed:             100,
		InitialState:         StateRun,
		BreakdownState:       StateRun,
	}
}
