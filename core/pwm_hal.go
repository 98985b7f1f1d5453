package core

// PWMChannel identifies one compare output of the motor PWM timer
type PWMChannel uint8

// PWMValue is the 8-bit compare value written to a channel (0 to PWMMax)
type PWMValue uint8

// PWMMax is the compare value for a fully-on output
const PWMMax = 255

// PWMMode selects the timer waveform
type PWMMode uint8

const (
	PWMFast         PWMMode = iota // Single-slope counting
	PWMPhaseCorrect                // Dual-slope (symmetric) counting
)

// PWMConfig describes the motor PWM timer
type PWMConfig struct {
	Prescaler uint16  // Timer clock divider
	Mode      PWMMode // Waveform mode
}

// PWMDriver is the abstract PWM interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type PWMDriver interface {
	// Configure sets up the timer. The timer stays stopped until Enable.
	Configure(cfg PWMConfig) error

	// Enable starts the timer so the compare values reach the pins
	Enable()

	// Disable stops the timer
	Disable()

	// SetDuty writes a compare value for a channel
	// value: 0 (fully off) to PWMMax (fully on)
	SetDuty(ch PWMChannel, value PWMValue)
}
