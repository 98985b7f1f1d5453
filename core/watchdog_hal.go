package core

// WatchdogMode selects what the watchdog does on timeout
type WatchdogMode uint8

const (
	WatchdogReset          WatchdogMode = iota // Reset only
	WatchdogInterrupt                          // Interrupt only
	WatchdogInterruptReset                     // Interrupt first, reset on the following timeout
)

// WatchdogDriver is the deadman timer capability
type WatchdogDriver interface {
	// Arm starts the watchdog with the given timeout
	Arm(timeoutMs uint32, mode WatchdogMode) error

	// Disarm stops the watchdog, including one left running by a previous boot
	Disarm()

	// Pet restarts the timeout period
	Pet()
}

// ResetSource exposes the hardware reset-flag register
type ResetSource interface {
	// ResetCause classifies why the chip last rebooted
	ResetCause() ResetCause

	// ClearResetCause clears the reset flags
	ClearResetCause()
}

// TickSource is a fixed-rate hardware timer interrupt
type TickSource interface {
	// Start fires handler every periodMs milliseconds in interrupt context
	Start(periodMs uint32, handler func()) error
}
