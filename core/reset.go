package core

// ResetCause classifies why the system last rebooted
type ResetCause uint8

const (
	ResetUnknown ResetCause = iota
	ResetPowerOn
	ResetExternal
	ResetBrownOut
	ResetWatchdog
)

func (c ResetCause) String() string {
	switch c {
	case ResetPowerOn:
		return "power-on"
	case ResetExternal:
		return "external"
	case ResetBrownOut:
		return "brown-out"
	case ResetWatchdog:
		return "watchdog"
	default:
		return "unknown"
	}
}
