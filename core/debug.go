package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event captures a main-loop event for post-mortem analysis
type Event struct {
	Type   uint8  // Event type code
	Tick   uint32 // Main loop iteration
	Value1 uint32 // Context-dependent value
	Value2 uint32 // Context-dependent value
}

// Event type codes
const (
	EvtBoot     = 1 // Value1: reset cause
	EvtOverride = 2 // Value1: previous state, Value2: adopted state
	EvtFault    = 3 // Value1: unknown state id, Value2: breakdown state
	EvtSample   = 4 // Value1: count1+count2, Value2: sample number
	EvtCommand  = 5 // Value1: received byte, Value2: requested state
	EvtWatchdog = 6 // Watchdog interrupt fired
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// EventRing is a fixed-size ring of recent events. Not synchronized:
// writers outside interrupt context must mask interrupts.
type EventRing struct {
	events [EventRingSize]Event
	head   uint8 // Next write position
}

// Record captures an event, overwriting the oldest
func (r *EventRing) Record(eventType uint8, tick, value1, value2 uint32) {
	idx := r.head
	r.events[idx] = Event{
		Type:   eventType,
		Tick:   tick,
		Value1: value1,
		Value2: value2,
	}
	r.head = (idx + 1) % EventRingSize
}

// Events returns the recorded events, oldest first
func (r *EventRing) Events() []Event {
	out := make([]Event, 0, EventRingSize)
	for i := uint8(0); i < EventRingSize; i++ {
		evt := r.events[(r.head+i)%EventRingSize]
		if evt.Type == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// Clear empties the ring
func (r *EventRing) Clear() {
	for i := range r.events {
		r.events[i] = Event{}
	}
	r.head = 0
}

// Dump writes the ring through the debug writer, oldest first.
// Runs from the watchdog interrupt, so it avoids fmt and allocation-heavy
// formatting.
func (r *EventRing) Dump() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[EVENTS] === Event Ring Dump ===")
	start := r.head
	for i := uint8(0); i < EventRingSize; i++ {
		evt := &r.events[(start+i)%EventRingSize]
		if evt.Type == 0 {
			continue
		}
		debugPrintln("[EVENTS] " + eventName(evt.Type) +
			" tick=" + utoa(evt.Tick) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[EVENTS] === End Dump ===")
}

func eventName(t uint8) string {
	switch t {
	case EvtBoot:
		return "BOOT"
	case EvtOverride:
		return "OVERRIDE"
	case EvtFault:
		return "FAULT"
	case EvtSample:
		return "SAMPLE"
	case EvtCommand:
		return "COMMAND"
	case EvtWatchdog:
		return "WATCHDOG!"
	default:
		return "UNKNOWN"
	}
}
