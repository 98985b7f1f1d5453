package core

import "errors"

// opLog records hardware calls across mock drivers in order
type opLog struct {
	ops []string
}

func (l *opLog) add(op string) {
	l.ops = append(l.ops, op)
}

func (l *opLog) index(op string) int {
	for i, o := range l.ops {
		if o == op {
			return i
		}
	}
	return -1
}

// MockPWMDriver is a test implementation of PWMDriver
type MockPWMDriver struct {
	log        *opLog
	cfg        PWMConfig
	enabled    bool
	duty       map[PWMChannel]PWMValue
	writes     int
	failConfig bool
}

func NewMockPWMDriver(log *opLog) *MockPWMDriver {
	return &MockPWMDriver{log: log, duty: make(map[PWMChannel]PWMValue)}
}

func (m *MockPWMDriver) Configure(cfg PWMConfig) error {
	if m.failConfig {
		return errors.New("simulated configure failure")
	}
	m.cfg = cfg
	m.log.add("pwm.configure")
	return nil
}

func (m *MockPWMDriver) Enable() {
	m.enabled = true
	m.log.add("pwm.enable")
}

func (m *MockPWMDriver) Disable() {
	m.enabled = false
	m.log.add("pwm.disable")
}

func (m *MockPWMDriver) SetDuty(ch PWMChannel, value PWMValue) {
	m.duty[ch] = value
	m.writes++
	m.log.add("pwm.duty" + utoa(uint32(ch)) + "=" + utoa(uint32(value)))
}

// MockGPIODriver is a test implementation of GPIODriver
type MockGPIODriver struct {
	log     *opLog
	outputs map[GPIOPin]bool
	pins    map[GPIOPin]bool
}

func NewMockGPIODriver(log *opLog) *MockGPIODriver {
	return &MockGPIODriver{
		log:     log,
		outputs: make(map[GPIOPin]bool),
		pins:    make(map[GPIOPin]bool),
	}
}

func (m *MockGPIODriver) ConfigureOutput(pin GPIOPin) error {
	m.outputs[pin] = true
	m.log.add("gpio.output" + utoa(uint32(pin)))
	return nil
}

func (m *MockGPIODriver) SetPin(pin GPIOPin, value bool) error {
	if !m.outputs[pin] {
		return errors.New("pin not configured as output")
	}
	m.pins[pin] = value
	level := "0"
	if value {
		level = "1"
	}
	m.log.add("gpio.set" + utoa(uint32(pin)) + "=" + level)
	return nil
}

func (m *MockGPIODriver) GetPin(pin GPIOPin) (bool, error) {
	return m.pins[pin], nil
}

// MockWatchdog is a test implementation of WatchdogDriver
type MockWatchdog struct {
	log       *opLog
	armed     bool
	mode      WatchdogMode
	timeoutMs uint32
	pets      int
}

func (m *MockWatchdog) Arm(timeoutMs uint32, mode WatchdogMode) error {
	m.armed = true
	m.timeoutMs = timeoutMs
	m.mode = mode
	m.log.add("wd.arm")
	return nil
}

func (m *MockWatchdog) Disarm() {
	m.armed = false
	m.log.add("wd.disarm")
}

func (m *MockWatchdog) Pet() {
	m.pets++
}

// MockResetSource is a test implementation of ResetSource
type MockResetSource struct {
	log     *opLog
	cause   ResetCause
	cleared bool
}

func (m *MockResetSource) ResetCause() ResetCause {
	m.log.add("reset.read")
	return m.cause
}

func (m *MockResetSource) ClearResetCause() {
	m.cleared = true
	m.log.add("reset.clear")
}

// MockTicker is a test implementation of TickSource
type MockTicker struct {
	periodMs uint32
	handler  func()
}

func (m *MockTicker) Start(periodMs uint32, handler func()) error {
	m.periodMs = periodMs
	m.handler = handler
	return nil
}

// MockEncoders is a test implementation of EncoderSource
type MockEncoders struct {
	handlers [2]func()
}

func (m *MockEncoders) AttachEncoder(motor int, handler func()) error {
	if motor < 0 || motor > 1 {
		return ErrInvalidMotor
	}
	m.handlers[motor] = handler
	return nil
}

// testRig bundles a controller with its mocks
type testRig struct {
	log      *opLog
	pwm      *MockPWMDriver
	gpio     *MockGPIODriver
	wd       *MockWatchdog
	reset    *MockResetSource
	ticker   *MockTicker
	encoders *MockEncoders
}

func newTestRig(cause ResetCause) *testRig {
	log := &opLog{}
	return &testRig{
		log:      log,
		pwm:      NewMockPWMDriver(log),
		gpio:     NewMockGPIODriver(log),
		wd:       &MockWatchdog{log: log},
		reset:    &MockResetSource{log: log, cause: cause},
		ticker:   &MockTicker{},
		encoders: &MockEncoders{},
	}
}

func (r *testRig) hardware() Hardware {
	return Hardware{
		PWM:      r.pwm,
		GPIO:     r.gpio,
		Watchdog: r.wd,
		Ticker:   r.ticker,
		Encoders: r.encoders,
		Reset:    r.reset,
	}
}
