// Package monitor decodes rover telemetry on the host and sends state
// commands back over the same link
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	movingaverage "github.com/RobinUS2/golang-moving-average"
	log "github.com/sirupsen/logrus"

	"rover/core"
	"rover/protocol"
)

var ErrUnknownState = errors.New("no command byte for state")

// Stats summarizes the telemetry seen so far
type Stats struct {
	Frames    int
	Dropped   int
	Unknown   int
	Boots     int
	Samples   int
	Overrides int

	Cause    core.ResetCause
	State    core.StateID
	Velocity float32 // Newest sample
	Smoothed float64 // Moving average over the window
}

// Monitor reads frames from a rover link
type Monitor struct {
	link    io.ReadWriter
	decoder *protocol.FrameDecoder
	avg     *movingaverage.MovingAverage
	log     *log.Entry

	mu      sync.Mutex
	stats   Stats
	handler func(protocol.Message)
}

// New creates a monitor averaging velocity over window samples
func New(link io.ReadWriter, window int, logger *log.Logger) *Monitor {
	if window < 1 {
		window = 1
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Monitor{
		link:    link,
		decoder: protocol.NewFrameDecoder(),
		avg:     movingaverage.New(window),
		log:     logger.WithField("component", "monitor"),
	}
}

// OnMessage sets a callback run for every decoded message. It runs with
// the monitor locked and must not call back into it.
func (m *Monitor) OnMessage(fn func(protocol.Message)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = fn
}

// Feed decodes received bytes and returns the complete messages
func (m *Monitor) Feed(data []byte) []protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	var msgs []protocol.Message
	for len(data) > 0 {
		n := m.decoder.Feed(data)
		data = data[n:]
		for {
			f, ok := m.decoder.Next()
			if !ok {
				break
			}
			m.stats.Frames++
			msg, err := protocol.DecodeMessage(f)
			if err != nil {
				m.stats.Unknown++
				m.log.WithError(err).WithField("seq", f.Sequence).Warn("Undecodable telemetry frame")
				continue
			}
			m.handle(msg)
			msgs = append(msgs, msg)
		}
		if n == 0 && len(data) > 0 {
			// Decoder full of a frame it cannot finish
			m.decoder.Reset()
		}
	}
	m.stats.Dropped = m.decoder.Dropped
	return msgs
}

func (m *Monitor) handle(msg protocol.Message) {
	entry := m.log.WithField("seq", msg.Sequence)
	switch msg.ID {
	case protocol.MsgBoot:
		m.stats.Boots++
		m.stats.Cause = core.ResetCause(msg.Cause)
		entry.WithField("cause", m.stats.Cause.String()).Info("Rover booted")
		if m.stats.Cause == core.ResetWatchdog {
			entry.Warn("Previous run ended in a watchdog reset")
		}
	case protocol.MsgOdometry:
		m.stats.Samples++
		m.stats.State = core.StateID(msg.State)
		m.stats.Velocity = msg.Velocity
		m.avg.Add(float64(msg.Velocity))
		m.stats.Smoothed = m.avg.Avg()
		entry.WithFields(log.Fields{
			"sample":   msg.Sample,
			"state":    msg.State,
			"count1":   msg.Count1,
			"count2":   msg.Count2,
			"velocity": msg.Velocity,
			"smoothed": m.stats.Smoothed,
		}).Debug("Odometry sample")
	case protocol.MsgOverride:
		m.stats.Overrides++
		m.stats.State = core.StateID(msg.To)
		entry.WithFields(log.Fields{
			"from": msg.From,
			"to":   msg.To,
		}).Info("State override")
	}
	if m.handler != nil {
		m.handler(msg)
	}
}

// Run reads the link until ctx is done or the link fails. A read that
// returns io.EOF with no data is a serial read timeout and does not end the
// run; a closed link ends it without error.
func (m *Monitor) Run(ctx context.Context) error {
	buf := make([]byte, 4*protocol.MessageMax)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := m.link.Read(buf)
		if n > 0 {
			m.Feed(buf[:n])
		}
		switch {
		case err == nil, errors.Is(err, io.EOF):
			continue
		case errors.Is(err, io.ErrClosedPipe), errors.Is(err, os.ErrClosed):
			return nil
		default:
			return fmt.Errorf("telemetry read failed: %w", err)
		}
	}
}

// Command asks the rover for a state at its next tick
func (m *Monitor) Command(state core.StateID) error {
	var b byte
	switch state {
	case core.StateRun:
		b = 'r'
	case core.StateIdle:
		b = 'i'
	default:
		return fmt.Errorf("%w %d", ErrUnknownState, state)
	}
	if _, err := m.link.Write([]byte{b}); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}
	m.log.WithField("state", state).Info("Command sent")
	return nil
}

// Stats returns a snapshot of the counters
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}
