package protocol

import (
	"errors"
	"math"
)

var ErrUnknownMessage = errors.New("unknown telemetry message")

// Message ids
const (
	MsgBoot     = 1 // cause
	MsgOdometry = 2 // sample state count1 count2 velocity
	MsgOverride = 3 // from to
)

// Message is one decoded telemetry message. Only the fields of its ID are
// meaningful.
type Message struct {
	ID       uint8
	Sequence uint8

	Cause uint8 // MsgBoot

	Sample   uint32 // MsgOdometry
	State    uint8
	Count1   uint32
	Count2   uint32
	Velocity float32

	From uint8 // MsgOverride
	To   uint8
}

// TelemetryEncoder builds framed telemetry messages into a reusable
// scratch buffer. The returned slices are valid until the next call.
type TelemetryEncoder struct {
	out ScratchOutput
	seq uint8
}

// Boot encodes the reset cause read at startup
func (e *TelemetryEncoder) Boot(cause uint8) []byte {
	return e.frame(func(output OutputBuffer) {
		EncodeVLQUint(output, MsgBoot)
		EncodeVLQUint(output, uint32(cause))
	})
}

// Odometry encodes one velocity sample
func (e *TelemetryEncoder) Odometry(sample uint32, state uint8, count1, count2 uint32, velocity float32) []byte {
	return e.frame(func(output OutputBuffer) {
		EncodeVLQUint(output, MsgOdometry)
		EncodeVLQUint(output, sample)
		EncodeVLQUint(output, uint32(state))
		EncodeVLQUint(output, count1)
		EncodeVLQUint(output, count2)
		EncodeVLQUint(output, math.Float32bits(velocity))
	})
}

// Override encodes a state override adopted by the main loop
func (e *TelemetryEncoder) Override(from, to uint8) []byte {
	return e.frame(func(output OutputBuffer) {
		EncodeVLQUint(output, MsgOverride)
		EncodeVLQUint(output, uint32(from))
		EncodeVLQUint(output, uint32(to))
	})
}

func (e *TelemetryEncoder) frame(body func(output OutputBuffer)) []byte {
	e.out.Reset()
	EncodeFrame(&e.out, e.seq, body)
	e.seq = (e.seq + 1) & MessageSeqMask
	return e.out.Result()
}

// DecodeMessage parses the payload of a telemetry frame
func DecodeMessage(f Frame) (Message, error) {
	data := f.Payload
	id, err := DecodeVLQUint(&data)
	if err != nil {
		return Message{}, err
	}

	msg := Message{ID: uint8(id), Sequence: f.Sequence}
	var fields [5]uint32
	var n int
	switch id {
	case MsgBoot:
		n = 1
	case MsgOdometry:
		n = 5
	case MsgOverride:
		n = 2
	default:
		return msg, ErrUnknownMessage
	}
	for i := 0; i < n; i++ {
		if fields[i], err = DecodeVLQUint(&data); err != nil {
			return msg, err
		}
	}

	switch id {
	case MsgBoot:
		msg.Cause = uint8(fields[0])
	case MsgOdometry:
		msg.Sample = fields[0]
		msg.State = uint8(fields[1])
		msg.Count1 = fields[2]
		msg.Count2 = fields[3]
		msg.Velocity = math.Float32frombits(fields[4])
	case MsgOverride:
		msg.From = uint8(fields[0])
		msg.To = uint8(fields[1])
	}
	return msg, nil
}
