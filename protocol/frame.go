package protocol

import "errors"

var (
	ErrFrameTooLarge = errors.New("frame payload too large")
	ErrBadCRC        = errors.New("frame CRC mismatch")
)

// MaxPayload is the largest payload that fits in one frame
const MaxPayload = MessageMax - MessageLengthMin

// EncodeFrame writes one frame around the payload produced by body.
// The length byte is patched once the payload size is known.
func EncodeFrame(output OutputBuffer, seq uint8, body func(output OutputBuffer)) {
	cursor := output.CurPosition()

	output.Output([]byte{0, MessageDest | (seq & MessageSeqMask)})
	body(output)

	changed := len(output.DataSince(cursor))
	output.Update(cursor, uint8(changed+MessageTrailerSize))

	crc := CRC16(output.DataSince(cursor))
	output.Output([]byte{
		uint8((crc & 0xFF00) >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})
}

// Frame is a validated block taken off the wire
type Frame struct {
	Sequence uint8
	Payload  []byte
}

// FrameDecoder reassembles frames from a byte stream, resynchronizing on
// the sync byte after garbage or corruption
type FrameDecoder struct {
	input          *FifoBuffer
	isSynchronized bool

	// Dropped counts frames discarded for a bad length, CRC or trailer
	Dropped int
}

// NewFrameDecoder creates a decoder with room for a few frames
func NewFrameDecoder() *FrameDecoder {
	return &FrameDecoder{
		input:          NewFifoBuffer(4 * MessageMax),
		isSynchronized: true,
	}
}

// Feed appends received bytes and returns how many were accepted
func (d *FrameDecoder) Feed(data []byte) int {
	return d.input.Write(data)
}

// Next returns the next complete frame, or false when more bytes are needed
func (d *FrameDecoder) Next() (Frame, bool) {
	for {
		data := d.input.Data()
		if len(data) == 0 {
			return Frame{}, false
		}

		if !d.isSynchronized {
			// Skip up to and including the next sync byte
			syncPos := -1
			for i, b := range data {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}
			if syncPos < 0 {
				d.input.Pop(len(data))
				return Frame{}, false
			}
			d.input.Pop(syncPos + 1)
			d.isSynchronized = true
			continue
		}

		// Skip leading sync bytes
		if data[0] == MessageValueSync {
			d.input.Pop(1)
			continue
		}

		if len(data) < MessageLengthMin {
			return Frame{}, false
		}

		msgLen := int(data[MessagePositionLen])
		seq := data[MessagePositionSeq]
		if msgLen < MessageLengthMin || msgLen > MessageMax || seq&^MessageSeqMask != MessageDest {
			d.desync()
			continue
		}

		// Wait for full message
		if len(data) < msgLen {
			return Frame{}, false
		}

		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			d.desync()
			continue
		}

		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			d.desync()
			continue
		}

		payload := make([]byte, msgLen-MessageLengthMin)
		copy(payload, data[MessageHeaderSize:msgLen-MessageTrailerSize])
		d.input.Pop(msgLen)
		return Frame{Sequence: seq & MessageSeqMask, Payload: payload}, true
	}
}

func (d *FrameDecoder) desync() {
	d.Dropped++
	d.isSynchronized = false
	// Drop the byte that started the bad frame so the search moves on
	d.input.Pop(1)
}

// Reset drops buffered bytes
func (d *FrameDecoder) Reset() {
	d.input.Reset()
	d.isSynchronized = true
}
