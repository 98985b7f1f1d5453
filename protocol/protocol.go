// Package protocol implements the rover telemetry link: framed blocks
// carrying VLQ-encoded messages
package protocol

// Version represents the telemetry format version
const Version = "1"

// Frame layout: len seq payload... crc_hi crc_lo sync
const (
	MessageMax         = 64 // Largest frame
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10

	// Message sequence masks
	MessageSeqMask = 0x0F
)
