// Package protocol implements the framed command link between the bench
// host and the PWM core: VLQ argument encoding, CRC16 checked frames and
// sequence tracking for both ends.
package protocol

// Version is the link protocol version reported by identify.
const Version = "c28pwm-1"

// Frame layout: len, seq, payload..., crc_hi, crc_lo, sync
const (
	FrameHeaderSize  = 2
	FrameTrailerSize = 3
	FrameMinLen      = FrameHeaderSize + FrameTrailerSize
	FrameMaxLen      = 64

	framePosLen  = 0
	framePosSeq  = 1
	frameOffCRC  = 3 // from the end
	frameOffSync = 1

	SyncByte = 0x7E
	SeqDest  = 0x10 // high nibble of every sequence byte
	SeqMask  = 0x0F

	// ScratchSize bounds one batch of encoded frames.
	ScratchSize = 512
)

// nextSeq advances a sequence byte, wrapping inside the low nibble.
func nextSeq(seq uint8) uint8 {
	return (seq+1)&SeqMask | SeqDest
}
