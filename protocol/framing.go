package protocol

import (
	"bytes"
	"errors"
)

// ErrFrameTooLong is returned when a command does not fit one frame.
var ErrFrameTooLong = errors.New("frame exceeds maximum length")

type scanResult uint8

const (
	scanNeedMore scanResult = iota
	scanOK
	scanBad
)

// scan checks for one complete frame at the start of data.
func scan(data []byte) (int, scanResult) {
	if len(data) < FrameMinLen {
		return 0, scanNeedMore
	}
	n := int(data[framePosLen])
	if n < FrameMinLen || n > FrameMaxLen {
		return 0, scanBad
	}
	if data[framePosSeq]&^SeqMask != SeqDest {
		return 0, scanBad
	}
	if len(data) < n {
		return 0, scanNeedMore
	}
	if data[n-frameOffSync] != SyncByte {
		return 0, scanBad
	}
	crc := uint16(data[n-frameOffCRC])<<8 | uint16(data[n-frameOffCRC+1])
	if crc != CRC16(data[:n-FrameTrailerSize]) {
		return 0, scanBad
	}
	return n, scanOK
}

// framer splits a byte stream into checked frames. After any framing
// error it drops bytes up to and including the next sync byte.
type framer struct {
	lost     bool
	onResync func()
}

// feed emits every complete frame in data and returns the number of
// bytes consumed. A trailing partial frame is left for the next call.
func (f *framer) feed(data []byte, emit func(seq uint8, payload []byte)) int {
	total := len(data)
	for len(data) > 0 {
		if f.lost {
			i := bytes.IndexByte(data, SyncByte)
			if i < 0 {
				return total
			}
			data = data[i+1:]
			f.lost = false
			if f.onResync != nil {
				f.onResync()
			}
			continue
		}
		if data[0] == SyncByte {
			data = data[1:]
			continue
		}
		n, r := scan(data)
		if r == scanNeedMore {
			break
		}
		if r == scanBad {
			f.lost = true
			continue
		}
		emit(data[framePosSeq], data[FrameHeaderSize:n-FrameTrailerSize])
		data = data[n:]
	}
	return total - len(data)
}

// writeFrame encodes one frame holding cmdID and its arguments into out.
func writeFrame(out OutputBuffer, seq uint8, cmdID uint16, args func(OutputBuffer)) error {
	start := out.CurPosition()
	out.Output([]byte{0, seq})
	EncodeVLQUint(out, uint32(cmdID))
	if args != nil {
		args(out)
	}
	n := len(out.DataSince(start)) + FrameTrailerSize
	if n > FrameMaxLen {
		return ErrFrameTooLong
	}
	out.Update(start, uint8(n))
	crc := CRC16(out.DataSince(start))
	out.Output([]byte{byte(crc >> 8), byte(crc), SyncByte})
	return nil
}

// ackFrame is the empty frame acknowledging everything before seq.
func ackFrame(seq uint8) []byte {
	var buf [FrameMinLen]byte
	buf[framePosLen] = FrameMinLen
	buf[framePosSeq] = seq
	return appendTrailer(buf[:FrameHeaderSize])
}
