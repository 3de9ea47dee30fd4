package protocol

import "sync/atomic"

// CommandHandler decodes the arguments of cmdID from args and runs it.
type CommandHandler func(cmdID uint16, args *[]byte) error

// ErrorHandler is told about a command whose handler failed. The rest of
// the frame is dropped.
type ErrorHandler func(cmdID uint16, err error)

// Transport is the device end of the link. Frames are dispatched in
// sequence order; every frame, accepted or not, is answered with an ack
// carrying the next expected sequence.
type Transport struct {
	fr      framer
	seq     atomic.Uint32 // next sequence expected from the host
	out     OutputBuffer
	handler CommandHandler
	onError ErrorHandler
	onReset func()
}

// NewTransport creates a transport writing acks and responses to out.
func NewTransport(out OutputBuffer, handler CommandHandler) *Transport {
	t := &Transport{out: out, handler: handler}
	t.seq.Store(SeqDest)
	t.fr.onResync = t.sendAck
	return t
}

// Receive consumes every complete frame in input.
func (t *Transport) Receive(input InputBuffer) {
	n := t.fr.feed(input.Data(), t.handleFrame)
	input.Pop(n)
}

func (t *Transport) handleFrame(seq uint8, payload []byte) {
	expect := uint8(t.seq.Load())
	if seq == SeqDest && expect != SeqDest {
		// host restarted its sequence
		expect = SeqDest
		t.seq.Store(SeqDest)
		if t.onReset != nil {
			t.onReset()
		}
	}
	if seq == expect {
		t.seq.Store(uint32(nextSeq(seq)))
		t.dispatch(payload)
	}
	t.sendAck()
}

func (t *Transport) dispatch(payload []byte) {
	for len(payload) > 0 {
		id, err := DecodeVLQUint(&payload)
		if err != nil {
			t.fr.lost = true
			return
		}
		if t.handler == nil {
			return
		}
		if err := t.handler(uint16(id), &payload); err != nil {
			if t.onError != nil {
				t.onError(uint16(id), err)
			}
			return
		}
	}
}

func (t *Transport) sendAck() {
	t.out.Output(ackFrame(uint8(t.seq.Load())))
}

// Send encodes a response frame. Responses carry the current sequence and
// do not advance it.
func (t *Transport) Send(cmdID uint16, args func(output OutputBuffer)) error {
	return writeFrame(t.out, uint8(t.seq.Load()), cmdID, args)
}

// Reset drops framing state and restarts the sequence.
func (t *Transport) Reset() {
	t.fr.lost = false
	t.seq.Store(SeqDest)
	if t.onReset != nil {
		t.onReset()
	}
}

// NextSequence returns the sequence the transport expects next.
func (t *Transport) NextSequence() uint8 {
	return uint8(t.seq.Load())
}

func (t *Transport) SetResetCallback(cb func())       { t.onReset = cb }
func (t *Transport) SetErrorCallback(cb ErrorHandler) { t.onError = cb }
