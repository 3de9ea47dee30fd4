//go:build !tinygo

package protocol

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// DefaultTimeout bounds the wait for an ack or a response.
const DefaultTimeout = 2 * time.Second

// Message is one response frame received by the host.
type Message struct {
	Seq     uint8
	Payload []byte
}

// CommandID decodes the leading command id and returns it with the
// remaining argument bytes.
func (m Message) CommandID() (uint16, []byte, error) {
	p := m.Payload
	id, err := DecodeVLQUint(&p)
	return uint16(id), p, err
}

// HostTransport is the host end of the link. Each Send blocks until the
// device acks the frame; responses queue up for Receive.
type HostTransport struct {
	port      io.ReadWriteCloser
	seq       atomic.Uint32
	fr        framer
	in        *FifoBuffer
	acks      chan uint8
	responses chan Message
	mu        sync.Mutex
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	Timeout time.Duration
}

// NewHostTransport starts reading from port.
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	h := &HostTransport{
		port:      port,
		in:        NewFifoBuffer(ScratchSize),
		acks:      make(chan uint8, 4),
		responses: make(chan Message, 32),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		Timeout:   DefaultTimeout,
	}
	h.seq.Store(SeqDest)
	go h.readLoop()
	return h
}

// Send sends cmdID with unsigned arguments and waits for the ack.
func (h *HostTransport) Send(cmdID uint16, args ...uint32) error {
	return h.SendFunc(cmdID, func(out OutputBuffer) {
		EncodeArgs(out, args...)
	})
}

// SendFunc sends cmdID with arguments written by args and waits for the
// ack.
func (h *HostTransport) SendFunc(cmdID uint16, args func(OutputBuffer)) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	seq := uint8(h.seq.Load())
	out := NewScratchOutput()
	if err := writeFrame(out, seq, cmdID, args); err != nil {
		return errors.Wrapf(err, "command %d", cmdID)
	}
	if _, err := h.port.Write(out.Result()); err != nil {
		return errors.Wrap(err, "write frame")
	}

	want := nextSeq(seq)
	deadline := time.After(h.Timeout)
	for {
		select {
		case got := <-h.acks:
			if got != want {
				// stale ack from a resync, keep waiting
				continue
			}
			h.seq.Store(uint32(want))
			return nil
		case <-deadline:
			return errors.Errorf("no ack for sequence 0x%02x after %v", seq, h.Timeout)
		case <-h.stop:
			return errors.New("transport closed")
		}
	}
}

// Receive returns the next response frame.
func (h *HostTransport) Receive(timeout time.Duration) (Message, error) {
	select {
	case m := <-h.responses:
		return m, nil
	case <-time.After(timeout):
		return Message{}, errors.Errorf("no response after %v", timeout)
	case <-h.stop:
		return Message{}, errors.New("transport closed")
	}
}

// TryReceive returns a queued response without waiting.
func (h *HostTransport) TryReceive() (Message, bool) {
	select {
	case m := <-h.responses:
		return m, true
	default:
		return Message{}, false
	}
}

func (h *HostTransport) readLoop() {
	defer close(h.done)
	buf := make([]byte, 256)
	for {
		n, err := h.port.Read(buf)
		if n > 0 {
			h.in.Write(buf[:n])
			h.in.Pop(h.fr.feed(h.in.Data(), h.handleFrame))
		}
		if err != nil {
			select {
			case <-h.stop:
				return
			default:
			}
			if err == io.EOF {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (h *HostTransport) handleFrame(seq uint8, payload []byte) {
	if len(payload) == 0 {
		select {
		case h.acks <- seq:
		default:
		}
		return
	}
	m := Message{Seq: seq, Payload: append([]byte(nil), payload...)}
	select {
	case h.responses <- m:
	default:
		// drop the oldest response to make room
		select {
		case <-h.responses:
		default:
		}
		h.responses <- m
	}
}

// Close stops the reader and closes the port.
func (h *HostTransport) Close() error {
	var err error
	h.closeOnce.Do(func() {
		close(h.stop)
		err = h.port.Close()
		<-h.done
	})
	return err
}
