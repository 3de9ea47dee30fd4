package protocol

import "tinygo.org/x/drivers"

const linkRxChunk = 64

// Link runs a Transport over a serial port. Poll is called from the main
// loop; it never blocks on the port.
type Link struct {
	uart drivers.UART
	in   *FifoBuffer
	out  *ScratchOutput
	t    *Transport
	rx   [linkRxChunk]byte
}

// NewLink creates a link dispatching received commands to handler.
func NewLink(uart drivers.UART, handler CommandHandler) *Link {
	l := &Link{
		uart: uart,
		in:   NewFifoBuffer(ScratchSize),
		out:  NewScratchOutput(),
	}
	l.t = NewTransport(l.out, handler)
	return l
}

// Transport returns the framed endpoint, for sending responses.
func (l *Link) Transport() *Transport {
	return l.t
}

// Poll moves buffered bytes from the port into the framer, dispatches
// every complete frame and writes out what the handlers produced.
func (l *Link) Poll() error {
	for l.uart.Buffered() > 0 && l.in.Free() > 0 {
		n, err := l.uart.Read(l.rx[:min(len(l.rx), l.in.Free())])
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}
		l.in.Write(l.rx[:n])
	}
	if !l.in.IsEmpty() {
		l.t.Receive(l.in)
	}
	return l.Flush()
}

// Flush writes pending acks and responses to the port.
func (l *Link) Flush() error {
	if l.out.CurPosition() == 0 {
		return nil
	}
	_, err := l.uart.Write(l.out.Result())
	l.out.Reset()
	return err
}
