//go:build c28x

package main

import "c28pwm/core"

// SCI frame bases and register offsets
const (
	sciaBase core.Reg = 0x7050
	scibBase core.Reg = 0x7750

	SCI_CCR   core.Reg = 0x0
	SCI_CTL1  core.Reg = 0x1
	SCI_HBAUD core.Reg = 0x2
	SCI_LBAUD core.Reg = 0x3
	SCI_CTL2  core.Reg = 0x4
	SCI_RXST  core.Reg = 0x5
	SCI_RXBUF core.Reg = 0x7
	SCI_TXBUF core.Reg = 0x9
	SCI_FFTX  core.Reg = 0xA
	SCI_FFRX  core.Reg = 0xB
	SCI_FFCT  core.Reg = 0xC
)

const (
	sciFIFODepth = 16

	sciCCR8N1     = 0x0007 // one stop bit, no parity, 8 data bits
	sciCTL1Reset  = 0x0003 // TXENA | RXENA, SW reset held
	sciCTL1Run    = 0x0023 // SW reset released
	sciFFTXEnable = 0xE040 // SCIRST | SCIFFENA | TXFIFOXRESET, TXFFINT cleared
	sciFFRXEnable = 0x2044 // RXFIFORESET, RXFFINT cleared
	sciRXBreak    = 1 << 5 // SCIRXST BRKDT
	sciRXError    = 1 << 7 // SCIRXST RXERROR
)

// FIFO level fields of SCIFFTX and SCIFFRX
var sciFIFOLevel = core.Field[uint16]{Shift: 8, Width: 5}

// SCI is a polled serial port on one SCI module with both FIFOs enabled.
// It satisfies drivers.UART.
type SCI struct {
	bank core.RegisterBank
	base core.Reg
}

// sciPins are the GPIO pins of one SCI and their mux function code.
type sciPins struct {
	rx, tx core.GPIOPin
	mux    uint8
}

var (
	sciaPins = sciPins{rx: 28, tx: 29, mux: core.MUX_PERIPHERAL}
	scibPins = sciPins{rx: 23, tx: 22, mux: 3}
)

// NewSCI configures the SCI at base for baud 8N1 and muxes its pins.
func NewSCI(bank core.RegisterBank, base core.Reg, baud uint32, pins sciPins) *SCI {
	s := &SCI{bank: bank, base: base}
	brr := lowSpeedClock(bank, core.SysClock())/(baud*8) - 1

	bank.Write16(base+SCI_CCR, sciCCR8N1)
	bank.Write16(base+SCI_CTL1, sciCTL1Reset)
	bank.Write16(base+SCI_CTL2, 0)
	bank.Write16(base+SCI_HBAUD, uint16(brr>>8))
	bank.Write16(base+SCI_LBAUD, uint16(brr))
	bank.Write16(base+SCI_FFTX, sciFFTXEnable)
	bank.Write16(base+SCI_FFRX, sciFFRXEnable)
	bank.Write16(base+SCI_FFCT, 0)
	bank.Write16(base+SCI_CTL1, sciCTL1Run)

	gpio := core.MustGPIO()
	gpio.SetMux(pins.rx, pins.mux)
	gpio.SetMux(pins.tx, pins.mux)
	return s
}

// Buffered returns the number of bytes waiting in the receive FIFO.
func (s *SCI) Buffered() int {
	s.recover()
	return int(sciFIFOLevel.Get(s.bank.Read16(s.base + SCI_FFRX)))
}

// Read drains up to len(b) bytes from the receive FIFO without waiting.
func (s *SCI) Read(b []byte) (int, error) {
	n := 0
	for n < len(b) && s.Buffered() > 0 {
		b[n] = byte(s.bank.Read16(s.base + SCI_RXBUF))
		n++
	}
	return n, nil
}

// Write queues b, waiting for room in the transmit FIFO.
func (s *SCI) Write(b []byte) (int, error) {
	for _, c := range b {
		for sciFIFOLevel.Get(s.bank.Read16(s.base+SCI_FFTX)) >= sciFIFODepth {
		}
		s.bank.Write16(s.base+SCI_TXBUF, uint16(c))
	}
	return len(b), nil
}

// recover restarts the receiver after a break or framing error, which
// otherwise leaves it stuck.
func (s *SCI) recover() {
	if s.bank.Read16(s.base+SCI_RXST)&(sciRXBreak|sciRXError) == 0 {
		return
	}
	s.bank.Write16(s.base+SCI_CTL1, sciCTL1Reset)
	s.bank.Write16(s.base+SCI_CTL1, sciCTL1Run)
}
