//go:build c28x

package main

import (
	"device"
	"runtime/volatile"
	"unsafe"

	"c28pwm/core"
)

// volatileBank maps core registers onto the peripheral frames. Addresses
// are word addresses, as the C28x data space is word addressed.
type volatileBank struct{}

func reg16(r core.Reg) *volatile.Register16 {
	return (*volatile.Register16)(unsafe.Pointer(uintptr(r)))
}

func reg32(r core.Reg) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(uintptr(r)))
}

func (volatileBank) Read16(r core.Reg) uint16     { return reg16(r).Get() }
func (volatileBank) Write16(r core.Reg, v uint16) { reg16(r).Set(v) }
func (volatileBank) Read32(r core.Reg) uint32     { return reg32(r).Get() }
func (volatileBank) Write32(r core.Reg, v uint32) { reg32(r).Set(v) }

func (volatileBank) Protect(locked bool) {
	if locked {
		device.Asm("EDIS")
	} else {
		device.Asm("EALLOW")
	}
}

// System control registers used at boot
const (
	regWDCR   core.Reg = 0x7029
	regLOSPCP core.Reg = 0x701B

	wdcrDisable = 0x0068 // WDDIS with the WDCHK pattern
)

// disableWatchdog stops the watchdog before the clocks are set up.
func disableWatchdog(b core.RegisterBank) {
	b.Protect(false)
	b.Write16(regWDCR, wdcrDisable)
	b.Protect(true)
}

// lowSpeedClock returns the SCI clock derived from sysclk by LOSPCP.
func lowSpeedClock(b core.RegisterBank, sysclk uint32) uint32 {
	div := uint32(b.Read16(regLOSPCP) & 7)
	if div == 0 {
		return sysclk
	}
	return sysclk / (2 * div)
}
