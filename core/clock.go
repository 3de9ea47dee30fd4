package core

import "sync/atomic"

// Default clock domain frequencies
const (
	SYSCLK_DEFAULT_HZ = 100000000
	SYSCLK_281X_HZ    = 150000000
)

// sysClockHz is written once by board bring-up, read everywhere after.
var sysClockHz uint32 = SYSCLK_DEFAULT_HZ

// SetSysClock records the CPU clock frequency. Board bring-up calls it
// before any controller is constructed.
func SetSysClock(hz uint32) {
	assert(hz >= 1000000, FAULT_BAD_ARGUMENT)
	atomic.StoreUint32(&sysClockHz, hz)
}

// SysClock returns the CPU clock frequency in Hz.
func SysClock() uint32 {
	return atomic.LoadUint32(&sysClockHz)
}

// TicksFromNs converts nanoseconds to SYSCLK ticks, rounding down.
func TicksFromNs(ns uint32) uint32 {
	return uint32(uint64(ns) * uint64(SysClock()) / 1000000000)
}

// NsFromTicks converts SYSCLK ticks to nanoseconds, rounding down.
func NsFromTicks(ticks uint32) uint32 {
	return uint32(uint64(ticks) * 1000000000 / uint64(SysClock()))
}
