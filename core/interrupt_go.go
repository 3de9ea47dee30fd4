//go:build !tinygo

package core

// irqState stands in for the saved interrupt mask on the host, where
// there is no interrupt context and the mock bank is single threaded.
type irqState uintptr

func disableInterrupts() irqState {
	return 0
}

func restoreInterrupts(irqState) {}
