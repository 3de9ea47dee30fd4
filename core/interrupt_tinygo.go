//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts masks interrupts around a claim or timing-ring update
// and returns the previous mask.
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
