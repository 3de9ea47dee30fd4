package core

import "testing"

// resetCore puts the package globals back to their boot state.
func resetCore(t *testing.T) {
	t.Helper()
	registry.Reset()
	SetAbortHandler(nil)
	SetSysClock(SYSCLK_DEFAULT_HZ)
	ClearTimingRing()
	t.Cleanup(func() {
		registry.Reset()
		SetAbortHandler(nil)
		SetSysClock(SYSCLK_DEFAULT_HZ)
	})
}

// expectAbort runs fn and fails unless it aborts with code.
func expectAbort(t *testing.T, code FaultCode, fn func()) {
	t.Helper()
	var got *AbortError
	func() {
		defer func() {
			if r := recover(); r != nil {
				ae, ok := r.(AbortError)
				if !ok {
					panic(r)
				}
				got = &ae
			}
		}()
		fn()
	}()
	if got == nil {
		t.Fatalf("Expected abort %q, function returned normally", code)
	}
	if got.Code != code {
		t.Errorf("Expected abort %q, got %q", code, got.Code)
	}
}

// writesTo returns the values written to r, in order.
func writesTo(b *MemoryBank, r Reg) []uint32 {
	var out []uint32
	for _, w := range b.Writes() {
		if w.Reg == r {
			out = append(out, w.Value)
		}
	}
	return out
}

// indexOf returns the position of the first write to r, or -1.
func indexOf(writes []BankWrite, r Reg) int {
	for i, w := range writes {
		if w.Reg == r {
			return i
		}
	}
	return -1
}
