package core

import "testing"

func TestRegistryClaimRelease(t *testing.T) {
	resetCore(t)
	owner := &struct{ name string }{"pwm"}

	registry.Claim(ResPWM3, owner)
	if !registry.IsClaimed(ResPWM3) {
		t.Fatal("ResPWM3 should be claimed")
	}
	if registry.Owner(ResPWM3) != owner {
		t.Error("Owner mismatch")
	}
	if registry.Claimed() != 1<<ResPWM3 {
		t.Errorf("Unexpected claim bitmap 0x%X", registry.Claimed())
	}

	registry.Release(ResPWM3)
	if registry.IsClaimed(ResPWM3) || registry.Owner(ResPWM3) != nil {
		t.Error("Release should clear claim and owner")
	}
}

func TestRegistryFaults(t *testing.T) {
	resetCore(t)
	registry.Claim(ResTimer2, 1)
	expectAbort(t, FAULT_DOUBLE_CLAIM, func() { registry.Claim(ResTimer2, 2) })
	if registry.Owner(ResTimer2) != 1 {
		t.Error("Failed claim must keep the first owner")
	}
	expectAbort(t, FAULT_NOT_CLAIMED, func() { registry.Release(ResTimer3) })
	expectAbort(t, FAULT_BAD_ARGUMENT, func() { registry.Claim(RESOURCE_COUNT, 1) })
	if LastFault() != FAULT_BAD_ARGUMENT {
		t.Errorf("Expected last fault %q, got %q", FAULT_BAD_ARGUMENT, LastFault())
	}
}

func TestRegistryLookup(t *testing.T) {
	resetCore(t)
	if registry.Lookup(FuncFan) != nil {
		t.Error("Expected no channel before construction")
	}
	tc := NewTimerChannel(NewMemoryBank(), TimerConfig{
		Function:    FuncFan,
		CountMode:   TimerContUp,
		Output:      OutActiveHigh,
		FrequencyHz: 25000,
	})
	if registry.Lookup(FuncFan) != tc {
		t.Error("Lookup should return the fan channel")
	}
	if tc.ID != Timer3 {
		t.Errorf("Fan should run on Timer3, got %d", tc.ID)
	}
	if registry.Lookup(FUNCTION_COUNT) != nil {
		t.Error("Unknown function should have no channel")
	}
}

func TestFunctionTagNames(t *testing.T) {
	for f := FunctionTag(0); f < FUNCTION_COUNT; f++ {
		got, ok := ParseFunctionTag(f.String())
		if !ok || got != f {
			t.Errorf("ParseFunctionTag(%q) = %d, %v", f.String(), got, ok)
		}
	}
	if _, ok := ParseFunctionTag("spindle"); ok {
		t.Error("Expected unknown function to be rejected")
	}
}

func TestAbortHandlerOverride(t *testing.T) {
	resetCore(t)
	var got FaultCode
	SetAbortHandler(func(code FaultCode) { got = code })
	Abort(FAULT_NO_SYNC_PARTNER)
	if got != FAULT_NO_SYNC_PARTNER {
		t.Errorf("Handler saw %q", got)
	}
	if s := (AbortError{Code: FAULT_DOUBLE_CLAIM}).Error(); s != "abort: double claim" {
		t.Errorf("Unexpected error text %q", s)
	}
}
