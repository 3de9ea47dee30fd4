package core

import (
	"strings"
	"testing"
)

func TestTimingRingOrder(t *testing.T) {
	resetCore(t)
	registry.Claim(ResPWM3, 1)
	registry.Release(ResPWM3)

	events := TimingEvents()
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %+v", events)
	}
	if events[0].EventType != EvtClaim || events[1].EventType != EvtRelease {
		t.Errorf("Unexpected event order %+v", events)
	}
	if events[0].ID != uint8(ResPWM3) {
		t.Errorf("Expected id %d, got %d", ResPWM3, events[0].ID)
	}
}

func TestTimingRingWraps(t *testing.T) {
	resetCore(t)
	for i := 0; i < TimingRingSize+5; i++ {
		RecordTiming(EvtPeriodSet, 0, uint32(i), 0, 0)
	}
	events := TimingEvents()
	if len(events) != TimingRingSize {
		t.Fatalf("Expected %d events, got %d", TimingRingSize, len(events))
	}
	if events[0].Value0 != 5 || events[len(events)-1].Value0 != TimingRingSize+4 {
		t.Errorf("Ring should keep the newest events, got %d..%d",
			events[0].Value0, events[len(events)-1].Value0)
	}
}

func TestDumpTimingRing(t *testing.T) {
	resetCore(t)
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	t.Cleanup(func() { SetDebugWriter(func(string) {}) })

	RecordTiming(EvtDeadband, 2, 300, 15, 1)
	DebugPrintln("dropped while disabled")
	DumpTimingRing()

	out := strings.Join(lines, "\n")
	if !strings.Contains(out, "[TIMING] DEADBAND id=2 v0=300 v1=15 v2=1") {
		t.Errorf("Unexpected dump:\n%s", out)
	}
	if strings.Contains(out, "dropped") {
		t.Error("DebugPrintln should be silent while debug output is disabled")
	}
}
