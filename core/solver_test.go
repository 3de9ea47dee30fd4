package core

import "testing"

func TestSolvePeriodScenario(t *testing.T) {
	r, err := SolvePeriod(12000, 150000000, TIMER_MAX_COUNT, ClkDivLadder)
	if err != nil {
		t.Fatalf("SolvePeriod failed: %v", err)
	}
	if r.Prescaler != 0 {
		t.Errorf("Expected prescaler index 0, got %d", r.Prescaler)
	}
	if r.Period != 12499 {
		t.Errorf("Expected period 12499, got %d", r.Period)
	}
}

func TestSolvePeriodSweep(t *testing.T) {
	sources := []uint32{60000000, 100000000, 150000000}
	for _, src := range sources {
		for target := uint32(20); target <= 2000000; target = target*11/10 + 1 {
			r, err := SolvePeriod(target, src, TIMER_MAX_COUNT, ClkDivLadder)
			if err != nil {
				// only the low end may fail: 128 * 65536 ticks is the longest period
				if uint64(src)/uint64(target) < 128*65536 {
					t.Errorf("src=%d target=%d: unexpected error %v", src, target, err)
				}
				continue
			}
			if uint32(r.Period) > TIMER_MAX_COUNT {
				t.Errorf("src=%d target=%d: period %d above max", src, target, r.Period)
			}

			// the counter span must be the truncated quotient at this divisor
			raw := src / target
			div := r.Divisor(ClkDivLadder)
			n := uint32(r.Period) + 1
			if n*div > raw || (n+1)*div <= raw {
				t.Errorf("src=%d target=%d: span %d x %d is not within one step of %d", src, target, n, div, raw)
			}

			// no finer divisor would have fit
			if r.Prescaler > 0 {
				finer := raw / uint32(ClkDivLadder[r.Prescaler-1])
				if finer <= TIMER_MAX_COUNT {
					t.Errorf("src=%d target=%d: prescaler %d chosen but %d fits", src, target, r.Prescaler, r.Prescaler-1)
				}
			}
		}
	}
}

func TestSolvePeriodOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		target uint32
		source uint32
		max    uint32
	}{
		{"too slow", 1, 150000000, TIMER_MAX_COUNT},
		{"faster than source", 200000000, 150000000, TIMER_MAX_COUNT},
		{"tiny counter", 10, 100000000, 0xFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := SolvePeriod(tt.target, tt.source, tt.max, ClkDivLadder)
			if err != ErrOutOfRange {
				t.Errorf("Expected ErrOutOfRange, got %v (%+v)", err, r)
			}
			if r != (Resolution{}) {
				t.Errorf("Expected zero resolution on failure, got %+v", r)
			}
		})
	}
}

func TestSolvePeriodIdempotent(t *testing.T) {
	a, errA := SolvePeriod(20000, 100000000, TIMER_MAX_COUNT, ClkDivLadder)
	b, errB := SolvePeriod(20000, 100000000, TIMER_MAX_COUNT, ClkDivLadder)
	if a != b || errA != errB {
		t.Errorf("Identical inputs gave %+v/%v and %+v/%v", a, errA, b, errB)
	}
}

func TestSolvePeriodZeroTarget(t *testing.T) {
	resetCore(t)
	expectAbort(t, FAULT_ZERO_FREQUENCY, func() {
		SolvePeriod(0, 100000000, TIMER_MAX_COUNT, ClkDivLadder)
	})
}

func TestSolveDeadband(t *testing.T) {
	tests := []struct {
		ns, clk   uint32
		prescaler uint8
		period    uint8
	}{
		{1000, 100000000, 3, 12},
		{0, 100000000, 0, 0},
		{0, 150000000, 0, 0},
		{100, 100000000, 0, 10},
		{170, 100000000, 1, 8},
		{610, 100000000, 2, 15},
		{4800, 100000000, 5, 15},
		{3200, 150000000, 5, 15},
	}
	for _, tt := range tests {
		code, err := SolveDeadband(tt.ns, tt.clk)
		if err != nil {
			t.Errorf("SolveDeadband(%d, %d) failed: %v", tt.ns, tt.clk, err)
			continue
		}
		if code.Prescaler != tt.prescaler || code.Period != tt.period {
			t.Errorf("SolveDeadband(%d, %d) = %+v, want {%d %d}",
				tt.ns, tt.clk, code, tt.prescaler, tt.period)
		}
	}
}

func TestSolveDeadbandAtMaximum(t *testing.T) {
	for _, clk := range []uint32{60000000, 100000000, 150000000} {
		code, err := SolveDeadband(MaxDeadbandNs(clk), clk)
		if err != nil {
			t.Errorf("clk=%d: max dead band rejected: %v", clk, err)
			continue
		}
		if code.Period != DEADBAND_MAX_PERIOD || code.Prescaler != DEADBAND_MAX_PRESCALER {
			t.Errorf("clk=%d: got %+v, want period 15 at prescaler 5", clk, code)
		}
	}
}

func TestSolveDeadbandAboveMaximum(t *testing.T) {
	clk := uint32(100000000)
	code, err := SolveDeadband(MaxDeadbandNs(clk)+1, clk)
	if err != ErrOutOfRange {
		t.Errorf("Expected ErrOutOfRange, got %v (%+v)", err, code)
	}
}

func TestMaxDeadbandNs(t *testing.T) {
	if got := MaxDeadbandNs(100000000); got != 4800 {
		t.Errorf("Expected 4800ns at 100MHz, got %d", got)
	}
	if got := MaxDeadbandNs(150000000); got != 3200 {
		t.Errorf("Expected 3200ns at 150MHz, got %d", got)
	}
}

func TestEncodeDutyHighRes(t *testing.T) {
	m := EncodeDutyHighRes(1000, 66)
	// 1000 = 15*66 + 10
	if m.Coarse != 15 {
		t.Errorf("Expected coarse 15, got %d", m.Coarse)
	}
	if m.Micro != 10<<8+HIRES_ROUNDING_CONST {
		t.Errorf("Expected micro 0x%X, got 0x%X", 10<<8+HIRES_ROUNDING_CONST, m.Micro)
	}
	if m.Pack() != 15<<16|uint32(m.Micro) {
		t.Errorf("Unexpected packed value 0x%08X", m.Pack())
	}
}

func TestHighResRoundTrip(t *testing.T) {
	for _, steps := range []uint16{44, 66, 111} {
		for target := uint32(0); target < 20000; target += 7 {
			m := EncodeDutyHighRes(target, steps)
			got := DecodeDutyHighRes(UnpackMicroStep(m.Pack()), steps)
			diff := int64(got) - int64(target)
			if diff < -1 || diff > 1 {
				t.Fatalf("steps=%d target=%d decoded %d", steps, target, got)
			}
		}
	}
}

func TestEncodeDutyHighResWithoutSteps(t *testing.T) {
	resetCore(t)
	expectAbort(t, FAULT_NO_HIRES, func() {
		EncodeDutyHighRes(100, 0)
	})
}

func TestMEPSteps(t *testing.T) {
	if got := MEPSteps(100000000); got != HIRES_DEFAULT_MEP_STEPS {
		t.Errorf("Expected %d MEP steps at 100MHz, got %d", HIRES_DEFAULT_MEP_STEPS, got)
	}
	if got := MEPSteps(150000000); got != 44 {
		t.Errorf("Expected 44 MEP steps at 150MHz, got %d", got)
	}
}

func TestSolveUpDownRejectsDoublingOverflow(t *testing.T) {
	resetCore(t)
	for _, hz := range []uint32{SYSCLK_DEFAULT_HZ/2 + 1, 0x80000000, 0x80000001, 0xFFFFFFFF} {
		if r, err := SolveTimeBase(hz, TimeBase{CountMode: CountUpDown}); err != ErrOutOfRange {
			t.Errorf("SolveTimeBase(%d) = %+v, %v; expected ErrOutOfRange", hz, r, err)
		}
		if r, err := SolveTimerPeriod(hz, TimerContUpDown); err != ErrOutOfRange {
			t.Errorf("SolveTimerPeriod(%d) = %+v, %v; expected ErrOutOfRange", hz, r, err)
		}
	}

	// half the clock is the fastest up-down rate
	r, err := SolveTimeBase(SYSCLK_DEFAULT_HZ/2, TimeBase{CountMode: CountUpDown})
	if err != nil || r.Period != 1 {
		t.Errorf("Expected period 1 at sysclk/2, got %+v, %v", r, err)
	}
}

func TestSolveTimeBaseAt(t *testing.T) {
	resetCore(t)
	r, err := SolveTimeBaseAt(20000, 150000000, TimeBase{CountMode: CountUpDown})
	if err != nil {
		t.Fatalf("SolveTimeBaseAt failed: %v", err)
	}
	if r.Period != 3750 || r.Prescaler != 0 {
		t.Errorf("Expected period 3750 /1, got %+v", r)
	}
	if SysClock() != SYSCLK_DEFAULT_HZ {
		t.Error("SolveTimeBaseAt must not change the system clock")
	}
}
