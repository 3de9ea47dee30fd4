package core

import "testing"

const (
	evaCOMCON = evaBase + EV_COMCON
	evaACTR   = evaBase + EV_ACTR
	evaDBTCON = evaBase + EV_DBTCON
	evbCOMCON = evbBase + EV_COMCON
)

func symmetricPair() PairConfig {
	return PairConfig{
		Type:          PairSymmetric,
		Duty:          1200,
		CompareEnable: true,
		CompareReload: ReloadOnZero,
		ActionReload:  ReloadOnZero,
		Pin1:          PolarityActiveHigh,
		Pin2:          PolarityActiveLow,
	}
}

func TestConstructPairOrdering(t *testing.T) {
	resetCore(t)
	bank := NewMemoryBank()
	bank.Poke(evaCOMCON, comconCENABLE.Mask())

	if _, err := ConstructPair(bank, Pair3_4, symmetricPair()); err != nil {
		t.Fatalf("ConstructPair failed: %v", err)
	}
	writes := bank.Writes()
	comcon := writesTo(bank, evaCOMCON)
	if len(comcon) < 2 {
		t.Fatalf("Expected at least two COMCON writes, got %v", comcon)
	}
	if comconCENABLE.Get(uint16(comcon[0])) != 0 {
		t.Error("First COMCON write must clear CENABLE")
	}
	actr := indexOf(writes, evaACTR)
	if actr < 0 || actr < indexOf(writes, evaCOMCON) {
		t.Error("ACTR written before compare control was disabled")
	}

	last := -1
	for i, w := range writes {
		if w.Reg == evaCOMCON {
			last = i
		}
	}
	if last < actr {
		t.Error("COMCON must be rewritten after ACTR")
	}
	final := bank.Read16(evaCOMCON)
	if comconCENABLE.Get(final) != 1 {
		t.Error("Compare control should be re-enabled")
	}
	if comconFCMPOE.Get(final) != 0 {
		t.Error("Output gate must stay closed until Enable")
	}

	// pair 3/4 is compare unit 2: ACTR bits 4..7, CMPR2
	a := bank.Read16(evaACTR)
	if actrField(2).Get(a) != uint16(PolarityActiveHigh) || actrField(3).Get(a) != uint16(PolarityActiveLow) {
		t.Errorf("Unexpected ACTR 0x%04X", a)
	}
	if got := bank.Read16(evaBase + EV_CMPR1 + 1); got != 1200 {
		t.Errorf("Expected CMPR2 1200, got %d", got)
	}
	gpio := NewBankGPIO(bank)
	if gpio.Mux(2) != MUX_PERIPHERAL || gpio.Mux(3) != MUX_PERIPHERAL {
		t.Error("PWM3/PWM4 should be muxed to the event manager")
	}
}

func TestPairActionsKeepOtherPairs(t *testing.T) {
	resetCore(t)
	bank := NewMemoryBank()
	bank.Poke(evaACTR, 0xFFF)
	ConstructPair(bank, Pair1_2, PairConfig{Type: PairAsymmetric, Pin1: PolarityForcedLow, Pin2: PolarityActiveHigh})

	if got := bank.Read16(evaACTR); got != 0xFF0|uint16(PolarityActiveHigh)<<2 {
		t.Errorf("Unexpected ACTR 0x%04X", got)
	}
}

func TestPairOutputGate(t *testing.T) {
	resetCore(t)
	bank := NewMemoryBank()
	a, _ := ConstructPair(bank, Pair1_2, symmetricPair())
	b, _ := ConstructPair(bank, Pair7_8, symmetricPair())

	a.Enable()
	if comconFCMPOE.Get(bank.Read16(evaCOMCON)) != 1 {
		t.Error("EVA gate should be open")
	}
	if comconFCMPOE.Get(bank.Read16(evbCOMCON)) != 0 {
		t.Error("EVB gate must not follow EVA")
	}
	b.Enable()
	a.Disable()
	if comconFCMPOE.Get(bank.Read16(evaCOMCON)) != 0 {
		t.Error("EVA gate should be closed")
	}
	if comconCENABLE.Get(bank.Read16(evaCOMCON)) != 1 {
		t.Error("Disable must only touch the output gate")
	}
	if comconFCMPOE.Get(bank.Read16(evbCOMCON)) != 1 {
		t.Error("EVB gate should still be open")
	}
}

func TestPairDeadband(t *testing.T) {
	resetCore(t)
	bank := NewMemoryBank()
	cfg := symmetricPair()
	cfg.DeadbandEnabled = true
	cfg.DeadbandNs = 1000
	p, err := ConstructPair(bank, Pair5_6, cfg)
	if err != nil {
		t.Fatalf("ConstructPair failed: %v", err)
	}

	db := UnpackDeadbandTimer(bank.Read16(evaDBTCON))
	if db.Code != (DeadbandCode{Prescaler: 3, Period: 12}) {
		t.Errorf("Unexpected dead-band code %+v", db.Code)
	}
	if db.Enabled != 1<<2 {
		t.Errorf("Expected EDBT3 only, got %03b", db.Enabled)
	}

	q, _ := ConstructPair(bank, Pair1_2, symmetricPair())
	if err := q.SetDeadBand(100); err != nil {
		t.Fatalf("SetDeadBand failed: %v", err)
	}
	db = UnpackDeadbandTimer(bank.Read16(evaDBTCON))
	if db.Enabled != 1<<2|1 {
		t.Errorf("Expected EDBT1 and EDBT3, got %03b", db.Enabled)
	}
	if db.Code != (DeadbandCode{Prescaler: 0, Period: 10}) {
		t.Errorf("Shared timer should hold the last code, got %+v", db.Code)
	}

	p.DisableDeadBand()
	if got := UnpackDeadbandTimer(bank.Read16(evaDBTCON)).Enabled; got != 1 {
		t.Errorf("Expected EDBT1 only, got %03b", got)
	}

	expectAbort(t, FAULT_DEADBAND_RANGE, func() {
		q.SetDeadBand(MaxDeadbandNs(SysClock()) + 1)
	})
}

func TestPairSpaceVector(t *testing.T) {
	resetCore(t)
	bank := NewMemoryBank()
	p, err := ConstructPair(bank, PairSPV_B, PairConfig{Type: PairSpaceVector, CompareEnable: true})
	if err != nil {
		t.Fatalf("ConstructPair failed: %v", err)
	}
	for _, r := range []Resource{ResPair7_8, ResPair9_10, ResPair11_12} {
		if registry.Owner(r) != p {
			t.Errorf("Resource %d should belong to the space-vector unit", r)
		}
	}
	if comconSVENABLE.Get(bank.Read16(evbCOMCON)) != 1 {
		t.Error("SVENABLE should be set")
	}
	gpio := NewBankGPIO(bank)
	for pin := GPIOPin(6); pin < 12; pin++ {
		if gpio.Mux(pin) != MUX_PERIPHERAL {
			t.Errorf("GPIO%d should be muxed to EVB", pin)
		}
	}

	expectAbort(t, FAULT_DOUBLE_CLAIM, func() {
		ConstructPair(bank, Pair9_10, symmetricPair())
	})
	expectAbort(t, FAULT_BAD_ARGUMENT, func() { p.UpdateDutyCycle(10) })

	p.Destroy()
	if registry.IsClaimed(ResPair9_10) {
		t.Error("Destroy should release every pair of the unit")
	}
}

func TestConstructPairTypeMismatch(t *testing.T) {
	resetCore(t)
	expectAbort(t, FAULT_BAD_ARGUMENT, func() {
		ConstructPair(NewMemoryBank(), PairSPV_A, symmetricPair())
	})
	expectAbort(t, FAULT_BAD_ARGUMENT, func() {
		ConstructPair(NewMemoryBank(), Pair1_2, PairConfig{Type: PairSpaceVector})
	})
}

func TestPairDestroy(t *testing.T) {
	resetCore(t)
	bank := NewMemoryBank()
	p, _ := ConstructPair(bank, Pair11_12, symmetricPair())
	p.Enable()
	p.Destroy()

	if registry.IsClaimed(ResPair11_12) {
		t.Error("Destroy should release the pair")
	}
	if comconFCMPOE.Get(bank.Read16(evbCOMCON)) != 0 {
		t.Error("Destroy should close the gate")
	}
	gpio := NewBankGPIO(bank)
	if gpio.Mux(10) != MUX_GPIO || gpio.Mux(11) != MUX_GPIO {
		t.Error("Destroy should return PWM11/PWM12 to GPIO")
	}
	if _, err := ConstructPair(bank, Pair11_12, symmetricPair()); err != nil {
		t.Errorf("Reconstruct failed: %v", err)
	}
}
