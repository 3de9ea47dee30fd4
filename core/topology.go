package core

// StandardTopology returns the topology of a plain two-output module:
// both outputs set at the start of the period and cleared on their
// compare match (A on CMPA, B on CMPB). In up-down mode the outputs are
// centre aligned instead. Module PWM1 drives the sync chain; the others
// pass it through.
func StandardTopology(id PWMModuleID, hz uint32, mode CountMode) Topology {
	t := Topology{
		TimeBase: TimeBase{
			CountMode: mode,
			SyncOut:   SyncOutPassThrough,
			Emulation: EmuFreeRun,
		},
		FrequencyHz: hz,
		PinA:        PinConfig{Mode: PinModePWM, Policy: DisableNoAction},
		PinB:        PinConfig{Mode: PinModePWM, Policy: DisableNoAction},
	}
	if id == PWM1 {
		t.TimeBase.SyncOut = SyncOutCtrZero
	} else {
		t.TimeBase.PhaseEnable = true
	}
	if mode == CountUpDown {
		t.ActionA = ActionTable{CAU: AQForceHigh, CAD: AQForceLow}
		t.ActionB = ActionTable{CBU: AQForceHigh, CBD: AQForceLow}
	} else {
		t.ActionA = ActionTable{Zero: AQForceHigh, CAU: AQForceLow}
		t.ActionB = ActionTable{Zero: AQForceHigh, CBU: AQForceLow}
	}
	return t
}

// WithDeadband makes B the delayed complement of A, with ns on both
// edges. Zero leaves the dead-band unit bypassed.
func (t Topology) WithDeadband(ns uint32) Topology {
	if ns == 0 {
		t.Deadband = DeadbandControl{}
		t.RisingNs, t.FallingNs = 0, 0
		return t
	}
	t.Deadband = DeadbandControl{Output: DBFull, Polarity: DBActiveHighComplementary}
	t.RisingNs, t.FallingNs = ns, ns
	return t
}

// WithPolicies sets the disable policy of both outputs.
func (t Topology) WithPolicies(a, b DisableMode) Topology {
	t.PinA.Policy = a
	t.PinB.Policy = b
	return t
}

// WithTripZone makes every zone in oneShot latch both outputs into their
// trip action.
func (t Topology) WithTripZone(oneShot TripZoneSet, a, b TZAction) Topology {
	t.TripZone = TripZone{OneShot: oneShot, ActionA: a, ActionB: b, IntOneShot: oneShot != 0}
	return t
}
