package core

// PairID identifies an event-manager compare output pair, or a whole
// manager driven as a space-vector unit.
type PairID uint8

const (
	Pair1_2 PairID = iota
	Pair3_4
	Pair5_6
	Pair7_8
	Pair9_10
	Pair11_12
	PairSPV_A
	PairSPV_B
	PAIR_COUNT
)

// PairType is the waveform a pair produces.
type PairType uint8

const (
	PairAsymmetric  PairType = iota // timer counting up
	PairSymmetric                   // timer counting up/down
	PairSpaceVector                 // all three pairs of a manager
)

const (
	pairsPerManager = 3
	pairFirstPin    = 0 // PWM1..PWM12 are GPIO0..GPIO11
)

// PairConfig configures a compare pair. The timer that feeds the manager
// is constructed separately.
type PairConfig struct {
	Type            PairType
	Duty            uint16 // initial CMPRx
	DeadbandNs      uint32
	DeadbandEnabled bool
	CompareEnable   bool
	CompareReload   CompareReload
	ActionReload    CompareReload
	Pin1, Pin2      Polarity
}

// PWMPair controls one compare pair of an event manager.
type PWMPair struct {
	ID   PairID
	bank RegisterBank
	cfg  PairConfig
	db   DeadbandCode
}

// manager returns the event-manager frame and the first compare unit the
// pair uses.
func (id PairID) manager() (Reg, uint8) {
	switch {
	case id == PairSPV_A:
		return evaBase, 0
	case id == PairSPV_B:
		return evbBase, 0
	case id < Pair7_8:
		return evaBase, uint8(id)
	}
	return evbBase, uint8(id - Pair7_8)
}

// resources returns the pair resources id occupies.
func (id PairID) resources() []Resource {
	switch id {
	case PairSPV_A:
		return []Resource{ResPair1_2, ResPair3_4, ResPair5_6}
	case PairSPV_B:
		return []Resource{ResPair7_8, ResPair9_10, ResPair11_12}
	}
	return []Resource{ResPair1_2 + Resource(id)}
}

// pins returns the GPIOs of the pair, all six for a space-vector unit.
func (id PairID) pins() []GPIOPin {
	frame, unit := id.manager()
	first := GPIOPin(pairFirstPin)
	if frame == evbBase {
		first += pairsPerManager * 2
	}
	first += GPIOPin(unit) * 2
	n := 2
	if id >= PairSPV_A {
		n = pairsPerManager * 2
	}
	out := make([]GPIOPin, n)
	for i := range out {
		out[i] = first + GPIOPin(i)
	}
	return out
}

func (p *PWMPair) frame() Reg {
	f, _ := p.ID.manager()
	return f
}

func (p *PWMPair) unit() uint8 {
	_, u := p.ID.manager()
	return u
}

// ConstructPair claims id and programs its action and compare control.
// Compare control is disabled while the action register is rewritten, and
// the manager output gate is left off until Enable.
func ConstructPair(bank RegisterBank, id PairID, cfg PairConfig) (*PWMPair, error) {
	assert(id < PAIR_COUNT, FAULT_BAD_CHANNEL)
	assert((cfg.Type == PairSpaceVector) == (id >= PairSPV_A), FAULT_BAD_ARGUMENT)
	assert(cfg.Pin1 <= PolarityForcedHigh && cfg.Pin2 <= PolarityForcedHigh, FAULT_BAD_ARGUMENT)

	p := &PWMPair{ID: id, bank: bank, cfg: cfg}
	if cfg.DeadbandEnabled {
		assert(cfg.DeadbandNs <= MaxDeadbandNs(SysClock()), FAULT_DEADBAND_RANGE)
		code, err := SolveDeadband(cfg.DeadbandNs, SysClock())
		if err != nil {
			return nil, err
		}
		p.db = code
	}

	for _, r := range id.resources() {
		registry.Claim(r, p)
	}

	comcon := p.frame() + EV_COMCON
	modify16(bank, comcon, comconCENABLE.Mask(), 0)
	if cfg.Type != PairSpaceVector {
		p.writeActions()
	}
	gpio := NewBankGPIO(bank)
	for _, pin := range id.pins() {
		gpio.SetMux(pin, MUX_PERIPHERAL)
	}
	bank.Write16(comcon, CompareUnit{
		Enable:       cfg.CompareEnable,
		Reload:       cfg.CompareReload,
		SpaceVector:  cfg.Type == PairSpaceVector,
		ActionReload: cfg.ActionReload,
	}.Pack())

	if cfg.Type != PairSpaceVector {
		p.UpdateDutyCycle(cfg.Duty)
	}
	if cfg.DeadbandEnabled {
		p.writeDeadband()
	}
	return p, nil
}

// writeActions replaces both 2-bit ACTR fields of the pair. COMCON.CENABLE
// must be clear.
func (p *PWMPair) writeActions() {
	actr := p.frame() + EV_ACTR
	f1 := actrField(p.unit() * 2)
	f2 := actrField(p.unit()*2 + 1)
	modify16(p.bank, actr, f1.Mask()|f2.Mask(), 0)
	modify16(p.bank, actr, 0, f1.Set(0, uint16(p.cfg.Pin1))|f2.Set(0, uint16(p.cfg.Pin2)))
}

// Config returns the construction-time configuration.
func (p *PWMPair) Config() PairConfig {
	return p.cfg
}

// UpdateDutyCycle writes the pair's compare register. Space-vector units
// have no per-pair compare.
func (p *PWMPair) UpdateDutyCycle(duty uint16) {
	assert(p.cfg.Type != PairSpaceVector, FAULT_BAD_ARGUMENT)
	p.cfg.Duty = duty
	p.bank.Write16(p.frame()+EV_CMPR1+Reg(p.unit()), duty)
}

// Enable opens the output gate of the whole event manager.
func (p *PWMPair) Enable() {
	modify16(p.bank, p.frame()+EV_COMCON, 0, comconFCMPOE.Mask())
	RecordTiming(EvtOutputsGated, uint8(p.ID), 1, 0, 0)
}

// Disable closes the output gate of the whole event manager; every
// compare output of the manager goes high impedance.
func (p *PWMPair) Disable() {
	modify16(p.bank, p.frame()+EV_COMCON, comconFCMPOE.Mask(), 0)
	RecordTiming(EvtOutputsGated, uint8(p.ID), 0, 0, 0)
}

// SetDeadBand solves ns into the manager's dead-band timer and enables it
// for this pair. ns above MaxDeadbandNs is a configuration bug.
func (p *PWMPair) SetDeadBand(ns uint32) error {
	assert(p.cfg.Type != PairSpaceVector, FAULT_BAD_ARGUMENT)
	assert(ns <= MaxDeadbandNs(SysClock()), FAULT_DEADBAND_RANGE)

	code, err := SolveDeadband(ns, SysClock())
	if err != nil {
		RecordTiming(EvtRangeFail, uint8(p.ID), ns, 0, 0)
		return err
	}
	p.db = code
	p.cfg.DeadbandNs = ns
	p.cfg.DeadbandEnabled = true
	p.writeDeadband()
	RecordTiming(EvtDeadband, uint8(p.ID), ns, uint32(code.Period), uint32(code.Prescaler))
	return nil
}

// writeDeadband updates the shared prescaler and period and this pair's
// enable bit of DBTCON.
func (p *PWMPair) writeDeadband() {
	r := p.frame() + EV_DBTCON
	enable := uint8(1) << p.unit()
	mask := dbtconDBTPS.Mask() | dbtconDBT.Mask() | dbtconEDBT.Set(0, uint16(enable))
	modify16(p.bank, r, mask, DeadbandTimer{Code: p.db, Enabled: enable}.Pack())
}

// DisableDeadBand clears this pair's dead-band enable bit.
func (p *PWMPair) DisableDeadBand() {
	enable := uint16(1) << p.unit()
	modify16(p.bank, p.frame()+EV_DBTCON, dbtconEDBT.Set(0, enable), 0)
	p.cfg.DeadbandEnabled = false
}

// Deadband returns the solved dead-band code.
func (p *PWMPair) Deadband() DeadbandCode {
	return p.db
}

// Destroy returns the pins to GPIO, closes the output gate and releases
// the pair.
func (p *PWMPair) Destroy() {
	gpio := NewBankGPIO(p.bank)
	for _, pin := range p.ID.pins() {
		gpio.SetMux(pin, MUX_GPIO)
	}
	p.Disable()
	for _, r := range p.ID.resources() {
		registry.Release(r)
	}
	p.cfg = PairConfig{Type: p.cfg.Type}
	p.db = DeadbandCode{}
}
