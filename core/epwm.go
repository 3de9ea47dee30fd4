package core

import "errors"

// ErrUnsupported is returned for an operation the module hardware lacks.
var ErrUnsupported = errors.New("operation not supported by this module")

// PWMModuleID identifies an ePWM module.
type PWMModuleID uint8

const (
	PWM1 PWMModuleID = iota
	PWM2
	PWM3
	PWM4
	PWM5
	PWM6
	PWM_MODULE_COUNT
)

// ePWM limits
const (
	EPWM_DEADBAND_MAX_TICKS = 0x3FF // DBRED/DBFED are 10 bit
	EPWM_TZ_FIRST_PIN       = 12    // TZ1..TZ6 are GPIO12..GPIO17
)

// PWMEvent selects one event-trigger output.
type PWMEvent uint8

const (
	EventInt PWMEvent = iota
	EventSOCA
	EventSOCB
)

// PinConfig is the use and disable policy of one module output.
type PinConfig struct {
	Mode   PinMode
	Policy DisableMode
}

// Topology is the full construction-time configuration of an ePWM module.
type Topology struct {
	TimeBase TimeBase

	// FrequencyHz is solved into TBPRD and CLKDIV. When zero, Period is
	// written as is and TimeBase.ClkDiv is kept.
	FrequencyHz uint32
	Period      uint16

	Compare          CompareControl
	CompareA         uint16
	CompareB         uint16
	ActionA, ActionB ActionTable

	Deadband  DeadbandControl
	RisingNs  uint32
	FallingNs uint32

	TripZone TripZone
	Event    EventTrigger

	PinA, PinB PinConfig

	// HighRes enables micro edge positioning on compare A.
	HighRes bool

	// Complementary marks the low side of a half bridge. Compare A is
	// seeded past the period so the output cannot fire before the first
	// SetCompareA. Both sides of a half bridge run the same frequency and
	// count mode, so the module's own period equals the high side's.
	Complementary bool
}

// PWMModule controls one ePWM module.
type PWMModule struct {
	ID       PWMModuleID
	bank     RegisterBank
	topo     Topology
	pins     [2]*PinPolicy
	period   uint16
	clkDiv   uint8
	mepSteps uint16
	red, fed DeadbandCode
	outputs  bool
}

func pwmResource(id PWMModuleID) Resource {
	return ResPWM1 + Resource(id)
}

// PWMPin returns the GPIO of output A (b false) or B of module id.
func PWMPin(id PWMModuleID, b bool) GPIOPin {
	p := GPIOPin(id) * 2
	if b {
		p++
	}
	return p
}

// SolveTimeBase resolves hz into a TBPRD value and CLKDIV code for the
// count mode and high-speed divider of tb.
func SolveTimeBase(hz uint32, tb TimeBase) (Resolution, error) {
	return SolveTimeBaseAt(hz, SysClock(), tb)
}

// SolveTimeBaseAt is SolveTimeBase for an explicit SYSCLK.
func SolveTimeBaseAt(hz, sysclkHz uint32, tb TimeBase) (Resolution, error) {
	assert(int(tb.HSPClkDiv) < len(HSPClkDivLadder), FAULT_BAD_ARGUMENT)
	source := sysclkHz / uint32(HSPClkDivLadder[tb.HSPClkDiv])
	if tb.CountMode == CountUpDown {
		if hz > source/2 {
			return Resolution{}, ErrOutOfRange
		}
		r, err := SolvePeriod(hz*2, source, TIMER_MAX_COUNT, ClkDivLadder)
		if err != nil {
			return r, err
		}
		r.Period++
		return r, nil
	}
	return SolvePeriod(hz, source, TIMER_MAX_COUNT, ClkDivLadder)
}

// ConstructPWM claims module id and configures every sub-block from t.
// Range errors are reported before anything is claimed or written.
func ConstructPWM(bank RegisterBank, id PWMModuleID, t Topology) (*PWMModule, error) {
	assert(id < PWM_MODULE_COUNT, FAULT_BAD_CHANNEL)
	assert(!t.HighRes || id < PWM_HIRES_MODULES, FAULT_NO_HIRES)

	m := &PWMModule{
		ID:     id,
		bank:   bank,
		topo:   t,
		period: t.Period,
		clkDiv: t.TimeBase.ClkDiv,
	}
	if t.FrequencyHz != 0 {
		r, err := SolveTimeBase(t.FrequencyHz, t.TimeBase)
		if err != nil {
			RecordTiming(EvtRangeFail, uint8(id), t.FrequencyHz, 0, 0)
			return nil, err
		}
		m.period = r.Period
		m.clkDiv = r.Prescaler
	}
	var err error
	if m.red, err = SolveDeadband(t.RisingNs, SysClock()); err != nil {
		return nil, err
	}
	if m.fed, err = SolveDeadband(t.FallingNs, SysClock()); err != nil {
		return nil, err
	}
	if t.HighRes {
		m.mepSteps = MEPSteps(SysClock())
	}

	registry.Claim(pwmResource(id), m)

	protected(bank, func() {
		modify16(bank, regPCLKCR1, 0, 1<<id)
	})
	m.writeTimeBase()
	m.writeCompare()
	m.writeActions()
	m.writeDeadband()
	m.writeTripZone()
	m.writeEventTrigger()
	if t.HighRes {
		m.writeHighRes()
	}

	gpio := NewBankGPIO(bank)
	m.pins[0] = NewPinPolicy(gpio, PWMPin(id, false), t.PinA.Mode, t.PinA.Policy)
	m.pins[1] = NewPinPolicy(gpio, PWMPin(id, true), t.PinB.Mode, t.PinB.Policy)
	for _, p := range m.pins {
		p.Configure()
	}
	m.muxTripInputs(gpio)
	m.outputs = true
	return m, nil
}

// SyncTimeBases starts the time-base clocks of every constructed module
// together. Call it once after the last ConstructPWM.
func SyncTimeBases(bank RegisterBank) {
	protected(bank, func() {
		modify16(bank, regPCLKCR0, 0, PCLKCR0_TBCLKSYNC)
	})
}

func (m *PWMModule) reg(off Reg) Reg {
	return epwmReg(m.ID, off)
}

// Topology returns the construction-time configuration.
func (m *PWMModule) Topology() Topology {
	return m.topo
}

// Pin returns the disable policy of output A (b false) or B.
func (m *PWMModule) Pin(b bool) *PinPolicy {
	if b {
		return m.pins[1]
	}
	return m.pins[0]
}

// SetDutyPair writes both compare registers and nothing else. Safe from
// interrupt context.
func (m *PWMModule) SetDutyPair(a, b uint16) {
	m.bank.Write16(m.reg(EPWM_CMPA), a)
	m.bank.Write16(m.reg(EPWM_CMPB), b)
}

// SetCompareA writes CMPA.
func (m *PWMModule) SetCompareA(v uint16) {
	m.bank.Write16(m.reg(EPWM_CMPA), v)
}

// SetCompareB writes CMPB.
func (m *PWMModule) SetCompareB(v uint16) {
	m.bank.Write16(m.reg(EPWM_CMPB), v)
}

// SetCompareAandB is SetDutyPair under its register name.
func (m *PWMModule) SetCompareAandB(a, b uint16) {
	m.SetDutyPair(a, b)
}

// CompareA reads CMPA.
func (m *PWMModule) CompareA() uint16 {
	return m.bank.Read16(m.reg(EPWM_CMPA))
}

// CompareB reads CMPB.
func (m *PWMModule) CompareB() uint16 {
	return m.bank.Read16(m.reg(EPWM_CMPB))
}

// SetCompareAHighRes writes compare A in micro steps through the 32-bit
// CMPA:CMPAHR view. The module must have been built with HighRes.
func (m *PWMModule) SetCompareAHighRes(target uint32) {
	assert(m.topo.HighRes, FAULT_NO_HIRES)
	m.bank.Write32(m.reg(EPWM_CMPAHR), EncodeDutyHighRes(target, m.mepSteps).Pack())
}

// SetCompareAandBHighRes writes compare A in micro steps and compare B in
// coarse ticks.
func (m *PWMModule) SetCompareAandBHighRes(a uint32, b uint16) {
	m.SetCompareAHighRes(a)
	m.bank.Write16(m.reg(EPWM_CMPB), b)
}

// CompareAHighRes reads compare A back in micro steps.
func (m *PWMModule) CompareAHighRes() (uint32, error) {
	if !m.topo.HighRes {
		return 0, ErrUnsupported
	}
	v := m.bank.Read32(m.reg(EPWM_CMPAHR))
	return DecodeDutyHighRes(UnpackMicroStep(v), m.mepSteps), nil
}

// MEPSteps returns the micro steps per coarse tick, zero without HighRes.
func (m *PWMModule) MEPSteps() uint16 {
	return m.mepSteps
}

// MaxCompare returns TBPRD. A compare value above it never matches.
func (m *PWMModule) MaxCompare() uint16 {
	return m.bank.Read16(m.reg(EPWM_TBPRD))
}

// MaxCompareHighRes is MaxCompare in micro steps.
func (m *PWMModule) MaxCompareHighRes() (uint32, error) {
	if !m.topo.HighRes {
		return 0, ErrUnsupported
	}
	return uint32(m.MaxCompare()) * uint32(m.mepSteps), nil
}

// Period returns the resolved TBPRD and CLKDIV code.
func (m *PWMModule) Period() Resolution {
	return Resolution{Prescaler: m.clkDiv, Period: m.period}
}

// SetFrequency re-solves the time base for hz and rewrites TBPRD and the
// CLKDIV field. On a range error nothing is written.
func (m *PWMModule) SetFrequency(hz uint32) error {
	r, err := SolveTimeBase(hz, m.topo.TimeBase)
	if err != nil {
		RecordTiming(EvtRangeFail, uint8(m.ID), hz, 0, 0)
		return err
	}
	m.period = r.Period
	m.clkDiv = r.Prescaler
	modify16(m.bank, m.reg(EPWM_TBCTL), tbctlClkDiv.Mask(), tbctlClkDiv.Set(0, uint16(r.Prescaler)))
	m.bank.Write16(m.reg(EPWM_TBPRD), r.Period)
	RecordTiming(EvtPeriodSet, uint8(m.ID), hz, uint32(r.Period), uint32(r.Prescaler))
	return nil
}

// SetDeadband re-derives the rising and falling edge delay for ns and
// rewrites only the dead-band counters. On a range error nothing is
// written.
func (m *PWMModule) SetDeadband(ns uint32) error {
	code, err := SolveDeadband(ns, SysClock())
	if err != nil {
		RecordTiming(EvtRangeFail, uint8(m.ID), ns, 0, 0)
		return err
	}
	m.red, m.fed = code, code
	m.bank.Write16(m.reg(EPWM_DBRED), uint16(code.Ticks()))
	m.bank.Write16(m.reg(EPWM_DBFED), uint16(code.Ticks()))
	RecordTiming(EvtDeadband, uint8(m.ID), ns, uint32(code.Period), uint32(code.Prescaler))
	return nil
}

// Deadband returns the rising and falling edge delays in ticks.
func (m *PWMModule) Deadband() (red, fed uint32) {
	return m.red.Ticks(), m.fed.Ticks()
}

// SetDeadbands sets the rising edge delays of a half bridge: hiNs on m
// (the high side) and loNs on low. The low side's compare B is moved to
// its period minus the high side delay so it stays clear of the high side
// edge. Both values are solved before either module is touched, and a
// high side delay longer than the low side period is out of range.
func (m *PWMModule) SetDeadbands(low *PWMModule, hiNs, loNs uint32) error {
	hi, err := SolveDeadband(hiNs, SysClock())
	if err != nil {
		return err
	}
	lo, err := SolveDeadband(loNs, SysClock())
	if err != nil {
		return err
	}
	if hi.Ticks() > uint32(low.period) {
		RecordTiming(EvtRangeFail, uint8(m.ID), hiNs, uint32(low.period), uint32(low.ID))
		return ErrOutOfRange
	}
	m.red = hi
	low.red = lo
	m.bank.Write16(m.reg(EPWM_DBRED), uint16(hi.Ticks()))
	low.bank.Write16(low.reg(EPWM_CMPB), low.period-uint16(hi.Ticks()))
	low.bank.Write16(low.reg(EPWM_DBRED), uint16(lo.Ticks()))
	RecordTiming(EvtDeadband, uint8(m.ID), hiNs, loNs, uint32(low.ID))
	return nil
}

// DisableOutputs moves both pins to their disabled GPIO state. Pins not
// used for PWM are left alone.
func (m *PWMModule) DisableOutputs() {
	for _, p := range m.pins {
		if p.Mode == PinModePWM {
			p.disable()
		}
	}
	m.outputs = false
}

// EnableOutputs hands both PWM pins back to the module.
func (m *PWMModule) EnableOutputs() {
	for _, p := range m.pins {
		if p.Mode == PinModePWM {
			p.enable()
		}
	}
	m.outputs = true
}

// OutputsEnabled reports the state of the module output gate.
func (m *PWMModule) OutputsEnabled() bool {
	return m.outputs
}

// EnableEvent sets the enable bit of an event-trigger output. The event
// source and prescale come from the topology.
func (m *PWMModule) EnableEvent(ev PWMEvent) {
	m.setEvent(ev, true)
}

// DisableEvent clears the enable bit of an event-trigger output.
func (m *PWMModule) DisableEvent(ev PWMEvent) {
	m.setEvent(ev, false)
}

// ClearEventFlag acknowledges the module interrupt.
func (m *PWMModule) ClearEventFlag() {
	m.bank.Write16(m.reg(EPWM_ETCLR), 1)
}

// Destroy gates the outputs, returns the pins to GPIO, stops the module
// clock and releases the module.
func (m *PWMModule) Destroy() {
	m.DisableOutputs()
	for _, p := range m.pins {
		p.release()
	}
	m.bank.Write16(m.reg(EPWM_ETSEL), 0)
	protected(m.bank, func() {
		modify16(m.bank, regPCLKCR1, 1<<m.ID, 0)
	})
	registry.Release(pwmResource(m.ID))
}
