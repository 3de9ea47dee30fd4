package core

// Typed register values. Each type packs into the exact word written to
// hardware; the bit positions live in the Field tables below.

var (
	tbctlCtrMode   = Field[uint16]{Shift: 0, Width: 2}
	tbctlPhsEn     = Bit[uint16](2)
	tbctlPrdLd     = Bit[uint16](3)
	tbctlSyncOSel  = Field[uint16]{Shift: 4, Width: 2}
	tbctlHspClkDiv = Field[uint16]{Shift: 7, Width: 3}
	tbctlClkDiv    = Field[uint16]{Shift: 10, Width: 3}
	tbctlPhsDir    = Bit[uint16](13)
	tbctlFreeSoft  = Field[uint16]{Shift: 14, Width: 2}

	cmpctlLoadA = Field[uint16]{Shift: 0, Width: 2}
	cmpctlLoadB = Field[uint16]{Shift: 2, Width: 2}
	cmpctlShdwA = Bit[uint16](4)
	cmpctlShdwB = Bit[uint16](6)

	aqZero   = Field[uint16]{Shift: 0, Width: 2}
	aqPeriod = Field[uint16]{Shift: 2, Width: 2}
	aqCAU    = Field[uint16]{Shift: 4, Width: 2}
	aqCAD    = Field[uint16]{Shift: 6, Width: 2}
	aqCBU    = Field[uint16]{Shift: 8, Width: 2}
	aqCBD    = Field[uint16]{Shift: 10, Width: 2}

	aqsfrcRldcsf = Field[uint16]{Shift: 6, Width: 2}

	dbctlOutMode = Field[uint16]{Shift: 0, Width: 2}
	dbctlPolSel  = Field[uint16]{Shift: 2, Width: 2}
	dbctlInMode  = Field[uint16]{Shift: 4, Width: 2}

	tzselCBC  = Field[uint16]{Shift: 0, Width: 6}
	tzselOSHT = Field[uint16]{Shift: 8, Width: 6}
	tzctlTZA  = Field[uint16]{Shift: 0, Width: 2}
	tzctlTZB  = Field[uint16]{Shift: 2, Width: 2}
	tzeintCBC = Bit[uint16](1)
	tzeintOST = Bit[uint16](2)

	etselIntSel  = Field[uint16]{Shift: 0, Width: 3}
	etselIntEn   = Bit[uint16](3)
	etselSocASel = Field[uint16]{Shift: 8, Width: 3}
	etselSocAEn  = Bit[uint16](11)
	etselSocBSel = Field[uint16]{Shift: 12, Width: 3}
	etselSocBEn  = Bit[uint16](15)
	etpsIntPrd   = Field[uint16]{Shift: 0, Width: 2}
	etpsSocAPrd  = Field[uint16]{Shift: 8, Width: 2}
	etpsSocBPrd  = Field[uint16]{Shift: 12, Width: 2}

	hrcnfgEdgMode = Field[uint16]{Shift: 0, Width: 2}
	hrcnfgCtlMode = Bit[uint16](2)
	hrcnfgHrLoad  = Bit[uint16](3)

	txconSelT1PR   = Bit[uint16](0)
	txconTECMPR    = Bit[uint16](1)
	txconTCLD      = Field[uint16]{Shift: 2, Width: 2}
	txconTCLKS     = Field[uint16]{Shift: 4, Width: 2}
	txconTENABLE   = Bit[uint16](6)
	txconT2SWT1    = Bit[uint16](7)
	txconTPS       = Field[uint16]{Shift: 8, Width: 3}
	txconTMODE     = Field[uint16]{Shift: 11, Width: 2}
	txconFreeSoft  = Field[uint16]{Shift: 14, Width: 2}
	gptconTCMPOE   = Bit[uint16](6)
	comconFCMPOE   = Bit[uint16](9)
	comconACTRLD   = Field[uint16]{Shift: 10, Width: 2}
	comconSVENABLE = Bit[uint16](12)
	comconCLD      = Field[uint16]{Shift: 13, Width: 2}
	comconCENABLE  = Bit[uint16](15)

	dbtconDBTPS = Field[uint16]{Shift: 2, Width: 3}
	dbtconEDBT  = Field[uint16]{Shift: 5, Width: 3}
	dbtconDBT   = Field[uint16]{Shift: 8, Width: 4}
)

// CountMode selects the ePWM time-base counting direction.
type CountMode uint16

const (
	CountUp CountMode = iota
	CountDown
	CountUpDown
	CountFreeze
)

// SyncOut selects the source of a module's EPWMxSYNCO.
type SyncOut uint16

const (
	SyncOutPassThrough SyncOut = iota
	SyncOutCtrZero
	SyncOutCtrCmpB
	SyncOutDisabled
)

// EmulationMode selects counter behaviour on a debugger halt.
type EmulationMode uint16

const (
	EmuStopImmediately EmulationMode = iota
	EmuStopAtPeriod
	EmuFreeRun
)

// TimeBase is the TBCTL register.
type TimeBase struct {
	CountMode       CountMode
	PhaseEnable     bool
	ImmediatePeriod bool // false: TBPRD is shadowed, loaded at zero
	SyncOut         SyncOut
	HSPClkDiv       uint8 // field code, see HSPClkDivLadder
	ClkDiv          uint8 // field code, see ClkDivLadder
	PhaseCountDown  bool
	Emulation       EmulationMode
}

// Pack returns the TBCTL word.
func (t TimeBase) Pack() uint16 {
	var w uint16
	w = tbctlCtrMode.Set(w, uint16(t.CountMode))
	w = tbctlPhsEn.Set(w, boolBits[uint16](t.PhaseEnable))
	w = tbctlPrdLd.Set(w, boolBits[uint16](t.ImmediatePeriod))
	w = tbctlSyncOSel.Set(w, uint16(t.SyncOut))
	w = tbctlHspClkDiv.Set(w, uint16(t.HSPClkDiv))
	w = tbctlClkDiv.Set(w, uint16(t.ClkDiv))
	w = tbctlPhsDir.Set(w, boolBits[uint16](!t.PhaseCountDown))
	w = tbctlFreeSoft.Set(w, uint16(t.Emulation))
	return w
}

// UnpackTimeBase decodes a TBCTL word.
func UnpackTimeBase(w uint16) TimeBase {
	return TimeBase{
		CountMode:       CountMode(tbctlCtrMode.Get(w)),
		PhaseEnable:     tbctlPhsEn.Get(w) != 0,
		ImmediatePeriod: tbctlPrdLd.Get(w) != 0,
		SyncOut:         SyncOut(tbctlSyncOSel.Get(w)),
		HSPClkDiv:       uint8(tbctlHspClkDiv.Get(w)),
		ClkDiv:          uint8(tbctlClkDiv.Get(w)),
		PhaseCountDown:  tbctlPhsDir.Get(w) == 0,
		Emulation:       EmulationMode(tbctlFreeSoft.Get(w)),
	}
}

// LoadMode selects when a shadowed compare register is transferred.
type LoadMode uint16

const (
	LoadOnZero LoadMode = iota
	LoadOnPeriod
	LoadOnZeroOrPeriod
	LoadFreeze
)

// CompareControl is the CMPCTL register.
type CompareControl struct {
	LoadA      LoadMode
	LoadB      LoadMode
	ImmediateA bool
	ImmediateB bool
}

// Pack returns the CMPCTL word.
func (c CompareControl) Pack() uint16 {
	var w uint16
	w = cmpctlLoadA.Set(w, uint16(c.LoadA))
	w = cmpctlLoadB.Set(w, uint16(c.LoadB))
	w = cmpctlShdwA.Set(w, boolBits[uint16](c.ImmediateA))
	w = cmpctlShdwB.Set(w, boolBits[uint16](c.ImmediateB))
	return w
}

// AQAction is the pin action taken on a counter event.
type AQAction uint16

const (
	AQNone AQAction = iota
	AQForceLow
	AQForceHigh
	AQToggle
)

// ActionTable is one of AQCTLA / AQCTLB.
type ActionTable struct {
	Zero, Period AQAction
	CAU, CAD     AQAction
	CBU, CBD     AQAction
}

// Pack returns the AQCTLx word.
func (a ActionTable) Pack() uint16 {
	var w uint16
	w = aqZero.Set(w, uint16(a.Zero))
	w = aqPeriod.Set(w, uint16(a.Period))
	w = aqCAU.Set(w, uint16(a.CAU))
	w = aqCAD.Set(w, uint16(a.CAD))
	w = aqCBU.Set(w, uint16(a.CBU))
	w = aqCBD.Set(w, uint16(a.CBD))
	return w
}

// DBOutMode selects which edges the dead-band unit delays.
type DBOutMode uint16

const (
	DBBypass DBOutMode = iota
	DBFallingOnly
	DBRisingOnly
	DBFull
)

// DBPolarity selects output inversion after the dead-band delay.
type DBPolarity uint16

const (
	DBActiveHigh DBPolarity = iota
	DBActiveLowComplementary
	DBActiveHighComplementary
	DBActiveLow
)

// DeadbandControl is the DBCTL register.
type DeadbandControl struct {
	Output   DBOutMode
	Polarity DBPolarity
	Input    uint16
}

// Pack returns the DBCTL word.
func (d DeadbandControl) Pack() uint16 {
	var w uint16
	w = dbctlOutMode.Set(w, uint16(d.Output))
	w = dbctlPolSel.Set(w, uint16(d.Polarity))
	w = dbctlInMode.Set(w, d.Input)
	return w
}

// TZAction is the forced output state on a trip event.
type TZAction uint8

const (
	TZNoAction TZAction = iota
	TZHighZ
	TZForceHigh
	TZForceLow
)

// tzActionCodes maps TZAction to the TZCTL field encoding.
var tzActionCodes = [...]uint16{
	TZNoAction:  3,
	TZHighZ:     0,
	TZForceHigh: 1,
	TZForceLow:  2,
}

// TripZoneSet is a bitmask of trip inputs, bit n = TZ(n+1).
type TripZoneSet uint8

// TZ returns the set holding only trip zone n (1..6).
func TZ(n uint8) TripZoneSet {
	return TripZoneSet(1) << (n - 1)
}

// TripZone configures TZSEL, TZCTL and TZEINT.
type TripZone struct {
	OneShot      TripZoneSet
	CycleByCycle TripZoneSet
	ActionA      TZAction
	ActionB      TZAction
	IntOneShot   bool
	IntCBC       bool
}

// Pack returns the TZSEL, TZCTL and TZEINT words.
func (t TripZone) Pack() (sel, ctl, eint uint16) {
	sel = tzselCBC.Set(sel, uint16(t.CycleByCycle))
	sel = tzselOSHT.Set(sel, uint16(t.OneShot))
	ctl = tzctlTZA.Set(ctl, tzActionCodes[t.ActionA])
	ctl = tzctlTZB.Set(ctl, tzActionCodes[t.ActionB])
	eint = tzeintCBC.Set(eint, boolBits[uint16](t.IntCBC))
	eint = tzeintOST.Set(eint, boolBits[uint16](t.IntOneShot))
	return sel, ctl, eint
}

// ETSelect is the counter event feeding an event-trigger output.
type ETSelect uint16

const (
	ETCtrZero     ETSelect = 1
	ETCtrPeriod   ETSelect = 2
	ETCtrUpCmpA   ETSelect = 4
	ETCtrDownCmpA ETSelect = 5
	ETCtrUpCmpB   ETSelect = 6
	ETCtrDownCmpB ETSelect = 7
)

// EventTrigger configures ETSEL and ETPS. Prescale values are "every Nth
// event" (1..3); 0 leaves the output prescaler disabled.
type EventTrigger struct {
	Int, SOCA, SOCB                   ETSelect
	IntEnable, SOCAEnable, SOCBEnable bool
	IntEvery, SOCAEvery, SOCBEvery    uint8
}

// Pack returns the ETSEL and ETPS words.
func (e EventTrigger) Pack() (sel, ps uint16) {
	sel = etselIntSel.Set(sel, uint16(e.Int))
	sel = etselIntEn.Set(sel, boolBits[uint16](e.IntEnable))
	sel = etselSocASel.Set(sel, uint16(e.SOCA))
	sel = etselSocAEn.Set(sel, boolBits[uint16](e.SOCAEnable))
	sel = etselSocBSel.Set(sel, uint16(e.SOCB))
	sel = etselSocBEn.Set(sel, boolBits[uint16](e.SOCBEnable))
	ps = etpsIntPrd.Set(ps, uint16(e.IntEvery))
	ps = etpsSocAPrd.Set(ps, uint16(e.SOCAEvery))
	ps = etpsSocBPrd.Set(ps, uint16(e.SOCBEvery))
	return sel, ps
}

// TimerCountMode is the TxCON TMODE field of an event-manager timer.
type TimerCountMode uint16

const (
	TimerStopHold TimerCountMode = iota
	TimerContUpDown
	TimerContUp
	TimerDirUpDown
)

// TimerClock is the TxCON TCLKS clock source.
type TimerClock uint16

const (
	ClockInternal TimerClock = 0
	ClockExternal TimerClock = 1
	ClockQEP      TimerClock = 3
)

// CompareReload selects when a shadowed compare value becomes active.
type CompareReload uint16

const (
	ReloadOnZero CompareReload = iota
	ReloadOnZeroOrPeriod
	ReloadImmediate
)

// TimerControl is the TxCON register of an event-manager timer.
type TimerControl struct {
	Mode             TimerCountMode
	Prescale         uint8 // ladder index
	Enable           bool
	Clock            TimerClock
	Reload           CompareReload
	CompareEnable    bool
	StartWithMaster  bool // T2SWT1 / T4SWT3
	PeriodFromMaster bool // SELT1PR / SELT3PR
	Emulation        EmulationMode
}

// Pack returns the TxCON word.
func (c TimerControl) Pack() uint16 {
	var w uint16
	w = txconSelT1PR.Set(w, boolBits[uint16](c.PeriodFromMaster))
	w = txconTECMPR.Set(w, boolBits[uint16](c.CompareEnable))
	w = txconTCLD.Set(w, uint16(c.Reload))
	w = txconTCLKS.Set(w, uint16(c.Clock))
	w = txconTENABLE.Set(w, boolBits[uint16](c.Enable))
	w = txconT2SWT1.Set(w, boolBits[uint16](c.StartWithMaster))
	w = txconTPS.Set(w, uint16(c.Prescale))
	w = txconTMODE.Set(w, uint16(c.Mode))
	w = txconFreeSoft.Set(w, uint16(c.Emulation))
	return w
}

// UnpackTimerControl decodes a TxCON word.
func UnpackTimerControl(w uint16) TimerControl {
	return TimerControl{
		Mode:             TimerCountMode(txconTMODE.Get(w)),
		Prescale:         uint8(txconTPS.Get(w)),
		Enable:           txconTENABLE.Get(w) != 0,
		Clock:            TimerClock(txconTCLKS.Get(w)),
		Reload:           CompareReload(txconTCLD.Get(w)),
		CompareEnable:    txconTECMPR.Get(w) != 0,
		StartWithMaster:  txconT2SWT1.Get(w) != 0,
		PeriodFromMaster: txconSelT1PR.Get(w) != 0,
		Emulation:        EmulationMode(txconFreeSoft.Get(w)),
	}
}

// CompareUnit is the COMCONx register of an event manager.
type CompareUnit struct {
	Enable         bool
	Reload         CompareReload
	SpaceVector    bool
	ActionReload   CompareReload
	OutputsEnabled bool // FCMPOE, the manager-wide output gate
}

// Pack returns the COMCON word.
func (c CompareUnit) Pack() uint16 {
	var w uint16
	w = comconFCMPOE.Set(w, boolBits[uint16](c.OutputsEnabled))
	w = comconACTRLD.Set(w, uint16(c.ActionReload))
	w = comconSVENABLE.Set(w, boolBits[uint16](c.SpaceVector))
	w = comconCLD.Set(w, uint16(c.Reload))
	w = comconCENABLE.Set(w, boolBits[uint16](c.Enable))
	return w
}

// Polarity is a 2-bit compare output action in ACTR and GPTCON.
type Polarity uint16

const (
	PolarityForcedLow Polarity = iota
	PolarityActiveLow
	PolarityActiveHigh
	PolarityForcedHigh
)

// actrField returns the ACTR field for compare output n (0..5).
func actrField(n uint8) Field[uint16] {
	return Field[uint16]{Shift: n * 2, Width: 2}
}

// DeadbandTimer is the DBTCON register of an event manager.
type DeadbandTimer struct {
	Code    DeadbandCode
	Enabled uint8 // EDBT1..EDBT3 as bits 0..2
}

// Pack returns the DBTCON word.
func (d DeadbandTimer) Pack() uint16 {
	var w uint16
	w = dbtconDBTPS.Set(w, uint16(d.Code.Prescaler))
	w = dbtconEDBT.Set(w, uint16(d.Enabled))
	w = dbtconDBT.Set(w, uint16(d.Code.Period))
	return w
}

// UnpackDeadbandTimer decodes a DBTCON word.
func UnpackDeadbandTimer(w uint16) DeadbandTimer {
	return DeadbandTimer{
		Code: DeadbandCode{
			Prescaler: uint8(dbtconDBTPS.Get(w)),
			Period:    uint8(dbtconDBT.Get(w)),
		},
		Enabled: uint8(dbtconEDBT.Get(w)),
	}
}
