package core

// TimerID identifies an event-manager general-purpose timer.
type TimerID uint8

const (
	Timer1 TimerID = iota
	Timer2
	Timer3
	Timer4
	TIMER_COUNT
)

// CompareOutput selects the timer compare output pin behaviour.
type CompareOutput uint8

const (
	OutNone CompareOutput = iota
	OutForceLow
	OutActiveLow
	OutActiveHigh
	OutForceHigh
)

// AdcStart selects the timer event that starts an ADC conversion.
type AdcStart uint8

const (
	AdcNone AdcStart = iota
	AdcUnderflow
	AdcPeriod
	AdcCompare
)

// SyncMode selects how a slave timer follows its master.
type SyncMode uint8

const (
	SyncNone SyncMode = iota
	SyncPeriod
	SyncStart
	SyncPeriodStart
)

// timerHW describes one timer. Everything that differs between the four
// timers lives in this one table.
type timerHW struct {
	frame    Reg    // event manager base
	block    Reg    // TxCNT offset inside the frame
	imr, ifr Reg    // interrupt mask/flag register offsets
	intShift uint8  // position of the PINT bit in imr/ifr
	pinShift uint8  // GPTCON TxPIN
	adcShift uint8  // GPTCON TxTOADC
	clkEn    uint16 // PCLKCR0 enable bit of the event manager
	pin      GPIOPin
	master   TimerID // sync partner (self for masters)
	slave    bool
}

var timerTable = [TIMER_COUNT]timerHW{
	Timer1: {frame: evaBase, block: EV_T1CNT, imr: EV_IMRA, ifr: EV_IFRA, intShift: 7, pinShift: 0, adcShift: 7, clkEn: PCLKCR0_EVAENCLK, pin: 18, master: Timer1},
	Timer2: {frame: evaBase, block: EV_T1CNT + evSlaveStride, imr: EV_IMRB, ifr: EV_IFRB, intShift: 0, pinShift: 2, adcShift: 9, clkEn: PCLKCR0_EVAENCLK, pin: 19, master: Timer1, slave: true},
	Timer3: {frame: evbBase, block: EV_T1CNT, imr: EV_IMRA, ifr: EV_IFRA, intShift: 7, pinShift: 0, adcShift: 7, clkEn: PCLKCR0_EVBENCLK, pin: 20, master: Timer3},
	Timer4: {frame: evbBase, block: EV_T1CNT + evSlaveStride, imr: EV_IMRB, ifr: EV_IFRB, intShift: 0, pinShift: 2, adcShift: 9, clkEn: PCLKCR0_EVBENCLK, pin: 21, master: Timer3, slave: true},
}

// Register addresses of one timer block
func (h *timerHW) cnt() Reg  { return h.frame + h.block }
func (h *timerHW) cmpr() Reg { return h.frame + h.block + 1 }
func (h *timerHW) pr() Reg   { return h.frame + h.block + 2 }
func (h *timerHW) con() Reg  { return h.frame + h.block + 3 }

func timerResource(id TimerID) Resource {
	return ResTimer1 + Resource(id)
}

// TimerConfig is the construction-time configuration of a timer channel.
type TimerConfig struct {
	Function    FunctionTag
	CountMode   TimerCountMode
	Interrupt   TimerInterrupt
	Output      CompareOutput
	Adc         AdcStart
	Emulation   EmulationMode
	Reload      CompareReload
	Clock       TimerClock
	Sync        SyncMode
	FrequencyHz uint32
	DutyPct100  uint16 // duty in hundredths of a percent, 0..10000
}

// TimerState is the lifecycle state of a timer channel.
type TimerState uint8

const (
	TimerUninitialized TimerState = iota
	TimerHeld
	TimerRunning
)

// periodCell holds a resolved period. A period-synced slave points at
// its master's cell instead of its own.
type periodCell struct {
	res   Resolution // Period is the TxPR register value
	hz    uint32
	owner *TimerChannel
}

// TimerChannel controls one event-manager timer.
type TimerChannel struct {
	ID     TimerID
	hw     *timerHW
	bank   RegisterBank
	cfg    TimerConfig
	own    periodCell
	prd    *periodCell
	cmp    uint16
	ints   TimerInterrupt // enabled sources
	state  TimerState
	events EventCounters
}

// NewTimerChannel claims the timer assigned to cfg.Function and leaves it
// held with its registers zeroed. Claiming a timer twice aborts.
func NewTimerChannel(bank RegisterBank, cfg TimerConfig) *TimerChannel {
	assert(cfg.Function < FUNCTION_COUNT, FAULT_BAD_ARGUMENT)
	assert(cfg.CountMode <= TimerDirUpDown, FAULT_BAD_ARGUMENT)
	assert(cfg.Output <= OutForceHigh, FAULT_BAD_ARGUMENT)
	assert(cfg.DutyPct100 <= 10000, FAULT_BAD_ARGUMENT)

	id := functionTimer[cfg.Function]
	tc := &TimerChannel{
		ID:   id,
		hw:   &timerTable[id],
		bank: bank,
		cfg:  cfg,
	}
	tc.own.owner = tc
	tc.prd = &tc.own

	if cfg.Sync != SyncNone {
		assert(tc.hw.slave, FAULT_BAD_ARGUMENT)
		master, _ := registry.Owner(timerResource(tc.hw.master)).(*TimerChannel)
		assert(master != nil, FAULT_NO_SYNC_PARTNER)
		if cfg.Sync == SyncPeriod || cfg.Sync == SyncPeriodStart {
			tc.prd = master.prd
		}
	}

	registry.Claim(timerResource(id), tc)

	protected(bank, func() {
		modify16(bank, regPCLKCR0, 0, tc.hw.clkEn)
	})
	bank.Write16(tc.hw.con(), 0)
	bank.Write16(tc.hw.cnt(), 0)
	bank.Write16(tc.hw.cmpr(), 0)
	bank.Write16(tc.hw.pr(), 0)
	tc.state = TimerHeld
	return tc
}

// State returns the lifecycle state.
func (tc *TimerChannel) State() TimerState {
	return tc.state
}

// Config returns the construction-time configuration.
func (tc *TimerChannel) Config() TimerConfig {
	return tc.cfg
}

// SolveTimerPeriod converts hz into a TxPR value and prescaler for mode.
func SolveTimerPeriod(hz uint32, mode TimerCountMode) (Resolution, error) {
	upDown := mode == TimerContUpDown || mode == TimerDirUpDown
	target := hz
	if upDown {
		if hz > SysClock()/2 {
			return Resolution{}, ErrOutOfRange
		}
		target *= 2
	}
	r, err := SolvePeriod(target, SysClock(), TIMER_MAX_COUNT, ClkDivLadder)
	if err != nil {
		return r, err
	}
	if upDown {
		// up/down counts 0..TxPR..0, so TxPR is the half period itself
		r.Period++
	}
	if r.Period < TIMER_MIN_COUNT {
		return Resolution{}, ErrOutOfRange
	}
	return r, nil
}

func (tc *TimerChannel) control(enable bool) TimerControl {
	sync := tc.cfg.Sync
	return TimerControl{
		Mode:             tc.cfg.CountMode,
		Prescale:         tc.prd.res.Prescaler,
		Enable:           enable,
		Clock:            tc.cfg.Clock,
		Reload:           tc.cfg.Reload,
		CompareEnable:    tc.cfg.Output != OutNone,
		StartWithMaster:  sync == SyncStart || sync == SyncPeriodStart,
		PeriodFromMaster: sync == SyncPeriod || sync == SyncPeriodStart,
		Emulation:        tc.cfg.Emulation,
	}
}

// Start resolves the configured frequency, programs the timer and sets
// the enable bit. On a range error nothing is written.
func (tc *TimerChannel) Start() error {
	assert(tc.state != TimerUninitialized, FAULT_NOT_CLAIMED)

	if tc.prd == &tc.own {
		r, err := SolveTimerPeriod(tc.cfg.FrequencyHz, tc.cfg.CountMode)
		if err != nil {
			RecordTiming(EvtRangeFail, uint8(tc.ID), tc.cfg.FrequencyHz, 0, 0)
			return err
		}
		tc.own.res = r
		tc.own.hz = tc.cfg.FrequencyHz
	}

	b := tc.bank
	b.Write16(tc.hw.cnt(), 0)
	b.Write16(tc.hw.con(), tc.control(false).Pack())
	tc.writeGPTCON()
	if tc.prd == &tc.own {
		b.Write16(tc.hw.pr(), tc.own.res.Period)
	}
	tc.cmp = tc.compareFor(tc.cfg.DutyPct100)
	b.Write16(tc.hw.cmpr(), tc.cmp)
	if tc.cfg.Interrupt != IntNone {
		tc.EnableInterrupt(tc.cfg.Interrupt)
	}
	modify16(b, tc.hw.con(), 0, txconTENABLE.Mask())

	tc.state = TimerRunning
	RecordTiming(EvtTimerStart, uint8(tc.ID), uint32(tc.prd.res.Period), uint32(tc.prd.res.Prescaler), 0)
	return nil
}

// writeGPTCON programs the compare output polarity and ADC start source.
func (tc *TimerChannel) writeGPTCON() {
	r := tc.hw.frame + EV_GPTCON
	pin := Field[uint16]{Shift: tc.hw.pinShift, Width: 2}
	adc := Field[uint16]{Shift: tc.hw.adcShift, Width: 2}

	w := tc.bank.Read16(r)
	w = adc.Set(w, uint16(tc.cfg.Adc))
	if tc.cfg.Output != OutNone {
		w = pin.Set(w, uint16(tc.cfg.Output-1))
		w = gptconTCMPOE.Set(w, 1)
	}
	tc.bank.Write16(r, w)

	if tc.cfg.Output != OutNone {
		NewBankGPIO(tc.bank).SetMux(tc.hw.pin, MUX_PERIPHERAL)
	}
}

// Hold clears the enable bit only; the count is retained.
func (tc *TimerChannel) Hold() {
	assert(tc.state != TimerUninitialized, FAULT_NOT_CLAIMED)
	modify16(tc.bank, tc.hw.con(), txconTENABLE.Mask(), 0)
	tc.state = TimerHeld
	RecordTiming(EvtTimerHold, uint8(tc.ID), 0, 0, 0)
}

// Resume sets the enable bit again without reloading anything.
func (tc *TimerChannel) Resume() {
	assert(tc.state != TimerUninitialized, FAULT_NOT_CLAIMED)
	modify16(tc.bank, tc.hw.con(), 0, txconTENABLE.Mask())
	tc.state = TimerRunning
	RecordTiming(EvtTimerResume, uint8(tc.ID), 0, 0, 0)
}

// Stop holds the timer and zeroes its counter.
func (tc *TimerChannel) Stop() {
	tc.Hold()
	tc.bank.Write16(tc.hw.cnt(), 0)
	RecordTiming(EvtTimerStop, uint8(tc.ID), 0, 0, 0)
}

// Destroy stops the timer, disables its interrupts and releases it.
func (tc *TimerChannel) Destroy() {
	tc.Stop()
	tc.DisableInterrupt(IntAll)
	registry.Release(timerResource(tc.ID))
	tc.state = TimerUninitialized
}

// SetFrequency re-solves the period for hz and writes period and
// prescaler. A period-synced slave writes through to its master.
func (tc *TimerChannel) SetFrequency(hz uint32) error {
	assert(tc.state != TimerUninitialized, FAULT_NOT_CLAIMED)

	owner := tc.prd.owner
	r, err := SolveTimerPeriod(hz, owner.cfg.CountMode)
	if err != nil {
		RecordTiming(EvtRangeFail, uint8(tc.ID), hz, 0, 0)
		return err
	}
	owner.SetPeriodFast(r)
	tc.prd.hz = hz
	RecordTiming(EvtPeriodSet, uint8(owner.ID), hz, uint32(r.Period), uint32(r.Prescaler))
	return nil
}

// SetPeriodFast writes an already solved period and prescaler.
func (tc *TimerChannel) SetPeriodFast(r Resolution) {
	assert(int(r.Prescaler) < len(ClkDivLadder), FAULT_BAD_ARGUMENT)
	owner := tc.prd.owner
	owner.own.res = r
	owner.bank.Write16(owner.hw.pr(), r.Period)
	modify16(owner.bank, owner.hw.con(), txconTPS.Mask(), txconTPS.Set(0, uint16(r.Prescaler)))
}

// Period returns the resolved period and prescaler. For a period-synced
// slave this is the master's value.
func (tc *TimerChannel) Period() Resolution {
	return tc.prd.res
}

// FrequencyHz returns the frequency the period was last solved for.
func (tc *TimerChannel) FrequencyHz() uint32 {
	return tc.prd.hz
}

func (tc *TimerChannel) compareFor(dutyPct100 uint16) uint16 {
	return uint16(uint32(tc.prd.res.Period) * uint32(dutyPct100) / 10000)
}

// SetCompare sets the compare register to dutyPct100/100 percent of the
// period.
func (tc *TimerChannel) SetCompare(dutyPct100 uint16) {
	assert(dutyPct100 <= 10000, FAULT_BAD_ARGUMENT)
	tc.cfg.DutyPct100 = dutyPct100
	tc.cmp = tc.compareFor(dutyPct100)
	tc.bank.Write16(tc.hw.cmpr(), tc.cmp)
}

// SetDelay writes the compare register directly in ticks.
func (tc *TimerChannel) SetDelay(ticks uint16) {
	tc.cmp = ticks
	tc.bank.Write16(tc.hw.cmpr(), ticks)
}

// Compare returns the last compare value written.
func (tc *TimerChannel) Compare() uint16 {
	return tc.cmp
}

// Counter reads the live counter register.
func (tc *TimerChannel) Counter() uint16 {
	return tc.bank.Read16(tc.hw.cnt())
}

func (tc *TimerChannel) intBits(src TimerInterrupt) uint16 {
	return uint16(src&IntAll) << tc.hw.intShift
}

// EnableInterrupt clears any stale flag of src and unmasks it.
func (tc *TimerChannel) EnableInterrupt(src TimerInterrupt) {
	bits := tc.intBits(src)
	tc.bank.Write16(tc.hw.frame+tc.hw.ifr, bits)
	modify16(tc.bank, tc.hw.frame+tc.hw.imr, 0, bits)
	tc.ints |= src & IntAll
}

// DisableInterrupt masks src.
func (tc *TimerChannel) DisableInterrupt(src TimerInterrupt) {
	modify16(tc.bank, tc.hw.frame+tc.hw.imr, tc.intBits(src), 0)
	tc.ints &^= src
}

// ClearInterruptFlag acknowledges src. Flags are write-one-to-clear.
func (tc *TimerChannel) ClearInterruptFlag(src TimerInterrupt) {
	tc.bank.Write16(tc.hw.frame+tc.hw.ifr, tc.intBits(src))
}

// Interrupts returns the enabled sources.
func (tc *TimerChannel) Interrupts() TimerInterrupt {
	return tc.ints
}

// Reset zeroes compare and period and masks and clears every interrupt.
func (tc *TimerChannel) Reset() {
	tc.bank.Write16(tc.hw.cmpr(), 0)
	tc.bank.Write16(tc.hw.pr(), 0)
	tc.DisableInterrupt(IntAll)
	tc.ClearInterruptFlag(IntAll)
	tc.cmp = 0
	tc.own.res = Resolution{}
}

// HandleInterrupt services the timer's pending, enabled sources. It is
// installed in the timer's interrupt vector slot.
func (tc *TimerChannel) HandleInterrupt() {
	f := tc.bank.Read16(tc.hw.frame + tc.hw.ifr)
	m := tc.bank.Read16(tc.hw.frame + tc.hw.imr)
	pending := TimerInterrupt((f&m)>>tc.hw.intShift) & IntAll
	if pending == IntNone {
		return
	}
	tc.events.Record(pending)
	tc.ClearInterruptFlag(pending)
}

// Events returns the interrupt counters of the channel.
func (tc *TimerChannel) Events() *EventCounters {
	return &tc.events
}

// HandleTimerInterrupt dispatches a timer interrupt to the channel that
// currently owns the timer. Spurious interrupts for unclaimed timers are
// ignored.
func HandleTimerInterrupt(id TimerID) {
	if id >= TIMER_COUNT {
		return
	}
	if tc, ok := registry.Owner(timerResource(id)).(*TimerChannel); ok {
		tc.HandleInterrupt()
	}
}
