package core

import (
	"errors"

	"c28pwm/protocol"
)

// errBusy reports a hardware instance that another object already owns.
var errBusy = errors.New("hardware instance already claimed")

// Timer control actions of timer_ctl
const (
	TIMER_CTL_START = iota
	TIMER_CTL_STOP
	TIMER_CTL_HOLD
	TIMER_CTL_RESUME
)

// Host requests are checked here before they reach the core, which
// aborts on anything malformed. Every rejection is reported with
// pwm_error and never touches a register.

func (d *Device) registerPWM() {
	d.cmds.Register("config_pwm",
		"oid=%c module=%c freq=%u count_mode=%c policy_a=%c policy_b=%c deadband=%u hires=%c",
		d.handleConfigPWM)
	d.cmds.Register("set_pwm_duty", "oid=%c cmpa=%hu cmpb=%hu", d.handleSetPWMDuty)
	d.cmds.Register("set_pwm_duty_hr", "oid=%c cmpa=%u cmpb=%hu", d.handleSetPWMDutyHR)
	d.cmds.Register("set_pwm_frequency", "oid=%c freq=%u", d.handleSetPWMFrequency)
	d.cmds.Register("set_pwm_deadband", "oid=%c deadband=%u", d.handleSetPWMDeadband)
	d.cmds.Register("pwm_outputs", "oid=%c enable=%c", d.handlePWMOutputs)
	d.cmds.Register("sync_pwm", "", d.handleSyncPWM)
	d.cmds.Register("query_pwm", "oid=%c", d.handleQueryPWM)
	d.cmds.RegisterResponse("pwm_state",
		"oid=%c period=%hu clkdiv=%c cmpa=%hu cmpb=%hu red=%hu fed=%hu outputs=%c")
}

func (d *Device) handleConfigPWM(args *[]byte) error {
	var oid, module, freq, mode, polA, polB, db, hires uint32
	if err := protocol.DecodeArgs(args, &oid, &module, &freq, &mode, &polA, &polB, &db, &hires); err != nil {
		return err
	}
	if err := d.objs.Check(oid); err != nil {
		return d.fail(oid, err)
	}
	switch {
	case module >= uint32(PWM_MODULE_COUNT), freq == 0, mode > uint32(CountUpDown),
		polA > uint32(DisableForceHigh), polB > uint32(DisableForceHigh):
		return d.fail(oid, errArgument)
	case hires != 0 && module >= PWM_HIRES_MODULES:
		return d.fail(oid, ErrUnsupported)
	case registry.IsClaimed(pwmResource(PWMModuleID(module))):
		return d.fail(oid, errBusy)
	}

	id := PWMModuleID(module)
	t := StandardTopology(id, freq, CountMode(mode)).
		WithDeadband(db).
		WithPolicies(DisableMode(polA), DisableMode(polB))
	t.HighRes = hires != 0
	m, err := ConstructPWM(d.bank, id, t)
	if err != nil {
		return d.fail(oid, err)
	}
	d.objs.Put(oid, m)
	return nil
}

func (d *Device) handleSetPWMDuty(args *[]byte) error {
	var oid, a, b uint32
	if err := protocol.DecodeArgs(args, &oid, &a, &b); err != nil {
		return err
	}
	m, err := d.objs.PWM(oid)
	if err != nil {
		return d.fail(oid, err)
	}
	m.SetDutyPair(uint16(a), uint16(b))
	return nil
}

func (d *Device) handleSetPWMDutyHR(args *[]byte) error {
	var oid, a, b uint32
	if err := protocol.DecodeArgs(args, &oid, &a, &b); err != nil {
		return err
	}
	m, err := d.objs.PWM(oid)
	if err != nil {
		return d.fail(oid, err)
	}
	if !m.Topology().HighRes {
		return d.fail(oid, ErrUnsupported)
	}
	// the coarse part is 16 bits; anything past TBPRD never matches
	if limit, _ := m.MaxCompareHighRes(); a > limit {
		return d.fail(oid, ErrOutOfRange)
	}
	m.SetCompareAandBHighRes(a, uint16(b))
	return nil
}

func (d *Device) handleSetPWMFrequency(args *[]byte) error {
	var oid, freq uint32
	if err := protocol.DecodeArgs(args, &oid, &freq); err != nil {
		return err
	}
	m, err := d.objs.PWM(oid)
	if err != nil {
		return d.fail(oid, err)
	}
	if freq == 0 {
		return d.fail(oid, errArgument)
	}
	if err := m.SetFrequency(freq); err != nil {
		return d.fail(oid, err)
	}
	return nil
}

func (d *Device) handleSetPWMDeadband(args *[]byte) error {
	var oid, ns uint32
	if err := protocol.DecodeArgs(args, &oid, &ns); err != nil {
		return err
	}
	m, err := d.objs.PWM(oid)
	if err != nil {
		return d.fail(oid, err)
	}
	if err := m.SetDeadband(ns); err != nil {
		return d.fail(oid, err)
	}
	return nil
}

func (d *Device) handlePWMOutputs(args *[]byte) error {
	var oid, enable uint32
	if err := protocol.DecodeArgs(args, &oid, &enable); err != nil {
		return err
	}
	m, err := d.objs.PWM(oid)
	if err != nil {
		return d.fail(oid, err)
	}
	if enable != 0 {
		m.EnableOutputs()
	} else {
		m.DisableOutputs()
	}
	return nil
}

// handleSyncPWM starts every configured time base together.
func (d *Device) handleSyncPWM(*[]byte) error {
	SyncTimeBases(d.bank)
	return nil
}

func (d *Device) handleQueryPWM(args *[]byte) error {
	var oid uint32
	if err := protocol.DecodeArgs(args, &oid); err != nil {
		return err
	}
	m, err := d.objs.PWM(oid)
	if err != nil {
		return d.fail(oid, err)
	}
	p := m.Period()
	red, fed := m.Deadband()
	d.respond("pwm_state", oid, uint32(p.Period), uint32(p.Prescaler),
		uint32(m.CompareA()), uint32(m.CompareB()), red, fed, boolArg(m.OutputsEnabled()))
	return nil
}

func (d *Device) registerTimers() {
	d.cmds.Register("config_timer",
		"oid=%c function=%c freq=%u duty=%hu timer_mode=%c interrupt=%c output=%c sync=%c",
		d.handleConfigTimer)
	d.cmds.Register("timer_ctl", "oid=%c action=%c", d.handleTimerCtl)
	d.cmds.Register("set_timer_frequency", "oid=%c freq=%u", d.handleSetTimerFrequency)
	d.cmds.Register("set_timer_duty", "oid=%c duty=%hu", d.handleSetTimerDuty)
	d.cmds.Register("query_timer_events", "oid=%c", d.handleQueryTimerEvents)
	d.cmds.RegisterResponse("timer_events",
		"oid=%c period=%u compare=%u underflow=%u overflow=%u")
}

// checkTimerSync validates a sync request against the timer table and
// the current claims.
func checkTimerSync(id TimerID, sync SyncMode) error {
	if sync == SyncNone {
		return nil
	}
	hw := &timerTable[id]
	if !hw.slave {
		return errArgument
	}
	if _, ok := registry.Owner(timerResource(hw.master)).(*TimerChannel); !ok {
		return errArgument
	}
	return nil
}

func (d *Device) handleConfigTimer(args *[]byte) error {
	var oid, fn, freq, duty, mode, ints, out, sync uint32
	if err := protocol.DecodeArgs(args, &oid, &fn, &freq, &duty, &mode, &ints, &out, &sync); err != nil {
		return err
	}
	if err := d.objs.Check(oid); err != nil {
		return d.fail(oid, err)
	}
	followsPeriod := SyncMode(sync) == SyncPeriod || SyncMode(sync) == SyncPeriodStart
	switch {
	case fn >= uint32(FUNCTION_COUNT), mode > uint32(TimerDirUpDown), duty > 10000,
		out > uint32(OutForceHigh), sync > uint32(SyncPeriodStart), ints&^uint32(IntAll) != 0,
		freq == 0 && !followsPeriod:
		return d.fail(oid, errArgument)
	}
	id := functionTimer[fn]
	if registry.IsClaimed(timerResource(id)) {
		return d.fail(oid, errBusy)
	}
	if err := checkTimerSync(id, SyncMode(sync)); err != nil {
		return d.fail(oid, err)
	}

	tc := NewTimerChannel(d.bank, TimerConfig{
		Function:    FunctionTag(fn),
		CountMode:   TimerCountMode(mode),
		Interrupt:   TimerInterrupt(ints),
		Output:      CompareOutput(out),
		Sync:        SyncMode(sync),
		FrequencyHz: freq,
		DutyPct100:  uint16(duty),
	})
	d.objs.Put(oid, tc)
	return nil
}

func (d *Device) handleTimerCtl(args *[]byte) error {
	var oid, action uint32
	if err := protocol.DecodeArgs(args, &oid, &action); err != nil {
		return err
	}
	tc, err := d.objs.Timer(oid)
	if err != nil {
		return d.fail(oid, err)
	}
	switch action {
	case TIMER_CTL_START:
		if err := tc.Start(); err != nil {
			return d.fail(oid, err)
		}
	case TIMER_CTL_STOP:
		tc.Stop()
	case TIMER_CTL_HOLD:
		tc.Hold()
	case TIMER_CTL_RESUME:
		tc.Resume()
	default:
		return d.fail(oid, errArgument)
	}
	return nil
}

func (d *Device) handleSetTimerFrequency(args *[]byte) error {
	var oid, freq uint32
	if err := protocol.DecodeArgs(args, &oid, &freq); err != nil {
		return err
	}
	tc, err := d.objs.Timer(oid)
	if err != nil {
		return d.fail(oid, err)
	}
	if freq == 0 {
		return d.fail(oid, errArgument)
	}
	if err := tc.SetFrequency(freq); err != nil {
		return d.fail(oid, err)
	}
	return nil
}

func (d *Device) handleSetTimerDuty(args *[]byte) error {
	var oid, duty uint32
	if err := protocol.DecodeArgs(args, &oid, &duty); err != nil {
		return err
	}
	tc, err := d.objs.Timer(oid)
	if err != nil {
		return d.fail(oid, err)
	}
	if duty > 10000 {
		return d.fail(oid, errArgument)
	}
	tc.SetCompare(uint16(duty))
	return nil
}

func (d *Device) handleQueryTimerEvents(args *[]byte) error {
	var oid uint32
	if err := protocol.DecodeArgs(args, &oid); err != nil {
		return err
	}
	tc, err := d.objs.Timer(oid)
	if err != nil {
		return d.fail(oid, err)
	}
	ev := tc.Events().Drain()
	d.respond("timer_events", oid, ev.Period, ev.Compare, ev.Underflow, ev.Overflow)
	return nil
}

func (d *Device) registerPairs() {
	d.cmds.Register("config_pair",
		"oid=%c pair=%c type=%c duty=%hu deadband=%u pin1=%c pin2=%c",
		d.handleConfigPair)
	d.cmds.Register("set_pair_duty", "oid=%c duty=%hu", d.handleSetPairDuty)
	d.cmds.Register("set_pair_deadband", "oid=%c deadband=%u", d.handleSetPairDeadband)
	d.cmds.Register("pair_outputs", "oid=%c enable=%c", d.handlePairOutputs)
}

func (d *Device) handleConfigPair(args *[]byte) error {
	var oid, pair, typ, duty, db, pin1, pin2 uint32
	if err := protocol.DecodeArgs(args, &oid, &pair, &typ, &duty, &db, &pin1, &pin2); err != nil {
		return err
	}
	if err := d.objs.Check(oid); err != nil {
		return d.fail(oid, err)
	}
	id := PairID(pair)
	switch {
	case pair >= uint32(PAIR_COUNT), typ > uint32(PairSpaceVector),
		(PairType(typ) == PairSpaceVector) != (id >= PairSPV_A),
		pin1 > uint32(PolarityForcedHigh), pin2 > uint32(PolarityForcedHigh):
		return d.fail(oid, errArgument)
	case db > MaxDeadbandNs(SysClock()):
		return d.fail(oid, ErrOutOfRange)
	}
	for _, r := range id.resources() {
		if registry.IsClaimed(r) {
			return d.fail(oid, errBusy)
		}
	}

	p, err := ConstructPair(d.bank, id, PairConfig{
		Type:            PairType(typ),
		Duty:            uint16(duty),
		DeadbandNs:      db,
		DeadbandEnabled: db != 0,
		CompareEnable:   true,
		CompareReload:   ReloadOnZero,
		ActionReload:    ReloadOnZero,
		Pin1:            Polarity(pin1),
		Pin2:            Polarity(pin2),
	})
	if err != nil {
		return d.fail(oid, err)
	}
	d.objs.Put(oid, p)
	return nil
}

func (d *Device) handleSetPairDuty(args *[]byte) error {
	var oid, duty uint32
	if err := protocol.DecodeArgs(args, &oid, &duty); err != nil {
		return err
	}
	p, err := d.objs.Pair(oid)
	if err != nil {
		return d.fail(oid, err)
	}
	if p.Config().Type == PairSpaceVector {
		return d.fail(oid, ErrUnsupported)
	}
	p.UpdateDutyCycle(uint16(duty))
	return nil
}

func (d *Device) handleSetPairDeadband(args *[]byte) error {
	var oid, ns uint32
	if err := protocol.DecodeArgs(args, &oid, &ns); err != nil {
		return err
	}
	p, err := d.objs.Pair(oid)
	if err != nil {
		return d.fail(oid, err)
	}
	switch {
	case p.Config().Type == PairSpaceVector:
		return d.fail(oid, ErrUnsupported)
	case ns == 0:
		p.DisableDeadBand()
	case ns > MaxDeadbandNs(SysClock()):
		return d.fail(oid, ErrOutOfRange)
	default:
		if err := p.SetDeadBand(ns); err != nil {
			return d.fail(oid, err)
		}
	}
	return nil
}

func (d *Device) handlePairOutputs(args *[]byte) error {
	var oid, enable uint32
	if err := protocol.DecodeArgs(args, &oid, &enable); err != nil {
		return err
	}
	p, err := d.objs.Pair(oid)
	if err != nil {
		return d.fail(oid, err)
	}
	if enable != 0 {
		p.Enable()
	} else {
		p.Disable()
	}
	return nil
}

func boolArg(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
