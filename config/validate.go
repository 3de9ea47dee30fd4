package config

import (
	"c28pwm/core"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// syncMaster names the function whose timer a slave function follows.
var syncMaster = map[core.FunctionTag]core.FunctionTag{
	core.FuncSineRef: core.FuncPWM,
	core.FuncCapture: core.FuncFan,
}

// Validate checks everything the core would abort on, so that Build only
// fails on solver range errors. Every problem is reported, not just the
// first.
func (p *Profile) Validate() error {
	var err error
	sysclk, maxDB := uint32(0), uint32(0)
	if hz, e := ParseFrequency(p.Sysclk); e != nil {
		err = multierr.Append(err, errors.Wrap(e, "sysclk"))
	} else if hz < 1000000 {
		err = multierr.Append(err, errors.Errorf("sysclk %s below 1MHz", p.Sysclk))
	} else {
		sysclk, maxDB = hz, core.MaxDeadbandNs(hz)
	}

	err = multierr.Append(err, p.validateTimers())
	for i := range p.PWMModules {
		err = multierr.Append(err, errors.Wrapf(p.PWMModules[i].validate(maxDB), "pwm_modules[%d]", i))
	}
	err = multierr.Append(err, p.validateModuleSet())
	for i := range p.HalfBridges {
		err = multierr.Append(err, errors.Wrapf(p.validateHalfBridge(i, sysclk), "half_bridges[%d]", i))
	}
	err = multierr.Append(err, p.validatePairs(maxDB))
	if len(p.Pairs) > 0 && !core.FEATURE_EVM {
		err = multierr.Append(err, errors.New("pairs need a build with event-manager support"))
	}
	if len(p.Pairs) > 0 && len(p.PWMModules) > 0 {
		err = multierr.Append(err, errors.New("pairs (281x event managers) and pwm_modules (280x ePWM) cannot share a board"))
	}
	return err
}

func (p *Profile) validateTimers() error {
	var err error
	seen := make(map[core.FunctionTag]bool)
	for i := range p.Timers {
		t := &p.Timers[i]
		fn, e := parseFunction(t.Function)
		if e != nil {
			err = multierr.Append(err, errors.Wrapf(e, "timers[%d]", i))
			continue
		}
		if seen[fn] {
			err = multierr.Append(err, errors.Errorf("timers[%d]: function %s configured twice", i, fn))
		}
		seen[fn] = true
		err = multierr.Append(err, errors.Wrapf(t.validate(), "timers[%d]", i))

		sync, e := lookup("sync mode", t.Sync, syncModes)
		if e != nil || sync == core.SyncNone {
			continue
		}
		master, ok := syncMaster[fn]
		switch {
		case !ok:
			err = multierr.Append(err, errors.Errorf("timers[%d]: %s runs on a master timer and cannot sync", i, fn))
		case !seen[master]:
			err = multierr.Append(err, errors.Errorf("timers[%d]: %s syncs to %s, which must be listed before it", i, fn, master))
		}
	}
	return err
}

func (t *TimerProfile) validate() error {
	var err error
	_, e := lookup("count mode", t.CountMode, timerCountModes)
	err = multierr.Append(err, e)
	_, e = parseInterrupts(t.Interrupt)
	err = multierr.Append(err, e)
	_, e = lookup("compare output", t.CompareOutput, compareOutputs)
	err = multierr.Append(err, e)
	_, e = lookup("sync mode", t.Sync, syncModes)
	err = multierr.Append(err, e)
	_, e = lookup("clock source", t.ClockSource, clockSources)
	err = multierr.Append(err, e)
	_, e = lookup("adc start", t.Adc, adcStarts)
	err = multierr.Append(err, e)
	_, e = lookup("reload", t.Reload, reloads)
	err = multierr.Append(err, e)
	_, e = lookup("emulation", t.Emulation, emulationModes)
	err = multierr.Append(err, e)
	if t.Frequency != "" {
		_, e = ParseFrequency(t.Frequency)
		err = multierr.Append(err, e)
	}
	if t.Duty < 0 || t.Duty > 100 {
		err = multierr.Append(err, errors.Errorf("duty %g outside 0..100", t.Duty))
	}
	return err
}

func checkDeadBand(s string, maxNs uint32) error {
	ns, err := ParseDeadBand(s)
	if err != nil {
		return err
	}
	if maxNs != 0 && ns > maxNs {
		return errors.Errorf("dead band %s above %dns", s, maxNs)
	}
	return nil
}

func (m *PWMProfile) validate(maxDB uint32) error {
	var err error
	if m.Module < 1 || m.Module > int(core.PWM_MODULE_COUNT) {
		return errors.Errorf("module %d outside 1..%d", m.Module, core.PWM_MODULE_COUNT)
	}
	if m.HighRes && m.Module > core.PWM_HIRES_MODULES {
		err = multierr.Append(err, errors.Errorf("module %d has no high resolution compare", m.Module))
	}
	_, e := ParseFrequency(m.Frequency)
	err = multierr.Append(err, e)
	_, e = lookup("count mode", m.CountMode, pwmCountModes)
	err = multierr.Append(err, e)
	for _, s := range []string{m.PinAPolicy, m.PinBPolicy} {
		_, e = parsePolicy(s)
		err = multierr.Append(err, e)
	}
	for _, s := range []string{m.PinAMode, m.PinBMode} {
		_, e = lookup("pin mode", s, pinModes)
		err = multierr.Append(err, e)
	}
	err = multierr.Append(err, checkDeadBand(m.DeadBand, maxDB))
	for _, z := range m.TripZones {
		if z < 1 || z > 6 {
			err = multierr.Append(err, errors.Errorf("trip zone %d outside 1..6", z))
		}
	}
	_, e = lookup("trip action", m.TripAction, tripActions)
	err = multierr.Append(err, e)
	if m.Event != nil {
		_, e = lookup("event source", m.Event.Source, eventSources)
		err = multierr.Append(err, e)
		if m.Event.Every < 1 || m.Event.Every > 3 {
			err = multierr.Append(err, errors.Errorf("event every %d outside 1..3", m.Event.Every))
		}
	}
	if m.Duty < 0 || m.Duty > 100 {
		err = multierr.Append(err, errors.Errorf("duty %g outside 0..100", m.Duty))
	}
	return err
}

func (p *Profile) validateModuleSet() error {
	var err error
	seen := make(map[int]bool)
	for _, m := range p.PWMModules {
		if seen[m.Module] {
			err = multierr.Append(err, errors.Errorf("pwm module %d configured twice", m.Module))
		}
		seen[m.Module] = true
	}
	return err
}

func (p *Profile) module(n int) *PWMProfile {
	for i := range p.PWMModules {
		if p.PWMModules[i].Module == n {
			return &p.PWMModules[i]
		}
	}
	return nil
}

// validateHalfBridge checks a high/low module pair. sysclk is zero when
// the profile clock is invalid, which skips the checks that need it.
func (p *Profile) validateHalfBridge(i int, sysclk uint32) error {
	h := &p.HalfBridges[i]
	var err error
	maxDB := uint32(0)
	if sysclk != 0 {
		maxDB = core.MaxDeadbandNs(sysclk)
	}
	if h.High == h.Low {
		err = multierr.Append(err, errors.Errorf("module %d cannot be both sides", h.High))
	}
	for _, n := range []int{h.High, h.Low} {
		if p.module(n) == nil {
			err = multierr.Append(err, errors.Errorf("module %d is not in pwm_modules", n))
		}
		for j := 0; j < i; j++ {
			o := p.HalfBridges[j]
			if o.High == n || o.Low == n {
				err = multierr.Append(err, errors.Errorf("module %d already in half_bridges[%d]", n, j))
			}
		}
	}
	err = multierr.Append(err, checkDeadBand(h.HighDeadBand, maxDB))
	err = multierr.Append(err, checkDeadBand(h.LowDeadBand, maxDB))

	hi, lo := p.module(h.High), p.module(h.Low)
	if hi == nil || lo == nil || h.High == h.Low {
		return err
	}
	// the low side seeds its compare A sentinel from its own period
	hf, e1 := ParseFrequency(hi.Frequency)
	lf, e2 := ParseFrequency(lo.Frequency)
	if e1 == nil && e2 == nil && (hf != lf || hi.CountMode != lo.CountMode) {
		err = multierr.Append(err, errors.Errorf("modules %d and %d need the same frequency and count_mode",
			h.High, h.Low))
	}
	if sysclk != 0 {
		err = multierr.Append(err, checkHighSideDelay(h.HighDeadBand, lo, sysclk))
	}
	return err
}

// checkHighSideDelay rejects a high side dead band longer than the low
// side period, which would wrap the low side compare B.
func checkHighSideDelay(s string, lo *PWMProfile, sysclk uint32) error {
	ns, e := ParseDeadBand(s)
	if e != nil {
		return nil
	}
	code, e := core.SolveDeadband(ns, sysclk)
	if e != nil {
		return nil
	}
	if _, e := ParseFrequency(lo.Frequency); e != nil {
		return nil
	}
	t := lo.Topology()
	r, e := core.SolveTimeBaseAt(t.FrequencyHz, sysclk, t.TimeBase)
	if e != nil {
		return nil
	}
	if code.Ticks() > uint32(r.Period) {
		return errors.Errorf("high dead band %s is %d ticks, longer than module %d period %d",
			s, code.Ticks(), lo.Module, r.Period)
	}
	return nil
}

func (p *Profile) validatePairs(maxDB uint32) error {
	var err error
	owner := make(map[core.PairID]int)
	for i := range p.Pairs {
		pr := &p.Pairs[i]
		id, e := lookup("pair", pr.Pair, pairIDs)
		if e != nil {
			err = multierr.Append(err, errors.Wrapf(e, "pairs[%d]", i))
			continue
		}
		typ, e := lookup("pair type", pr.Type, pairTypes)
		if e != nil {
			err = multierr.Append(err, errors.Wrapf(e, "pairs[%d]", i))
		} else if (typ == core.PairSpaceVector) != (id >= core.PairSPV_A) {
			err = multierr.Append(err, errors.Errorf("pairs[%d]: type %s does not fit pair %s", i, pr.Type, pr.Pair))
		}
		for _, s := range []string{pr.Pin1, pr.Pin2} {
			if _, e := lookup("polarity", s, polarities); e != nil {
				err = multierr.Append(err, errors.Wrapf(e, "pairs[%d]", i))
			}
		}
		if pr.Duty < 0 || pr.Duty > 0xFFFF {
			err = multierr.Append(err, errors.Errorf("pairs[%d]: duty %d outside 0..65535", i, pr.Duty))
		}
		err = multierr.Append(err, errors.Wrapf(checkDeadBand(pr.DeadBand, maxDB), "pairs[%d]", i))

		for _, q := range pairMembers(id) {
			if j, ok := owner[q]; ok {
				err = multierr.Append(err, errors.Errorf("pairs[%d]: overlaps pairs[%d]", i, j))
				break
			}
		}
		for _, q := range pairMembers(id) {
			owner[q] = i
		}
	}
	return err
}

// pairMembers expands a space-vector unit into the pairs it drives.
func pairMembers(id core.PairID) []core.PairID {
	switch id {
	case core.PairSPV_A:
		return []core.PairID{core.Pair1_2, core.Pair3_4, core.Pair5_6}
	case core.PairSPV_B:
		return []core.PairID{core.Pair7_8, core.Pair9_10, core.Pair11_12}
	}
	return []core.PairID{id}
}
