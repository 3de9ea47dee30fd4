package config

import (
	"c28pwm/core"
	"github.com/pkg/errors"
)

// System is the set of controllers a profile builds.
type System struct {
	Timers map[core.FunctionTag]*core.TimerChannel
	PWM    map[int]*core.PWMModule // by 1-based module number
	Pairs  []*core.PWMPair

	order []core.Destroyer
}

// Destroy tears the system down in reverse construction order.
func (s *System) Destroy() {
	for i := len(s.order) - 1; i >= 0; i-- {
		s.order[i].Destroy()
	}
	s.order = nil
}

func (s *System) add(d core.Destroyer) {
	s.order = append(s.order, d)
}

// Build sets the system clock and constructs every controller of p on
// bank. Validate must have passed. On error everything already built is
// destroyed again.
func Build(p *Profile, bank core.RegisterBank) (*System, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	hz, _ := ParseFrequency(p.Sysclk)
	core.SetSysClock(hz)

	s := &System{
		Timers: make(map[core.FunctionTag]*core.TimerChannel),
		PWM:    make(map[int]*core.PWMModule),
	}
	if err := s.build(p, bank); err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

func (s *System) build(p *Profile, bank core.RegisterBank) error {
	for i := range p.Timers {
		if err := s.buildTimer(&p.Timers[i], bank); err != nil {
			return errors.Wrapf(err, "timers[%d]", i)
		}
	}

	lowSide := make(map[int]bool)
	for _, h := range p.HalfBridges {
		lowSide[h.Low] = true
	}
	for i := range p.PWMModules {
		m := &p.PWMModules[i]
		if err := s.buildPWM(m, bank, lowSide[m.Module]); err != nil {
			return errors.Wrapf(err, "pwm module %d", m.Module)
		}
	}
	for i, h := range p.HalfBridges {
		hi, _ := ParseDeadBand(h.HighDeadBand)
		lo, _ := ParseDeadBand(h.LowDeadBand)
		if err := s.PWM[h.High].SetDeadbands(s.PWM[h.Low], hi, lo); err != nil {
			return errors.Wrapf(err, "half_bridges[%d]", i)
		}
	}
	if len(s.PWM) > 0 {
		core.SyncTimeBases(bank)
	}

	for i := range p.Pairs {
		if err := s.buildPair(&p.Pairs[i], bank); err != nil {
			return errors.Wrapf(err, "pairs[%d]", i)
		}
	}

	// timers start last so that pair outputs see a running time base
	for i := range p.Timers {
		t := &p.Timers[i]
		if !t.Start {
			continue
		}
		fn, _ := parseFunction(t.Function)
		if err := s.Timers[fn].Start(); err != nil {
			return errors.Wrapf(err, "start %s timer", fn)
		}
	}
	return nil
}

func (s *System) buildTimer(t *TimerProfile, bank core.RegisterBank) error {
	fn, _ := parseFunction(t.Function)
	cfg := core.TimerConfig{Function: fn, DutyPct100: uint16(t.Duty*100 + 0.5)}
	cfg.CountMode, _ = lookup("count mode", t.CountMode, timerCountModes)
	cfg.Interrupt, _ = parseInterrupts(t.Interrupt)
	cfg.Output, _ = lookup("compare output", t.CompareOutput, compareOutputs)
	cfg.Sync, _ = lookup("sync mode", t.Sync, syncModes)
	cfg.Clock, _ = lookup("clock source", t.ClockSource, clockSources)
	cfg.Adc, _ = lookup("adc start", t.Adc, adcStarts)
	cfg.Reload, _ = lookup("reload", t.Reload, reloads)
	cfg.Emulation, _ = lookup("emulation", t.Emulation, emulationModes)
	if t.Frequency != "" {
		cfg.FrequencyHz, _ = ParseFrequency(t.Frequency)
	}

	tc := core.NewTimerChannel(bank, cfg)
	s.Timers[fn] = tc
	s.add(tc)
	return nil
}

// Topology converts a module profile into the core topology.
func (m *PWMProfile) Topology() core.Topology {
	id := core.PWMModuleID(m.Module - 1)
	hz, _ := ParseFrequency(m.Frequency)
	mode, _ := lookup("count mode", m.CountMode, pwmCountModes)
	polA, _ := parsePolicy(m.PinAPolicy)
	polB, _ := parsePolicy(m.PinBPolicy)
	db, _ := ParseDeadBand(m.DeadBand)

	t := core.StandardTopology(id, hz, mode).WithDeadband(db).WithPolicies(polA, polB)
	t.PinA.Mode, _ = lookup("pin mode", m.PinAMode, pinModes)
	t.PinB.Mode, _ = lookup("pin mode", m.PinBMode, pinModes)
	t.HighRes = m.HighRes
	if len(m.TripZones) > 0 {
		var set core.TripZoneSet
		for _, z := range m.TripZones {
			set |= core.TZ(uint8(z))
		}
		action, _ := lookup("trip action", m.TripAction, tripActions)
		t = t.WithTripZone(set, action, action)
	}
	if m.Event != nil {
		t.Event.Int, _ = lookup("event source", m.Event.Source, eventSources)
		t.Event.IntEnable = true
		t.Event.IntEvery = uint8(m.Event.Every)
	}
	return t
}

func (s *System) buildPWM(m *PWMProfile, bank core.RegisterBank, complementary bool) error {
	t := m.Topology()
	t.Complementary = complementary
	mod, err := core.ConstructPWM(bank, core.PWMModuleID(m.Module-1), t)
	if err != nil {
		return err
	}
	s.PWM[m.Module] = mod
	s.add(mod)

	if m.Duty > 0 && !complementary {
		cmp := uint16(float64(mod.MaxCompare()) * m.Duty / 100)
		mod.SetDutyPair(cmp, cmp)
	}
	return nil
}

func (s *System) buildPair(pr *PairProfile, bank core.RegisterBank) error {
	id, _ := lookup("pair", pr.Pair, pairIDs)
	typ, _ := lookup("pair type", pr.Type, pairTypes)
	db, _ := ParseDeadBand(pr.DeadBand)
	pin1, _ := lookup("polarity", pr.Pin1, polarities)
	pin2, _ := lookup("polarity", pr.Pin2, polarities)

	p, err := core.ConstructPair(bank, id, core.PairConfig{
		Type:            typ,
		Duty:            uint16(pr.Duty),
		DeadbandNs:      db,
		DeadbandEnabled: db != 0,
		CompareEnable:   true,
		CompareReload:   core.ReloadOnZero,
		ActionReload:    core.ReloadOnZero,
		Pin1:            pin1,
		Pin2:            pin2,
	})
	if err != nil {
		return err
	}
	s.Pairs = append(s.Pairs, p)
	s.add(p)
	if pr.Enable {
		p.Enable()
	}
	return nil
}
