package core

// Sub-block writers used by ConstructPWM, in the order construction runs
// them.

// AQSFRC reload and HRCNFG values
const (
	AQ_RELOAD_ON_ZERO = 0

	HR_EDGE_FALLING = 2 // MEP on the falling edge of output A
	HR_CTL_CMPAHR   = 0 // CMPAHR drives the edge
	HR_LOAD_ON_ZERO = 0
)

func (m *PWMModule) writeTimeBase() {
	tb := m.topo.TimeBase
	tb.ClkDiv = m.clkDiv
	m.bank.Write16(m.reg(EPWM_TBCTL), tb.Pack())
	m.bank.Write16(m.reg(EPWM_TBPRD), m.period)
	m.bank.Write16(m.reg(EPWM_TBPHS), 0)
}

func (m *PWMModule) writeCompare() {
	m.bank.Write16(m.reg(EPWM_CMPCTL), m.topo.Compare.Pack())
	a := m.topo.CompareA
	if m.topo.Complementary {
		a = m.period + 1
	}
	m.bank.Write16(m.reg(EPWM_CMPA), a)
	m.bank.Write16(m.reg(EPWM_CMPB), m.topo.CompareB)
}

func (m *PWMModule) writeActions() {
	m.bank.Write16(m.reg(EPWM_AQCTLA), m.topo.ActionA.Pack())
	m.bank.Write16(m.reg(EPWM_AQCTLB), m.topo.ActionB.Pack())
	m.bank.Write16(m.reg(EPWM_AQSFRC), aqsfrcRldcsf.Set(0, AQ_RELOAD_ON_ZERO))
	m.bank.Write16(m.reg(EPWM_AQCSFRC), 0)
}

func (m *PWMModule) writeDeadband() {
	m.bank.Write16(m.reg(EPWM_DBCTL), m.topo.Deadband.Pack())
	m.bank.Write16(m.reg(EPWM_DBRED), uint16(m.red.Ticks()))
	m.bank.Write16(m.reg(EPWM_DBFED), uint16(m.fed.Ticks()))
}

func (m *PWMModule) writeTripZone() {
	sel, ctl, eint := m.topo.TripZone.Pack()
	protected(m.bank, func() {
		m.bank.Write16(m.reg(EPWM_TZSEL), sel)
		m.bank.Write16(m.reg(EPWM_TZCTL), ctl)
		m.bank.Write16(m.reg(EPWM_TZEINT), eint)
	})
}

func (m *PWMModule) writeEventTrigger() {
	sel, ps := m.topo.Event.Pack()
	m.bank.Write16(m.reg(EPWM_ETSEL), sel)
	m.bank.Write16(m.reg(EPWM_ETPS), ps)
}

func (m *PWMModule) writeHighRes() {
	var w uint16
	w = hrcnfgEdgMode.Set(w, HR_EDGE_FALLING)
	w = hrcnfgCtlMode.Set(w, HR_CTL_CMPAHR)
	w = hrcnfgHrLoad.Set(w, HR_LOAD_ON_ZERO)
	protected(m.bank, func() {
		m.bank.Write16(m.reg(EPWM_HRCNFG), w)
	})
}

// muxTripInputs hands every trip input the module listens to over to the
// trip-zone peripheral.
func (m *PWMModule) muxTripInputs(gpio GPIODriver) {
	used := m.topo.TripZone.OneShot | m.topo.TripZone.CycleByCycle
	for n := uint8(1); n <= 6; n++ {
		if used&TZ(n) != 0 {
			gpio.SetMux(GPIOPin(EPWM_TZ_FIRST_PIN+n-1), MUX_PERIPHERAL)
		}
	}
}

func (m *PWMModule) setEvent(ev PWMEvent, on bool) {
	var bit Field[uint16]
	switch ev {
	case EventInt:
		bit = etselIntEn
	case EventSOCA:
		bit = etselSocAEn
	case EventSOCB:
		bit = etselSocBEn
	default:
		Abort(FAULT_BAD_ARGUMENT)
		return
	}
	r := m.reg(EPWM_ETSEL)
	m.bank.Write16(r, bit.Set(m.bank.Read16(r), boolBits[uint16](on)))
}
