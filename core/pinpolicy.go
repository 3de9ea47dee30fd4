package core

// DisableMode is what a PWM pin does when its outputs are disabled.
type DisableMode uint8

const (
	DisableNoAction DisableMode = iota
	DisableHighZ
	DisableForceLow
	DisableForceHigh
)

var disableModeNames = [...]string{
	DisableNoAction:  "no_action",
	DisableHighZ:     "high_z",
	DisableForceLow:  "force_low",
	DisableForceHigh: "force_high",
}

func (m DisableMode) String() string {
	if int(m) < len(disableModeNames) {
		return disableModeNames[m]
	}
	return "invalid"
}

// ParseDisableMode converts a profile name into a DisableMode.
func ParseDisableMode(s string) (DisableMode, bool) {
	for i, n := range disableModeNames {
		if n == s {
			return DisableMode(i), true
		}
	}
	return 0, false
}

// PinMode records whether a module pin is used by the PWM peripheral at all.
type PinMode uint8

const (
	PinModeGPIO PinMode = iota
	PinModePWM
)

// PinState is the current state of a pin's disable-policy machine.
type PinState uint8

const (
	PinFunctional PinState = iota
	PinHighZ
	PinForcedLow
	PinForcedHigh
)

// disabledState maps a disable mode to the GPIO state it produces.
var disabledState = [...]PinState{
	DisableNoAction:  PinFunctional,
	DisableHighZ:     PinHighZ,
	DisableForceLow:  PinForcedLow,
	DisableForceHigh: PinForcedHigh,
}

// PinPolicy is the disable-policy state machine of one output pin.
type PinPolicy struct {
	Pin     GPIOPin
	Mode    PinMode
	Policy  DisableMode
	Mux     uint8 // peripheral mux value restored on Enable
	gpio    GPIODriver
	state   PinState
	enabled bool
}

// NewPinPolicy creates the policy for pin. Configure must run before the
// first Disable.
func NewPinPolicy(gpio GPIODriver, pin GPIOPin, mode PinMode, policy DisableMode) *PinPolicy {
	assert(pin < GPIO_PIN_COUNT, FAULT_BAD_ARGUMENT)
	assert(policy <= DisableForceHigh, FAULT_BAD_ARGUMENT)
	return &PinPolicy{
		Pin:    pin,
		Mode:   mode,
		Policy: policy,
		Mux:    MUX_PERIPHERAL,
		gpio:   gpio,
	}
}

// Configure sets the pin direction its disable mode needs and hands a PWM
// pin to the peripheral. Direction is never touched again, so a later
// Disable only has to write the latch and the mux.
func (p *PinPolicy) Configure() {
	switch p.Policy {
	case DisableForceLow, DisableForceHigh:
		p.gpio.ConfigureOutput(p.Pin)
	case DisableHighZ:
		p.gpio.ConfigureInput(p.Pin)
	}
	if p.Mode == PinModePWM {
		p.gpio.SetMux(p.Pin, p.Mux)
		p.state = PinFunctional
		p.enabled = true
	}
}

// State returns the current state.
func (p *PinPolicy) State() PinState {
	return p.state
}

// Disable moves the pin from its peripheral function to the configured
// GPIO state. Calling it on a pin not used for PWM is a configuration bug.
func (p *PinPolicy) Disable() {
	assert(p.Mode == PinModePWM, FAULT_BAD_PIN_MODE)
	p.disable()
}

// Enable hands the pin back to the peripheral.
func (p *PinPolicy) Enable() {
	assert(p.Mode == PinModePWM, FAULT_BAD_PIN_MODE)
	p.enable()
}

func (p *PinPolicy) disable() {
	if p.Policy == DisableNoAction || !p.enabled {
		return
	}
	// latch before mux: the pin must never float between the two writes
	switch p.Policy {
	case DisableForceLow:
		p.gpio.SetPin(p.Pin, false)
	case DisableForceHigh:
		p.gpio.SetPin(p.Pin, true)
	}
	p.gpio.SetMux(p.Pin, MUX_GPIO)
	p.state = disabledState[p.Policy]
	p.enabled = false
	RecordTiming(EvtPinDisable, uint8(p.Pin), uint32(p.Policy), 0, 0)
}

func (p *PinPolicy) enable() {
	if p.Policy == DisableNoAction || p.enabled {
		return
	}
	p.gpio.SetMux(p.Pin, p.Mux)
	p.state = PinFunctional
	p.enabled = true
	RecordTiming(EvtPinEnable, uint8(p.Pin), 0, 0, 0)
}

// release returns the pin to plain GPIO for teardown.
func (p *PinPolicy) release() {
	if p.Mode != PinModePWM {
		return
	}
	p.gpio.SetMux(p.Pin, MUX_GPIO)
	p.enabled = false
}
