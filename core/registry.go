package core

// Resource identifies one claimable hardware instance.
type Resource uint8

const (
	ResTimer1 Resource = iota
	ResTimer2
	ResTimer3
	ResTimer4
	ResPWM1
	ResPWM2
	ResPWM3
	ResPWM4
	ResPWM5
	ResPWM6
	ResPair1_2
	ResPair3_4
	ResPair5_6
	ResPair7_8
	ResPair9_10
	ResPair11_12
	RESOURCE_COUNT
)

// FunctionTag is the logical role a timer channel serves. The mapping to
// a physical timer is fixed at build time.
type FunctionTag uint8

const (
	FuncPWM     FunctionTag = iota // switching frequency timebase
	FuncSineRef                    // sine reference generation
	FuncFan                        // fan speed PWM
	FuncCapture                    // capture timebase
	FUNCTION_COUNT
)

var functionNames = [...]string{
	FuncPWM:     "pwm",
	FuncSineRef: "sine_ref",
	FuncFan:     "fan",
	FuncCapture: "capture",
}

func (f FunctionTag) String() string {
	if int(f) < len(functionNames) {
		return functionNames[f]
	}
	return "invalid"
}

// ParseFunctionTag converts a profile name into a FunctionTag.
func ParseFunctionTag(s string) (FunctionTag, bool) {
	for i, n := range functionNames {
		if n == s {
			return FunctionTag(i), true
		}
	}
	return 0, false
}

// functionTimer is the fixed function-to-timer assignment.
var functionTimer = [FUNCTION_COUNT]TimerID{
	FuncPWM:     Timer1,
	FuncSineRef: Timer2,
	FuncFan:     Timer3,
	FuncCapture: Timer4,
}

// TimerForFunction returns the timer assigned to f.
func TimerForFunction(f FunctionTag) TimerID {
	assert(f < FUNCTION_COUNT, FAULT_BAD_ARGUMENT)
	return functionTimer[f]
}

// Registry tracks single ownership of hardware instances. The claim
// bitmap and owner table are only modified with interrupts masked, so an
// ISR consulting Owner never sees a half-built entry.
type Registry struct {
	claimed uint32
	owners  [RESOURCE_COUNT]any
}

var registry = &Registry{}

// GetRegistry returns the global ownership registry
func GetRegistry() *Registry {
	return registry
}

// Claim records owner as the single owner of r. A second claim is a
// static configuration bug and aborts.
func (g *Registry) Claim(r Resource, owner any) {
	assert(r < RESOURCE_COUNT, FAULT_BAD_ARGUMENT)

	state := disableInterrupts()
	if g.claimed&(1<<r) != 0 {
		restoreInterrupts(state)
		Abort(FAULT_DOUBLE_CLAIM)
		return
	}
	g.owners[r] = owner
	g.claimed |= 1 << r
	restoreInterrupts(state)

	RecordTiming(EvtClaim, uint8(r), 0, 0, 0)
}

// Release drops ownership of r. Releasing an unclaimed resource aborts.
func (g *Registry) Release(r Resource) {
	assert(r < RESOURCE_COUNT, FAULT_BAD_ARGUMENT)

	state := disableInterrupts()
	if g.claimed&(1<<r) == 0 {
		restoreInterrupts(state)
		Abort(FAULT_NOT_CLAIMED)
		return
	}
	g.claimed &^= 1 << r
	g.owners[r] = nil
	restoreInterrupts(state)

	RecordTiming(EvtRelease, uint8(r), 0, 0, 0)
}

// IsClaimed reports whether r has an owner.
func (g *Registry) IsClaimed(r Resource) bool {
	return g.claimed&(1<<r) != 0
}

// Claimed returns the claim bitmap.
func (g *Registry) Claimed() uint32 {
	return g.claimed
}

// Owner returns the owner of r, or nil.
func (g *Registry) Owner(r Resource) any {
	if r >= RESOURCE_COUNT {
		return nil
	}
	return g.owners[r]
}

// Lookup returns the running channel serving f, or nil.
func (g *Registry) Lookup(f FunctionTag) *TimerChannel {
	if f >= FUNCTION_COUNT {
		return nil
	}
	tc, _ := g.Owner(timerResource(functionTimer[f])).(*TimerChannel)
	return tc
}

// Reset drops every claim. Used between host simulation runs and tests.
func (g *Registry) Reset() {
	state := disableInterrupts()
	g.claimed = 0
	g.owners = [RESOURCE_COUNT]any{}
	restoreInterrupts(state)
}
