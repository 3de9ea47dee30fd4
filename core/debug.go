package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TimingEvent captures a configuration or fault event for post-mortem analysis
type TimingEvent struct {
	EventType uint8  // Event type code
	ID        uint8  // Module, channel or pin id
	Value0    uint32 // Context-dependent value
	Value1    uint32
	Value2    uint32
}

// Event type codes
const (
	EvtTimerStart   = 1  // timer channel started, v0=period v1=prescaler
	EvtTimerStop    = 2  // timer channel stopped
	EvtTimerHold    = 3  // enable bit cleared
	EvtTimerResume  = 4  // enable bit set again
	EvtPeriodSet    = 5  // period rewritten, v0=target Hz v1=period v2=prescaler
	EvtRangeFail    = 6  // solver rejected a request, v0=request
	EvtDeadband     = 7  // dead band rewritten, v0=ns v1=period v2=prescaler
	EvtPinDisable   = 8  // pin muxed to GPIO, v0=policy
	EvtPinEnable    = 9  // pin muxed back to its peripheral
	EvtClaim        = 10 // registry claim
	EvtRelease      = 11 // registry release
	EvtAbort        = 12 // fatal precondition failure, v0=fault code
	EvtOutputsGated = 13 // event-manager output gate changed, v0=enabled
)

var evtNames = [...]string{
	EvtTimerStart:   "TIMER_START",
	EvtTimerStop:    "TIMER_STOP",
	EvtTimerHold:    "TIMER_HOLD",
	EvtTimerResume:  "TIMER_RESUME",
	EvtPeriodSet:    "PERIOD_SET",
	EvtRangeFail:    "RANGE_FAIL!",
	EvtDeadband:     "DEADBAND",
	EvtPinDisable:   "PIN_DISABLE",
	EvtPinEnable:    "PIN_ENABLE",
	EvtClaim:        "CLAIM",
	EvtRelease:      "RELEASE",
	EvtAbort:        "ABORT!",
	EvtOutputsGated: "OUTPUT_GATE",
}

const (
	TimingRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Timing capture ring buffer (non-blocking, for post-mortem)
	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint8
	timingEnabled  bool = true
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordTiming captures an event in the ring buffer. Safe to call from
// interrupt context: no allocation, no blocking.
func RecordTiming(eventType, id uint8, v0, v1, v2 uint32) {
	if !timingEnabled {
		return
	}
	state := disableInterrupts()
	idx := timingRingHead
	timingRing[idx] = TimingEvent{
		EventType: eventType,
		ID:        id,
		Value0:    v0,
		Value1:    v1,
		Value2:    v2,
	}
	timingRingHead = (idx + 1) % TimingRingSize
	restoreInterrupts(state)
}

// TimingEvents returns the recorded events, oldest first.
func TimingEvents() []TimingEvent {
	events := make([]TimingEvent, 0, TimingRingSize)
	start := timingRingHead
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := timingRing[(start+i)%TimingRingSize]
		if evt.EventType == 0 {
			continue
		}
		events = append(events, evt)
	}
	return events
}

// DumpTimingRing writes the ring to the debug writer regardless of
// debugEnabled. Called from the abort path.
func DumpTimingRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TIMING] === Timing Ring Dump ===")
	start := timingRingHead
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := &timingRing[(start+i)%TimingRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}

		name := "UNKNOWN"
		if int(evt.EventType) < len(evtNames) && evtNames[evt.EventType] != "" {
			name = evtNames[evt.EventType]
		}

		debugPrintln("[TIMING] " + name +
			" id=" + itoa(int(evt.ID)) +
			" v0=" + utoa(evt.Value0) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[TIMING] === End Dump ===")
}

// ClearTimingRing clears the timing buffer
func ClearTimingRing() {
	for i := range timingRing {
		timingRing[i] = TimingEvent{}
	}
	timingRingHead = 0
}
