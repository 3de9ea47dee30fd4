package core

// FaultCode identifies a fatal precondition failure.
type FaultCode uint8

// Fault codes reported through the abort hook
const (
	FAULT_NONE FaultCode = iota
	FAULT_BAD_ARGUMENT
	FAULT_ZERO_FREQUENCY
	FAULT_NO_HIRES
	FAULT_DOUBLE_CLAIM
	FAULT_NOT_CLAIMED
	FAULT_BAD_CHANNEL
	FAULT_BAD_PIN_MODE
	FAULT_DEADBAND_RANGE
	FAULT_NO_SYNC_PARTNER
)

var faultNames = [...]string{
	FAULT_NONE:            "none",
	FAULT_BAD_ARGUMENT:    "bad argument",
	FAULT_ZERO_FREQUENCY:  "zero frequency",
	FAULT_NO_HIRES:        "no high resolution unit",
	FAULT_DOUBLE_CLAIM:    "double claim",
	FAULT_NOT_CLAIMED:     "not claimed",
	FAULT_BAD_CHANNEL:     "bad channel",
	FAULT_BAD_PIN_MODE:    "pin not in PWM mode",
	FAULT_DEADBAND_RANGE:  "dead band above maximum",
	FAULT_NO_SYNC_PARTNER: "sync partner not running",
}

func (c FaultCode) String() string {
	if int(c) < len(faultNames) {
		return faultNames[c]
	}
	return "fault " + utoa(uint32(c))
}

// AbortError is the panic value raised by the default abort handler.
type AbortError struct {
	Code FaultCode
}

func (e AbortError) Error() string {
	return "abort: " + e.Code.String()
}

// AbortHandler is called on a fatal precondition failure. Target handlers
// never return.
type AbortHandler func(code FaultCode)

var (
	abortHandler AbortHandler = defaultAbort
	lastFault    FaultCode
)

func defaultAbort(code FaultCode) {
	panic(AbortError{Code: code})
}

// SetAbortHandler installs the firmware-wide abort hook. nil restores the
// default, which panics with an AbortError.
func SetAbortHandler(h AbortHandler) {
	if h == nil {
		h = defaultAbort
	}
	abortHandler = h
}

// Abort records the fault and hands control to the abort hook.
func Abort(code FaultCode) {
	lastFault = code
	RecordTiming(EvtAbort, 0, uint32(code), 0, 0)
	DebugPrintln("[ABORT] " + code.String())
	abortHandler(code)
}

// LastFault returns the most recent fault code.
func LastFault() FaultCode {
	return lastFault
}

// assert aborts with code when cond is false.
func assert(cond bool, code FaultCode) {
	if !cond {
		Abort(code)
	}
}
