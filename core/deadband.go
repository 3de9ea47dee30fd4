package core

// Dead-band timer limits (DBTCON)
const (
	DEADBAND_MAX_PERIOD    = 15
	DEADBAND_MAX_PRESCALER = 5 // x/32
)

// DeadbandCode is a solved DBTCON prescaler/period pair.
type DeadbandCode struct {
	Prescaler uint8 // 0..5, divisor 1<<Prescaler
	Period    uint8 // 0..15
}

// Ticks returns the dead time in clock ticks.
func (d DeadbandCode) Ticks() uint32 {
	return uint32(d.Period) << d.Prescaler
}

// MaxDeadbandNs returns the longest dead band the DBTCON fields can hold.
func MaxDeadbandNs(clockHz uint32) uint32 {
	mhz := clockHz / 1000000
	assert(mhz > 0, FAULT_BAD_ARGUMENT)
	return 480000 / mhz
}

// SolveDeadband picks the finest prescaler that keeps the period code
// within its 4-bit field. Requests above MaxDeadbandNs fail even when the
// truncated tick count would still fit.
func SolveDeadband(ns, clockHz uint32) (DeadbandCode, error) {
	if ns == 0 {
		return DeadbandCode{}, nil
	}
	if ns > MaxDeadbandNs(clockHz) {
		return DeadbandCode{}, ErrOutOfRange
	}
	raw := uint64(ns) * uint64(clockHz) / 1000000000
	for k := uint8(0); k <= DEADBAND_MAX_PRESCALER; k++ {
		if raw>>k <= DEADBAND_MAX_PERIOD {
			return DeadbandCode{Prescaler: k, Period: uint8(raw >> k)}, nil
		}
	}
	return DeadbandCode{}, ErrOutOfRange
}
