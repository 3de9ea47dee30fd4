package core

import "errors"

var (
	// ErrOutOfRange is returned when no ladder entry yields a period that
	// fits the counter. No register has been written when it is returned.
	ErrOutOfRange = errors.New("timing request out of range")
)

// Ladder is a strictly increasing list of prescaler divisors. The index of
// a divisor is the value written to the prescaler field.
type Ladder []uint16

// Prescaler ladders of the supported timer units.
var (
	// TxCON TPS and TBCTL CLKDIV: x/1 .. x/128
	ClkDivLadder = Ladder{1, 2, 4, 8, 16, 32, 64, 128}

	// TBCTL HSPCLKDIV, taken from the topology as is
	HSPClkDivLadder = Ladder{1, 2, 4, 6, 8, 10, 12, 14}
)

// Counter widths and limits
const (
	TIMER_MAX_COUNT = 0xFFFF
	TIMER_MIN_COUNT = 5
)

// Resolution is a solved prescaler/period pair.
type Resolution struct {
	Prescaler uint8  // index into the ladder
	Period    uint16 // counter period register value, the counter spans Period+1 ticks
}

// Divisor returns the ladder divisor selected by r.
func (r Resolution) Divisor(l Ladder) uint32 {
	return uint32(l[r.Prescaler])
}

// Hz returns the up-count frequency produced by r from sourceHz.
func (r Resolution) Hz(sourceHz uint32, l Ladder) uint32 {
	return sourceHz / (r.Divisor(l) * (uint32(r.Period) + 1))
}

// SolvePeriod maps a target frequency onto the finest ladder divisor whose
// period fits in maxCount. Callers using symmetric up/down counting pass
// twice the electrical frequency.
func SolvePeriod(targetHz, sourceHz, maxCount uint32, ladder Ladder) (Resolution, error) {
	assert(targetHz > 0, FAULT_ZERO_FREQUENCY)
	assert(maxCount <= TIMER_MAX_COUNT, FAULT_BAD_ARGUMENT)

	raw := sourceHz / targetHz
	for i, div := range ladder {
		count := raw / uint32(div)
		if count > maxCount {
			continue
		}
		if count == 0 {
			break
		}
		return Resolution{Prescaler: uint8(i), Period: uint16(count - 1)}, nil
	}
	return Resolution{}, ErrOutOfRange
}
