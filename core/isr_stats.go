package core

import "sync/atomic"

// TimerInterrupt is a bitmask of timer interrupt sources.
type TimerInterrupt uint8

const (
	IntNone      TimerInterrupt = 0
	IntPeriod    TimerInterrupt = 1 << 0
	IntCompare   TimerInterrupt = 1 << 1
	IntUnderflow TimerInterrupt = 1 << 2
	IntOverflow  TimerInterrupt = 1 << 3
	IntAll                      = IntPeriod | IntCompare | IntUnderflow | IntOverflow
)

// intSources lists the sources in counter order.
var intSources = [...]TimerInterrupt{IntPeriod, IntCompare, IntUnderflow, IntOverflow}

// EventCounts is a drained snapshot of EventCounters.
type EventCounts struct {
	Period    uint32
	Compare   uint32
	Underflow uint32
	Overflow  uint32
}

// EventCounters hands interrupt counts from one ISR to the main loop.
// The ISR is the only writer of Record, the main loop the only caller
// of Drain; each cell is a single atomic word so neither side blocks.
type EventCounters struct {
	cells [len(intSources)]uint32
}

// Record counts the sources in pending. Interrupt context only.
func (c *EventCounters) Record(pending TimerInterrupt) {
	for i, src := range intSources {
		if pending&src != 0 {
			atomic.AddUint32(&c.cells[i], 1)
		}
	}
}

// Drain returns the counts since the previous Drain and zeroes them.
func (c *EventCounters) Drain() EventCounts {
	return EventCounts{
		Period:    atomic.SwapUint32(&c.cells[0], 0),
		Compare:   atomic.SwapUint32(&c.cells[1], 0),
		Underflow: atomic.SwapUint32(&c.cells[2], 0),
		Overflow:  atomic.SwapUint32(&c.cells[3], 0),
	}
}

// Peek returns the counts without clearing them.
func (c *EventCounters) Peek() EventCounts {
	return EventCounts{
		Period:    atomic.LoadUint32(&c.cells[0]),
		Compare:   atomic.LoadUint32(&c.cells[1]),
		Underflow: atomic.LoadUint32(&c.cells[2]),
		Overflow:  atomic.LoadUint32(&c.cells[3]),
	}
}
