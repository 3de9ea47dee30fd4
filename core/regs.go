package core

// Reg is a peripheral register address in the C28x 16-bit word data space.
type Reg uint32

// RegisterBank is the abstract register interface that core code uses.
// Targets bind it to the memory-mapped peripheral frames; host builds use
// MemoryBank. 32-bit accesses address the low word, as the CPU does.
type RegisterBank interface {
	Read16(r Reg) uint16
	Write16(r Reg, v uint16)
	Read32(r Reg) uint32
	Write32(r Reg, v uint32)

	// Protect locks (true) or unlocks (false) EALLOW protected registers:
	// GPIO mux/direction, trip-zone and clock-control registers.
	Protect(locked bool)
}

// modify16 clears the bits in clear and ORs in set with one read and one write.
func modify16(b RegisterBank, r Reg, clear, set uint16) {
	b.Write16(r, b.Read16(r)&^clear|set)
}

// modify32 is the 32-bit form of modify16.
func modify32(b RegisterBank, r Reg, clear, set uint32) {
	b.Write32(r, b.Read32(r)&^clear|set)
}

// protected runs fn with EALLOW protection lifted.
func protected(b RegisterBank, fn func()) {
	b.Protect(false)
	fn()
	b.Protect(true)
}
