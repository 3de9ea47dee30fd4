package core

import (
	"sort"
	"sync"
)

// BankWrite is one recorded register write.
type BankWrite struct {
	Reg   Reg
	Value uint32
	Wide  bool // 32-bit access
}

// MemoryBank is a RegisterBank backed by memory. It models the write-one
// GPASET/GPACLEAR registers and EALLOW protection, and records every write
// so tests can check ordering and that failed requests touched nothing.
type MemoryBank struct {
	mu         sync.Mutex
	words      map[Reg]uint16
	log        []BankWrite
	locked     bool
	violations int
}

// NewMemoryBank creates an empty, EALLOW-locked bank.
func NewMemoryBank() *MemoryBank {
	return &MemoryBank{
		words:  make(map[Reg]uint16),
		locked: true,
	}
}

// isProtected reports whether r is EALLOW protected.
func isProtected(r Reg) bool {
	switch {
	case r >= 0x6F80 && r < 0x6FC0: // GPIO control
		return true
	case r == regPCLKCR0 || r == regPCLKCR1:
		return true
	case r >= epwmBase && r < epwmBase+6*epwmStride:
		off := (r - epwmBase) % epwmStride
		return (off >= EPWM_TZSEL && off <= 0x18) || off == EPWM_HRCNFG
	}
	return false
}

func (b *MemoryBank) store(r Reg, v uint16) {
	if b.locked && isProtected(r) {
		b.violations++
		return
	}
	b.words[r] = v
}

func (b *MemoryBank) store32(r Reg, v uint32) {
	switch r {
	case regGPASET:
		b.store32(regGPADAT, b.load32(regGPADAT)|v)
		return
	case regGPACLEAR:
		b.store32(regGPADAT, b.load32(regGPADAT)&^v)
		return
	}
	b.store(r, uint16(v))
	b.store(r+1, uint16(v>>16))
}

func (b *MemoryBank) load32(r Reg) uint32 {
	return uint32(b.words[r]) | uint32(b.words[r+1])<<16
}

// Read16 reads a 16-bit register
func (b *MemoryBank) Read16(r Reg) uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.words[r]
}

// Write16 writes a 16-bit register
func (b *MemoryBank) Write16(r Reg, v uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.log = append(b.log, BankWrite{Reg: r, Value: uint32(v)})
	b.store(r, v)
}

// Read32 reads a 32-bit register pair
func (b *MemoryBank) Read32(r Reg) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.load32(r)
}

// Write32 writes a 32-bit register pair
func (b *MemoryBank) Write32(r Reg, v uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.log = append(b.log, BankWrite{Reg: r, Value: v, Wide: true})
	b.store32(r, v)
}

// Protect locks or unlocks EALLOW protected registers
func (b *MemoryBank) Protect(locked bool) {
	b.mu.Lock()
	b.locked = locked
	b.mu.Unlock()
}

// Poke sets a register without logging, bypassing protection. Used to
// model hardware-owned state such as counters and status flags.
func (b *MemoryBank) Poke(r Reg, v uint16) {
	b.mu.Lock()
	b.words[r] = v
	b.mu.Unlock()
}

// Writes returns a copy of the write log.
func (b *MemoryBank) Writes() []BankWrite {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]BankWrite, len(b.log))
	copy(out, b.log)
	return out
}

// WriteCount returns the number of writes since the last ClearLog.
func (b *MemoryBank) WriteCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.log)
}

// ClearLog empties the write log.
func (b *MemoryBank) ClearLog() {
	b.mu.Lock()
	b.log = b.log[:0]
	b.mu.Unlock()
}

// Violations returns the number of writes dropped because the target
// register was EALLOW protected.
func (b *MemoryBank) Violations() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.violations
}

// Snapshot returns every non-zero register, sorted by address.
func (b *MemoryBank) Snapshot() []BankWrite {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]BankWrite, 0, len(b.words))
	for r, v := range b.words {
		if v != 0 {
			out = append(out, BankWrite{Reg: r, Value: uint32(v)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reg < out[j].Reg })
	return out
}
