package core

// Micro edge positioning (MEP) constants
const (
	HIRES_MEP_SIZE_PS       = 150   // nominal MEP step size
	HIRES_ROUNDING_CONST    = 0x180 // 1.5 steps in the 8.8 micro code, per SPRU924
	HIRES_MICRO_SHIFT       = 8
	HIRES_DEFAULT_MEP_STEPS = 66 // at 100MHz
)

// MicroStep is a high-resolution compare value split into the coarse
// counter ticks and the pre-biased MEP code.
type MicroStep struct {
	Coarse uint16
	Micro  uint16 // remainder<<8 + rounding bias; CMPAHR uses the high byte
}

// Pack returns the 32-bit CMPA:CMPAHR value.
func (m MicroStep) Pack() uint32 {
	return uint32(m.Coarse)<<16 | uint32(m.Micro)
}

// UnpackMicroStep splits a CMPA:CMPAHR value.
func UnpackMicroStep(v uint32) MicroStep {
	return MicroStep{Coarse: uint16(v >> 16), Micro: uint16(v)}
}

// MEPSteps returns the number of MEP steps in one SYSCLK period.
func MEPSteps(sysclkHz uint32) uint16 {
	// kHz first keeps the product inside 32 bits
	t := (sysclkHz / 1000) * HIRES_MEP_SIZE_PS
	if t == 0 {
		return 0
	}
	return uint16(1000000000 / t)
}

// EncodeDutyHighRes splits target, expressed in MEP steps, into a coarse
// count and a micro code.
func EncodeDutyHighRes(target uint32, steps uint16) MicroStep {
	assert(steps > 0, FAULT_NO_HIRES)

	coarse := target / uint32(steps)
	rem := target - coarse*uint32(steps)
	return MicroStep{
		Coarse: uint16(coarse),
		Micro:  uint16(rem<<HIRES_MICRO_SHIFT + HIRES_ROUNDING_CONST),
	}
}

// DecodeDutyHighRes is the inverse of EncodeDutyHighRes. The result is
// within one MEP step of the encoded target.
func DecodeDutyHighRes(m MicroStep, steps uint16) uint32 {
	rem := uint32(0)
	if m.Micro >= HIRES_ROUNDING_CONST {
		rem = uint32(m.Micro-HIRES_ROUNDING_CONST) >> HIRES_MICRO_SHIFT
	}
	return uint32(m.Coarse)*uint32(steps) + rem
}
