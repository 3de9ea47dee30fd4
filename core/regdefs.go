package core

// Peripheral frame addresses. Offsets follow the F280x/F281x register maps.
const (
	regPCLKCR0 Reg = 0x701C // 281x: PCLKCR
	regPCLKCR1 Reg = 0x701D

	regGPAMUX1  Reg = 0x6F86
	regGPAMUX2  Reg = 0x6F88
	regGPADIR   Reg = 0x6F8A
	regGPADAT   Reg = 0x6FC0
	regGPASET   Reg = 0x6FC2
	regGPACLEAR Reg = 0x6FC4
)

// PCLKCR0 / PCLKCR1 bits
const (
	PCLKCR0_EVAENCLK  = 1 << 0
	PCLKCR0_EVBENCLK  = 1 << 1
	PCLKCR0_TBCLKSYNC = 1 << 2
)

// ePWM register frame
const (
	epwmBase   Reg = 0x6800
	epwmStride Reg = 0x40

	EPWM_TBCTL   Reg = 0x00
	EPWM_TBSTS   Reg = 0x01
	EPWM_TBPHS   Reg = 0x03
	EPWM_TBCTR   Reg = 0x04
	EPWM_TBPRD   Reg = 0x05
	EPWM_CMPCTL  Reg = 0x07
	EPWM_CMPAHR  Reg = 0x08 // 32-bit view CMPA:CMPAHR starts here
	EPWM_CMPA    Reg = 0x09
	EPWM_CMPB    Reg = 0x0A
	EPWM_AQCTLA  Reg = 0x0B
	EPWM_AQCTLB  Reg = 0x0C
	EPWM_AQSFRC  Reg = 0x0D
	EPWM_AQCSFRC Reg = 0x0E
	EPWM_DBCTL   Reg = 0x0F
	EPWM_DBRED   Reg = 0x10
	EPWM_DBFED   Reg = 0x11
	EPWM_TZSEL   Reg = 0x12
	EPWM_TZCTL   Reg = 0x14
	EPWM_TZEINT  Reg = 0x15
	EPWM_TZFLG   Reg = 0x16
	EPWM_TZCLR   Reg = 0x17
	EPWM_ETSEL   Reg = 0x19
	EPWM_ETPS    Reg = 0x1A
	EPWM_ETFLG   Reg = 0x1B
	EPWM_ETCLR   Reg = 0x1C
	EPWM_HRCNFG  Reg = 0x20
)

// Event manager register frames (EVA holds T1/T2, EVB holds T3/T4)
const (
	evaBase Reg = 0x7400
	evbBase Reg = 0x7500

	EV_GPTCON Reg = 0x00
	EV_T1CNT  Reg = 0x01 // master timer block; slave block is +4
	EV_T1CMPR Reg = 0x02
	EV_T1PR   Reg = 0x03
	EV_T1CON  Reg = 0x04
	EV_COMCON Reg = 0x11
	EV_ACTR   Reg = 0x13
	EV_DBTCON Reg = 0x15
	EV_CMPR1  Reg = 0x17
	EV_IMRA   Reg = 0x2C
	EV_IMRB   Reg = 0x2D
	EV_IFRA   Reg = 0x2F
	EV_IFRB   Reg = 0x30

	evSlaveStride Reg = 0x04
)

// epwmReg returns the absolute address of a register in module m.
func epwmReg(m PWMModuleID, off Reg) Reg {
	return epwmBase + Reg(m)*epwmStride + off
}

// Pin mux values in GPAMUXn (2 bits per pin)
const (
	MUX_GPIO       = 0
	MUX_PERIPHERAL = 1
)

// gpioMuxReg returns the mux register and bit shift for a GPIO pin.
func gpioMuxReg(pin GPIOPin) (Reg, uint8) {
	if pin < 16 {
		return regGPAMUX1, uint8(pin) * 2
	}
	return regGPAMUX2, uint8(pin-16) * 2
}
