package core

import "errors"

var ErrInvalidPin = errors.New("invalid GPIO pin")

// BankGPIO implements GPIODriver on the port A registers of a RegisterBank.
type BankGPIO struct {
	bank RegisterBank
}

// NewBankGPIO creates a GPIO driver on bank.
func NewBankGPIO(bank RegisterBank) *BankGPIO {
	return &BankGPIO{bank: bank}
}

func pinMask(pin GPIOPin) uint32 {
	return uint32(1) << pin
}

// ConfigureOutput sets the direction bit of pin
func (g *BankGPIO) ConfigureOutput(pin GPIOPin) error {
	if pin >= GPIO_PIN_COUNT {
		return ErrInvalidPin
	}
	protected(g.bank, func() {
		modify32(g.bank, regGPADIR, 0, pinMask(pin))
	})
	return nil
}

// ConfigureInput clears the direction bit of pin
func (g *BankGPIO) ConfigureInput(pin GPIOPin) error {
	if pin >= GPIO_PIN_COUNT {
		return ErrInvalidPin
	}
	protected(g.bank, func() {
		modify32(g.bank, regGPADIR, pinMask(pin), 0)
	})
	return nil
}

// SetPin drives the output latch. GPASET/GPACLEAR are write-one registers,
// so no read-modify-write of GPADAT is needed.
func (g *BankGPIO) SetPin(pin GPIOPin, value bool) error {
	if pin >= GPIO_PIN_COUNT {
		return ErrInvalidPin
	}
	if value {
		g.bank.Write32(regGPASET, pinMask(pin))
	} else {
		g.bank.Write32(regGPACLEAR, pinMask(pin))
	}
	return nil
}

// GetPin reads GPADAT
func (g *BankGPIO) GetPin(pin GPIOPin) (bool, error) {
	if pin >= GPIO_PIN_COUNT {
		return false, ErrInvalidPin
	}
	return g.bank.Read32(regGPADAT)&pinMask(pin) != 0, nil
}

// SetMux writes the 2-bit function field of pin
func (g *BankGPIO) SetMux(pin GPIOPin, mux uint8) error {
	if pin >= GPIO_PIN_COUNT {
		return ErrInvalidPin
	}
	reg, shift := gpioMuxReg(pin)
	f := Field[uint32]{Shift: shift, Width: 2}
	protected(g.bank, func() {
		g.bank.Write32(reg, f.Set(g.bank.Read32(reg), uint32(mux)))
	})
	return nil
}

// Mux returns the 2-bit function field of pin
func (g *BankGPIO) Mux(pin GPIOPin) uint8 {
	if pin >= GPIO_PIN_COUNT {
		return 0
	}
	reg, shift := gpioMuxReg(pin)
	return uint8(Field[uint32]{Shift: shift, Width: 2}.Get(g.bank.Read32(reg)))
}
