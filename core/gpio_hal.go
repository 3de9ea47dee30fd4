package core

// GPIOPin identifies a GPIO port A pin number (0..31)
type GPIOPin uint8

// GPIO_PIN_COUNT is the number of port A pins
const GPIO_PIN_COUNT = 32

// GPIODriver is the abstract GPIO interface that core code uses.
// The pin disable policy and the fault indicator drive pins through it.
type GPIODriver interface {
	// ConfigureOutput makes pin an output (GPADIR=1)
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInput makes pin an input (GPADIR=0)
	ConfigureInput(pin GPIOPin) error

	// SetPin writes the output data latch through GPASET/GPACLEAR
	SetPin(pin GPIOPin, value bool) error

	// GetPin reads the current pin state
	GetPin(pin GPIOPin) (bool, error)

	// SetMux selects the pin function (MUX_GPIO, MUX_PERIPHERAL, ...)
	SetMux(pin GPIOPin, mux uint8) error

	// Mux returns the current pin function
	Mux(pin GPIOPin) uint8
}

// Global singleton used by core code.
var gpioDriver GPIODriver

// SetGPIODriver is called by target-specific code to register its driver.
func SetGPIODriver(d GPIODriver) {
	gpioDriver = d
}

// MustGPIO returns the configured driver or panics if missing.
func MustGPIO() GPIODriver {
	if gpioDriver == nil {
		panic("GPIO driver not configured")
	}
	return gpioDriver
}
