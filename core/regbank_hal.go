package core

// Global singleton used by core code.
var regBank RegisterBank

// SetRegisterBank is called by target-specific code to register its bank.
func SetRegisterBank(b RegisterBank) {
	regBank = b
}

// MustRegs returns the configured register bank or panics if missing.
func MustRegs() RegisterBank {
	if regBank == nil {
		panic("register bank not configured")
	}
	return regBank
}
