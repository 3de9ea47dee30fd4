//go:build c28x

package main

import "c28pwm/core"

// SCI-B carries debug text at the same rate as the command link.
var debugSCI *SCI

// InitDebugSCI routes core debug output to SCI-B on GPIO22 (TX) and
// GPIO23 (RX).
func InitDebugSCI(bank core.RegisterBank) {
	debugSCI = NewSCI(bank, scibBase, linkBaud, scibPins)
	core.SetDebugWriter(func(s string) {
		debugSCI.Write([]byte(s))
		debugSCI.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(true)
	core.DebugPrintln("=== c28pwm debug ===")
}
