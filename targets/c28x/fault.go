//go:build c28x

package main

import (
	"runtime/interrupt"

	"c28pwm/core"
)

// faultLED is the controlCARD status LED.
const faultLED core.GPIOPin = 31

// gateOutputs closes every output before the fault loop takes over.
var gateOutputs func()

// onAbort is the firmware abort hook: it forces the PWM outputs to their
// disabled state, dumps the timing ring and blinks the fault code forever.
func onAbort(code core.FaultCode) {
	interrupt.Disable()
	if gateOutputs != nil {
		gateOutputs()
	}
	core.DumpTimingRing()

	gpio := core.MustGPIO()
	gpio.SetMux(faultLED, core.MUX_GPIO)
	gpio.ConfigureOutput(faultLED)
	for {
		for i := core.FaultCode(0); i < code; i++ {
			gpio.SetPin(faultLED, true)
			spin(200000)
			gpio.SetPin(faultLED, false)
			spin(200000)
		}
		spin(1000000)
	}
}

// spin burns n register reads.
func spin(n int) {
	bank := core.MustRegs()
	for i := 0; i < n; i++ {
		bank.Read16(regWDCR)
	}
}
