//go:build c28x

package main

import (
	"c28pwm/core"
	"c28pwm/protocol"
)

const (
	sysclkHz = core.SYSCLK_DEFAULT_HZ
	linkBaud = 115200
)

func main() {
	bank := volatileBank{}
	disableWatchdog(bank)
	core.SetSysClock(sysclkHz)
	core.SetRegisterBank(bank)
	core.SetGPIODriver(core.NewBankGPIO(core.MustRegs()))

	InitDebugSCI(core.MustRegs())
	core.SetAbortHandler(onAbort)

	dev := core.NewDevice(core.MustRegs())
	gateOutputs = dev.Objects().DisableOutputs

	sci := NewSCI(core.MustRegs(), sciaBase, linkBaud, sciaPins)
	link := protocol.NewLink(sci, dev.Handle)
	dev.SetSender(link.Transport())
	link.Transport().SetErrorCallback(func(id uint16, err error) {
		core.DebugPrintln("[LINK] command failed: " + err.Error())
	})
	link.Transport().SetResetCallback(func() {
		core.DebugPrintln("[LINK] host restarted")
	})

	for {
		if err := link.Poll(); err != nil {
			core.DebugPrintln("[LINK] " + err.Error())
		}
		// timer interrupts are serviced by polling their flags
		for id := core.Timer1; id < core.TIMER_COUNT; id++ {
			core.HandleTimerInterrupt(id)
		}
	}
}
