package main

import (
	"fmt"
	"io"
	"sort"

	"c28pwm/config"
	"c28pwm/core"
	"github.com/spf13/cobra"
)

var (
	simOpts struct {
		regs bool
	}

	simCmd = &cobra.Command{
		Use:   "sim [PROFILE]",
		Short: "Build a board profile on a simulated register bank",
		Long: `Load a JSON board profile, or the built-in inverter profile when none
is given, build it on an in-memory register bank and print the resulting
controller state. The profile's sysclk overrides --sysclk.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSim,
	}
)

func init() {
	simCmd.Flags().BoolVar(&simOpts.regs, "regs", false, "dump every non-zero register")
}

func runSim(cmd *cobra.Command, args []string) error {
	p := config.DefaultProfile()
	if len(args) == 1 {
		var err error
		if p, err = config.LoadFile(args[0]); err != nil {
			return err
		}
	}
	bank := core.NewMemoryBank()
	sys, err := config.Build(p, bank)
	if err != nil {
		return err
	}
	defer sys.Destroy()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "profile %q at %d Hz, %d register writes\n", p.Name, core.SysClock(), bank.WriteCount())
	printSystem(out, sys)
	if simOpts.regs {
		fmt.Fprintln(out, "\nregisters:")
		for _, w := range bank.Snapshot() {
			fmt.Fprintf(out, "  0x%05X = 0x%04X\n", uint32(w.Reg), w.Value)
		}
	}
	if n := bank.Violations(); n > 0 {
		fmt.Fprintf(out, "warning: %d protected writes dropped\n", n)
	}
	return nil
}

func printSystem(w io.Writer, sys *config.System) {
	for f := core.FunctionTag(0); f < core.FUNCTION_COUNT; f++ {
		tc, ok := sys.Timers[f]
		if !ok {
			continue
		}
		r := tc.Period()
		fmt.Fprintf(w, "timer %d (%s): period %d prescale /%d compare %d, %d Hz\n",
			tc.ID+1, f, r.Period, r.Divisor(core.ClkDivLadder), tc.Compare(), tc.FrequencyHz())
	}

	modules := make([]int, 0, len(sys.PWM))
	for n := range sys.PWM {
		modules = append(modules, n)
	}
	sort.Ints(modules)
	for _, n := range modules {
		m := sys.PWM[n]
		r := m.Period()
		red, fed := m.Deadband()
		fmt.Fprintf(w, "epwm%d: period %d clkdiv %d cmpa %d cmpb %d red %d fed %d outputs %v\n",
			n, r.Period, r.Prescaler, m.CompareA(), m.CompareB(), red, fed, m.OutputsEnabled())
	}

	for _, p := range sys.Pairs {
		cfg := p.Config()
		fmt.Fprintf(w, "pair %d: type %d duty %d dead band %d ticks\n",
			p.ID, cfg.Type, cfg.Duty, p.Deadband().Ticks())
	}
}
