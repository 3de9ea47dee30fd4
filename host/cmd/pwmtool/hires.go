package main

import (
	"fmt"
	"math"
	"strconv"

	"c28pwm/config"
	"c28pwm/core"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	hiresOpts struct {
		freq  string
		mode  string
		steps uint16
	}

	hiresCmd = &cobra.Command{
		Use:   "hires DUTY...",
		Short: "Encode duty cycles as high-resolution compare values",
		Long: `Encode each duty cycle, in percent of the period, as the CMPA:CMPAHR
pair a high-resolution module would be programmed with.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runHires,
	}
)

func init() {
	f := hiresCmd.Flags()
	f.StringVar(&hiresOpts.freq, "freq", config.DefaultFrequency, "PWM frequency")
	f.StringVar(&hiresOpts.mode, "mode", "up", "counter mode")
	f.Uint16Var(&hiresOpts.steps, "steps", 0, "MEP steps per clock, 0 derives it from --sysclk")
}

func runHires(cmd *cobra.Command, args []string) error {
	hz, err := config.ParseFrequency(hiresOpts.freq)
	if err != nil {
		return err
	}
	s, err := solveOptions{mode: hiresOpts.mode}.solve(hz)
	if err != nil {
		return err
	}
	steps := hiresOpts.steps
	if steps == 0 {
		steps = core.MEPSteps(core.SysClock())
	}
	if steps == 0 {
		return errors.New("system clock too low for high resolution")
	}
	span := uint32(s.Res.Period) + 1
	if s.UpDown {
		span = uint32(s.Res.Period)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "period %d, %d MEP steps per tick\n", s.Res.Period, steps)
	for _, arg := range args {
		duty, err := strconv.ParseFloat(arg, 64)
		if err != nil || duty < 0 || duty > 100 {
			return errors.Errorf("bad duty %q", arg)
		}
		target := uint32(math.Round(duty / 100 * float64(span) * float64(steps)))
		m := core.EncodeDutyHighRes(target, steps)
		fmt.Fprintf(out, "%6.3f%%: target %d, CMPA %d CMPAHR 0x%02X (0x%08X), decodes to %d\n",
			duty, target, m.Coarse, m.Micro>>8, m.Pack(), core.DecodeDutyHighRes(m, steps))
	}
	return nil
}
