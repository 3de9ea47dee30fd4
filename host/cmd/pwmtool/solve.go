package main

import (
	"fmt"
	"io"

	"c28pwm/config"
	"c28pwm/core"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type solveOptions struct {
	mode      string
	timer     bool
	hspClkDiv uint8
}

var (
	solveOpts solveOptions

	solveCmd = &cobra.Command{
		Use:   "solve FREQUENCY...",
		Short: "Resolve frequencies into period and prescaler",
		Long: `Resolve each frequency (e.g. 20kHz) into the period register value and
clock prescaler the firmware would program, and report the frequency the
hardware actually produces.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, arg := range args {
				hz, err := config.ParseFrequency(arg)
				if err != nil {
					return err
				}
				s, err := solveOpts.solve(hz)
				if err != nil {
					return err
				}
				s.print(out)
			}
			return nil
		},
	}
)

func init() {
	f := solveCmd.Flags()
	f.StringVar(&solveOpts.mode, "mode", "up", "counter mode")
	f.BoolVar(&solveOpts.timer, "timer", false, "solve for an event-manager timer instead of an ePWM time base")
	f.Uint8Var(&solveOpts.hspClkDiv, "hspclkdiv", 0, "ePWM HSPCLKDIV field code")
}

// solution is a solved period with the context needed to report it.
type solution struct {
	Target  uint32
	Mode    string
	Res     core.Resolution
	Divisor uint32 // total clock division ahead of the counter
	UpDown  bool
}

// ActualHz is the output frequency the solved registers produce.
func (s solution) ActualHz() float64 {
	ticks := float64(s.Res.Period) + 1
	if s.UpDown {
		ticks = 2 * float64(s.Res.Period)
	}
	return float64(core.SysClock()) / (float64(s.Divisor) * ticks)
}

// RelError is the relative deviation from the requested frequency.
func (s solution) RelError() float64 {
	return (s.ActualHz() - float64(s.Target)) / float64(s.Target)
}

func (s solution) print(w io.Writer) {
	fmt.Fprintf(w, "%d Hz (%s)\n", s.Target, s.Mode)
	fmt.Fprintf(w, "  period    %d\n", s.Res.Period)
	fmt.Fprintf(w, "  prescale  /%d (code %d)\n", s.Divisor, s.Res.Prescaler)
	fmt.Fprintf(w, "  actual    %.3f Hz\n", s.ActualHz())
	fmt.Fprintf(w, "  error     %+.4f%%\n", s.RelError()*100)
}

func (o solveOptions) solve(hz uint32) (solution, error) {
	if hz > core.SysClock() {
		return solution{}, errors.Errorf("%d Hz is above the system clock", hz)
	}
	s := solution{Target: hz, Mode: o.mode}

	if o.timer {
		mode, err := config.ParseTimerCountMode(o.mode)
		if err != nil {
			return s, err
		}
		s.Res, err = core.SolveTimerPeriod(hz, mode)
		if err != nil {
			return s, errors.Wrapf(err, "%d Hz", hz)
		}
		s.Divisor = s.Res.Divisor(core.ClkDivLadder)
		s.UpDown = mode == core.TimerContUpDown || mode == core.TimerDirUpDown
		return s, nil
	}

	if int(o.hspClkDiv) >= len(core.HSPClkDivLadder) {
		return s, errors.Errorf("hspclkdiv code %d out of range", o.hspClkDiv)
	}
	mode, err := config.ParsePWMCountMode(o.mode)
	if err != nil {
		return s, err
	}
	s.Res, err = core.SolveTimeBase(hz, core.TimeBase{CountMode: mode, HSPClkDiv: o.hspClkDiv})
	if err != nil {
		return s, errors.Wrapf(err, "%d Hz", hz)
	}
	s.Divisor = s.Res.Divisor(core.ClkDivLadder) * uint32(core.HSPClkDivLadder[o.hspClkDiv])
	s.UpDown = mode == core.CountUpDown
	return s, nil
}
