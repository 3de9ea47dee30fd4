package main

import (
	"fmt"
	"io"
	"math"

	"c28pwm/config"
	"c28pwm/core"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type sweepOptions struct {
	solveOptions
	from    string
	to      string
	points  int
	verbose bool
}

var (
	sweepOpts sweepOptions

	sweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "Report frequency error over a range",
		Long: `Solve a logarithmic sweep of frequencies and summarise how far the
produced frequency lands from the request.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := sweepOpts.run()
			if err != nil {
				return err
			}
			res.print(cmd.OutOrStdout(), sweepOpts.verbose)
			return nil
		},
	}
)

func init() {
	f := sweepCmd.Flags()
	f.StringVar(&sweepOpts.from, "from", "1kHz", "lowest frequency")
	f.StringVar(&sweepOpts.to, "to", "200kHz", "highest frequency")
	f.IntVar(&sweepOpts.points, "points", 100, "number of frequencies")
	f.StringVar(&sweepOpts.mode, "mode", "up", "counter mode")
	f.BoolVar(&sweepOpts.timer, "timer", false, "sweep an event-manager timer")
	f.Uint8Var(&sweepOpts.hspClkDiv, "hspclkdiv", 0, "ePWM HSPCLKDIV field code")
	f.BoolVarP(&sweepOpts.verbose, "verbose", "v", false, "print every point")
}

// sweepResult holds the solved points of a sweep and the requests that
// could not be resolved.
type sweepResult struct {
	Points     []solution
	OutOfRange []uint32
}

// sweepFrequencies returns n frequencies spaced logarithmically from lo
// to hi inclusive.
func sweepFrequencies(lo, hi uint32, n int) []uint32 {
	if n == 1 {
		return []uint32{lo}
	}
	out := make([]uint32, 0, n)
	ratio := math.Pow(float64(hi)/float64(lo), 1/float64(n-1))
	f := float64(lo)
	for i := 0; i < n; i++ {
		hz := uint32(math.Round(f))
		if len(out) == 0 || out[len(out)-1] != hz {
			out = append(out, hz)
		}
		f *= ratio
	}
	return out
}

func (o sweepOptions) run() (*sweepResult, error) {
	lo, err := config.ParseFrequency(o.from)
	if err != nil {
		return nil, err
	}
	hi, err := config.ParseFrequency(o.to)
	if err != nil {
		return nil, err
	}
	if hi < lo || o.points < 1 {
		return nil, errors.Errorf("empty sweep %s..%s", o.from, o.to)
	}

	res := &sweepResult{}
	for _, hz := range sweepFrequencies(lo, hi, o.points) {
		s, err := o.solve(hz)
		switch {
		case errors.Cause(err) == core.ErrOutOfRange:
			res.OutOfRange = append(res.OutOfRange, hz)
		case err != nil:
			return nil, err
		default:
			res.Points = append(res.Points, s)
		}
	}
	return res, nil
}

// Stats returns the mean and standard deviation of the relative error and
// the largest absolute relative error.
func (r *sweepResult) Stats() (mean, std, worst float64) {
	if len(r.Points) == 0 {
		return 0, 0, 0
	}
	errs := make([]float64, len(r.Points))
	abs := make([]float64, len(r.Points))
	for i, s := range r.Points {
		errs[i] = s.RelError()
		abs[i] = math.Abs(errs[i])
	}
	mean, std = stat.MeanStdDev(errs, nil)
	if len(errs) == 1 {
		std = 0
	}
	return mean, std, floats.Max(abs)
}

func (r *sweepResult) print(w io.Writer, verbose bool) {
	if verbose {
		for _, s := range r.Points {
			fmt.Fprintf(w, "%10d Hz  period %5d  /%-4d  %+.4f%%\n",
				s.Target, s.Res.Period, s.Divisor, s.RelError()*100)
		}
	}
	mean, std, worst := r.Stats()
	fmt.Fprintf(w, "%d points solved, %d out of range\n", len(r.Points), len(r.OutOfRange))
	fmt.Fprintf(w, "error mean %+.4f%%  std dev %.4f%%  worst %.4f%%\n", mean*100, std*100, worst*100)
}
