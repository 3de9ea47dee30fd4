package main

import (
	"fmt"

	"c28pwm/config"
	"c28pwm/core"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var deadbandCmd = &cobra.Command{
	Use:   "deadband DURATION...",
	Short: "Resolve dead-band durations into timer codes",
	Long: `Resolve each dead band (e.g. 300ns, 1.2us) into the DBTCON prescaler and
period code and the delay it produces in clock ticks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		maxNs := core.MaxDeadbandNs(core.SysClock())
		fmt.Fprintf(out, "maximum %dns at %d Hz\n", maxNs, core.SysClock())
		for _, arg := range args {
			ns, err := config.ParseDeadBand(arg)
			if err != nil {
				return err
			}
			code, err := core.SolveDeadband(ns, core.SysClock())
			if err != nil {
				return errors.Wrapf(err, "dead band %s", arg)
			}
			fmt.Fprintf(out, "%s: prescaler %d period %d, %d ticks (%dns)\n",
				arg, code.Prescaler, code.Period, code.Ticks(), core.NsFromTicks(code.Ticks()))
		}
		return nil
	},
}
