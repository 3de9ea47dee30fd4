// Command pwmtool solves C28x timer and PWM timing offline, simulates
// board profiles on a memory bank and drives a running controller over
// its serial link.
package main

import (
	"os"

	"c28pwm/config"
	"c28pwm/core"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	sysclk string

	rootCmd = &cobra.Command{
		Use:   "pwmtool",
		Short: "C28x timer and PWM configuration tool",
		Long: `pwmtool resolves frequencies and dead bands into register values the
way the firmware does, checks board profiles and talks to a controller
running the c28pwm firmware.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			hz, err := config.ParseFrequency(sysclk)
			if err != nil {
				return err
			}
			if hz < 1000000 {
				return errors.Errorf("system clock %s below 1MHz", sysclk)
			}
			core.SetSysClock(hz)
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&sysclk, "sysclk", config.DefaultSysclk, "system clock frequency")
	rootCmd.AddCommand(solveCmd, deadbandCmd, hiresCmd, sweepCmd, simCmd, consoleCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
