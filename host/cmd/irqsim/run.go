package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"irqarb/sim"
)

var (
	trace      bool
	unlocked   bool
	idleToggle bool
)

var runCmd = &cobra.Command{
	Use:   "run [script]",
	Short: "Run the firmware against a stimulus script",
	Long: `Run boots the firmware on the simulated MCU and applies the script one
step per idle wakeup. Reads the script from stdin when no file is given.

Script commands:
  advance N | advance Nms   run the input clock
  high PIN | low PIN        drive an input pin
  float PIN                 release a pin to its pull
  bounce PIN N              toggle a pin N times back to back
  pend IRQ [PRIO]           raise a stray interrupt
  hardfault [PC]            fault the idle context`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if unlocked {
			cfg.Unlocked = true
		}
		if idleToggle {
			cfg.IdleToggle = true
		}

		var in io.Reader = os.Stdin
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		script, err := sim.ParseScript(in)
		if err != nil {
			return fmt.Errorf("script: %w", err)
		}

		b := newSimBoard(cfg, os.Stdout, trace)
		out := b.run(script.Cursor())
		fmt.Fprintln(os.Stdout)
		b.summary(os.Stdout, out)
		if out.Err != nil {
			return out.Err
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVarP(&trace, "trace", "t", false, "trace interrupt entry and exit on stderr")
	runCmd.Flags().BoolVar(&unlocked, "unlocked", false, "toggle the LED without claiming its port")
	runCmd.Flags().BoolVar(&idleToggle, "idle-toggle", false, "toggle the LED and print OK after every wakeup")
	rootCmd.AddCommand(runCmd)
}
