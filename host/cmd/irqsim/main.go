package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"irqarb/config"
	"irqarb/firmware"
)

var (
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "irqsim",
	Short: "Host tools for the interrupt arbitration firmware",
	Long: `irqsim runs the firmware on a simulated MCU, audits its resource
table and watches the diagnostic channel of a real board.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "board configuration (YAML); defaults to the Nucleo board")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable firmware debug output")
}

// loadConfig returns the configuration named by --config, or the built-in
// defaults
func loadConfig() (firmware.Config, error) {
	var cfg firmware.Config
	if configPath == "" {
		cfg = firmware.DefaultConfig()
	} else {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = *loaded
	}
	if debug {
		cfg.Debug = true
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
