package main

import (
	"os"

	"github.com/spf13/cobra"

	"irqarb/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective board configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := config.Validate(&cfg); err != nil {
			return err
		}
		data, err := config.Marshal(&cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
