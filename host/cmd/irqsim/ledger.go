package main

import (
	"os"

	"github.com/spf13/cobra"

	"irqarb/core"
	"irqarb/firmware"
	"irqarb/host/audit"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Print the resource table with its ceilings and interference groups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		l, names, err := buildLedger(cfg)
		if err != nil {
			return err
		}
		return audit.Analyze(l, names).Write(os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(ledgerCmd)
}

// buildLedger registers the application's claims and the dispatch ring the
// way System.Init does, then seals the ledger
func buildLedger(cfg firmware.Config) (*core.Ledger, map[core.HandleID]string, error) {
	l := core.NewLedger()
	claims := cfg.Claims()
	if err := firmware.Register(l, claims); err != nil {
		return nil, nil, err
	}
	blink, heartbeat, button := cfg.Contexts()
	if err := l.Register(core.HandleEventRing, core.IdleContext, blink, heartbeat, button); err != nil {
		return nil, nil, err
	}
	l.Seal()

	names := make(map[core.HandleID]string, len(claims))
	for _, c := range claims {
		names[c.Handle] = c.Name
	}
	return l, names, nil
}
