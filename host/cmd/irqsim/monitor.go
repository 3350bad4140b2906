package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"irqarb/host/monitor"
	"irqarb/host/serial"
)

var (
	device     string
	baud       int
	untilFault bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Decode the diagnostic channel of a board",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := serial.DefaultConfig(device)
		cfg.Baud = baud
		port, err := serial.Open(cfg)
		if err != nil {
			return err
		}
		defer port.Close()
		if err := port.Flush(); err != nil {
			return err
		}

		var tally monitor.Tally
		err = monitor.Watch(port, func(ev monitor.Event) bool {
			tally.Add(ev)
			switch ev.Kind {
			case monitor.KindText, monitor.KindDump:
				fmt.Println(ev.Text)
			case monitor.KindUnhandled:
				fmt.Printf("%-10s irq=%d\n", ev.Kind, ev.IRQ)
			default:
				fmt.Printf("%-10s %s\n", ev.Kind, ev.Text)
			}
			return !(untilFault && ev.Kind.Terminal())
		})
		fmt.Fprintf(os.Stderr, "toggles=%d presses=%d releases=%d faults=%d\n",
			tally.Toggles, tally.Presses, tally.Releases, len(tally.Faults))
		return err
	},
}

func init() {
	monitorCmd.Flags().StringVar(&device, "device", "/dev/ttyACM0", "serial device path")
	monitorCmd.Flags().IntVar(&baud, "baud", 115200, "baud rate")
	monitorCmd.Flags().BoolVar(&untilFault, "until-fault", true, "stop after the first halt report")
	rootCmd.AddCommand(monitorCmd)
}
