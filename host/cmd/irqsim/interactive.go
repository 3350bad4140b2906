package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-tty"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"

	"irqarb/core"
	"irqarb/sim"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Drive the simulated board from the keyboard",
	Long: `Interactive runs the firmware and turns key presses into stimulus:

  b        press or release the button
  space    advance 100ms
  t        advance 1s
  u        raise an interrupt nothing handles
  h        hard fault
  q        quit`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		t, err := tty.Open()
		if err != nil {
			return fmt.Errorf("open terminal: %w", err)
		}
		defer t.Close()
		restore, err := t.Raw()
		if err != nil {
			return fmt.Errorf("raw mode: %w", err)
		}
		defer restore()

		out := crlf{os.Stdout}
		b := newSimBoard(cfg, out, false)
		core.SetDebugWriter(func(s string) {
			io.WriteString(out, s+"\n")
		})
		feed := make(sim.Feed)
		done := make(chan sim.Outcome, 1)
		go func() {
			done <- b.run(feed)
		}()

		// the button idles at its pull level
		level := cfg.ButtonPull() == core.PullUp
		stop := make(chan struct{})
		defer close(stop)
		keys := readKeys(t, stop)

		for {
			select {
			case res := <-done:
				io.WriteString(out, "\n")
				b.summary(out, res)
				return nil
			case r, ok := <-keys:
				if !ok {
					keys = nil
					close(feed)
					continue
				}
				var step sim.Step
				switch r {
				case 'b':
					level = !level
					step = sim.Drive{Pin: cfg.Button.Pin, Level: level}
				case ' ', 'a':
					step = sim.Advance{Millis: 100}
				case 't':
					step = sim.Advance{Millis: 1000}
				case 'u':
					step = sim.Pend{IRQ: strayIRQ(cfg.Blink.IRQ, cfg.Heartbeat.IRQ, cfg.Button.IRQ), Priority: core.MaxPriority}
				case 'h':
					step = sim.Crash{PC: 0x0800_0000}
				case 'q', 3:
					close(feed)
					res := <-done
					io.WriteString(out, "\n")
					b.summary(out, res)
					return nil
				default:
					continue
				}
				select {
				case feed <- step:
				case res := <-done:
					io.WriteString(out, "\n")
					b.summary(out, res)
					return nil
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

type runeReader interface {
	ReadRune() (rune, error)
}

// readKeys forwards runes from r until a read fails or stop is closed. The
// returned channel is closed when the reader exits.
func readKeys(r runeReader, stop <-chan struct{}) <-chan rune {
	keys := make(chan rune)
	go func() {
		defer close(keys)
		for {
			k, err := r.ReadRune()
			if err != nil {
				return
			}
			select {
			case keys <- k:
			case <-stop:
				return
			}
		}
	}()
	return keys
}

// crlf adds carriage returns for a terminal in raw mode
type crlf struct {
	w io.Writer
}

func (c crlf) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// strayIRQ returns the lowest line no handler is bound to
func strayIRQ(used ...core.IRQ) core.IRQ {
	for irq := core.IRQ(0); irq < core.MaxIRQ; irq++ {
		if !slices.Contains(used, irq) {
			return irq
		}
	}
	return 0
}
