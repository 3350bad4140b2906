package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"irqarb/core"
	"irqarb/firmware"
	"irqarb/sim"
)

// simBoard is the firmware wired to a simulated MCU
type simBoard struct {
	m   *sim.Machine
	app *firmware.App
}

func newSimBoard(cfg firmware.Config, console io.Writer, trace bool) *simBoard {
	m := sim.NewMachine(cfg.ClockHz, cfg.TimerIRQs())
	if trace {
		m.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	board := firmware.Board{
		GPIO:        m.GPIO(),
		Timers:      m.Timers(),
		EXTI:        m.EXTI(),
		Platform:    m,
		Mask:        m,
		OpenConsole: func() io.Writer { return console },
	}
	core.SetDebugWriter(func(s string) {
		fmt.Fprintln(os.Stderr, s)
	})
	return &simBoard{m: m, app: firmware.New(board, cfg)}
}

func (b *simBoard) run(stim sim.Stimulus) sim.Outcome {
	return b.m.Run(b.app.Run, stim)
}

// summary writes the outcome of a run
func (b *simBoard) summary(w io.Writer, out sim.Outcome) {
	cfg := b.app.Config()
	fmt.Fprintf(w, "steps=%d cycles=%d (%.3fs)\n", out.Steps, out.Cycles, float64(out.Cycles)/float64(cfg.ClockHz))
	fmt.Fprintf(w, "led=%v blink=%d heartbeat=%d button=%d torn=%d\n",
		b.m.GPIO().Output(cfg.LED.Pin),
		b.m.Deliveries(cfg.Blink.IRQ),
		b.m.Deliveries(cfg.Heartbeat.IRQ),
		b.m.Deliveries(cfg.Button.IRQ),
		b.m.Torn())
	switch {
	case out.Err != nil:
		fmt.Fprintf(w, "stimulus error: %v\n", out.Err)
	case out.Fault != nil:
		fmt.Fprintf(w, "halted: %s\n", out.Fault)
	default:
		fmt.Fprintln(w, "stimulus exhausted")
	}
}
