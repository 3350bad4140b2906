// Package firmware is the application that runs on the core: a timer that
// blinks an LED, a heartbeat timer and a push button that also toggles the
// LED. The idle loop can toggle the same LED after every wakeup. It is board
// independent; a Board supplies the drivers.
package firmware

import (
	"io"

	"irqarb/core"
)

// Board is the set of drivers the application runs on
type Board struct {
	GPIO     core.GPIODriver
	Timers   core.TimerDriver
	EXTI     core.EXTIDriver
	Platform core.Platform
	Mask     core.PriorityMask

	// OpenConsole opens the output stream. It is called on the first
	// message, from interrupt context.
	OpenConsole func() io.Writer
}

// console is an output stream opened on first use
type console struct {
	open func() io.Writer
	w    io.Writer
}

// print writes s and drops write errors; losing the console must not
// disturb the handlers
func (c *console) print(s string) {
	if c.w == nil {
		if c.open == nil {
			return
		}
		c.w = c.open()
		if c.w == nil {
			return
		}
	}
	_, _ = io.WriteString(c.w, s)
}

// App owns the peripherals of the application and its interrupt handlers
type App struct {
	cfg   Config
	board Board
	sys   *core.System

	led       *core.OutputLine
	blink     *core.TimerSource
	heartbeat *core.TimerSource
	button    *core.EdgeSource
	out       *console

	ledPort       *core.Resource[*core.OutputLine]
	blinkTimer    *core.Resource[*core.TimerSource]
	heartbeatTime *core.Resource[*core.TimerSource]
	buttonLines   *core.Resource[*core.EdgeSource]
	consoleRes    *core.Resource[*console]
}

// New creates the application and its system. Nothing touches the hardware
// until Run or Init.
func New(board Board, cfg Config) *App {
	return &App{
		cfg:   cfg,
		board: board,
		sys:   core.NewSystem(board.Platform, board.Mask),
		out:   &console{open: board.OpenConsole},
	}
}

// System returns the core system the application runs on
func (a *App) System() *core.System { return a.sys }

// Config returns the configuration the application was built with
func (a *App) Config() Config { return a.cfg }

// LED returns the output actuator
func (a *App) LED() *core.OutputLine { return a.led }

// BlinkTimer returns the timer event source of the blink context
func (a *App) BlinkTimer() *core.TimerSource { return a.blink }

// HeartbeatTimer returns the timer event source of the heartbeat context
func (a *App) HeartbeatTimer() *core.TimerSource { return a.heartbeat }

// Button returns the edge event source of the button context
func (a *App) Button() *core.EdgeSource { return a.button }

// Run initializes the board and enters the idle loop. It never returns.
func (a *App) Run() {
	a.sys.Run(a.Setup)
}

// Init initializes the board without entering the idle loop
func (a *App) Init() error {
	return a.sys.Init(a.Setup)
}

// Setup configures clocks, pins, timers and the edge source, registers the
// resource table and binds the handlers. It runs with interrupts masked.
func (a *App) Setup(s *core.System) error {
	cfg := a.cfg
	core.SetDebugEnabled(cfg.Debug)

	s.EnableClock(cfg.Clocks...)

	if err := Register(s.Ledger, cfg.Claims()); err != nil {
		return err
	}

	led, err := core.NewOutputLine(a.board.GPIO, cfg.LED.Pin, cfg.LED.Pull, cfg.LED.DefaultOn)
	if err != nil {
		return err
	}
	a.led = led
	core.OnShutdown(led.Shutdown)

	a.blink = core.NewTimerSource(a.board.Timers, cfg.Blink.Timer)
	if err := a.blink.Configure(cfg.Blink.TimerConfig); err != nil {
		return err
	}
	a.heartbeat = core.NewTimerSource(a.board.Timers, cfg.Heartbeat.Timer)
	if err := a.heartbeat.Configure(cfg.Heartbeat.TimerConfig); err != nil {
		return err
	}

	a.button = core.NewEdgeSource(a.board.EXTI, a.board.GPIO)
	if err := a.button.Configure(cfg.Button.Pin, cfg.Button.Trigger, cfg.ButtonPull()); err != nil {
		return err
	}

	arb := s.Arbiter
	a.ledPort = core.NewResource(arb, HandleLEDPort, a.led)
	a.blinkTimer = core.NewResource(arb, HandleBlinkTimer, a.blink)
	a.heartbeatTime = core.NewResource(arb, HandleHeartbeatTimer, a.heartbeat)
	a.buttonLines = core.NewResource(arb, HandleButton, a.button)
	a.consoleRes = core.NewResource(arb, HandleConsole, a.out)

	blink, heartbeat, button := cfg.Contexts()
	if err := s.Dispatcher.Bind(cfg.Blink.IRQ, blink, a.onBlink); err != nil {
		return err
	}
	if err := s.Dispatcher.Bind(cfg.Heartbeat.IRQ, heartbeat, a.onHeartbeat); err != nil {
		return err
	}
	if err := s.Dispatcher.Bind(cfg.Button.IRQ, button, a.onButton); err != nil {
		return err
	}

	if cfg.IdleToggle {
		s.OnIdle(a.onIdle)
	}

	a.blink.Enable()
	a.heartbeat.Enable()

	core.DebugPrintln("[APP] setup done, led=" + cfg.LED.Pin.String() + " button=" + cfg.Button.Pin.String())
	return nil
}

// toggleLED flips the LED under the port's critical section
func (a *App) toggleLED() {
	if a.cfg.Unlocked {
		a.led.Toggle()
		return
	}
	a.ledPort.Lock(func(l *core.OutputLine) {
		l.Toggle()
	})
}

func (a *App) print(s string) {
	a.consoleRes.Lock(func(c *console) {
		c.print(s)
	})
}

// onIdle runs in the idle context, raising the mask to the port's ceiling
// for the toggle
func (a *App) onIdle() {
	a.toggleLED()
	a.print("OK\n")
}

func (a *App) onBlink() {
	a.blinkTimer.Lock(func(t *core.TimerSource) {
		serviced := t.Service(func() {
			a.toggleLED()
		})
		if !serviced {
			core.DebugPrintln("[APP] blink: no update pending")
			return
		}
		a.print("TOGGLE\n")
	})
}

func (a *App) onHeartbeat() {
	a.heartbeatTime.Lock(func(t *core.TimerSource) {
		if err := t.Acknowledge(); err != nil {
			core.DebugPrintln("[APP] heartbeat: " + err.Error())
		}
	})
}

func (a *App) onButton() {
	a.buttonLines.Lock(func(s *core.EdgeSource) {
		s.Service(func(ev core.EdgeEvent) {
			a.toggleLED()
			if ev.Level {
				a.print("p")
			} else {
				a.print("r")
			}
		})
	})
}
