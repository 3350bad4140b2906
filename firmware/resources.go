package firmware

import "irqarb/core"

// Peripheral handles of the application
const (
	HandleLEDPort core.HandleID = iota
	HandleBlinkTimer
	HandleHeartbeatTimer
	HandleButton
	HandleConsole
)

// Claim lists the contexts that touch one handle
type Claim struct {
	Handle core.HandleID
	Name   string
	Owners []core.Context
}

// Claims is the resource table of the application. The LED port and the
// console are shared by the idle, blink and button contexts; each event
// source belongs to its own context.
func (c Config) Claims() []Claim {
	blink, heartbeat, button := c.Contexts()
	idle := core.IdleContext
	return []Claim{
		{Handle: HandleLEDPort, Name: core.PinPort(c.LED.Pin).String(), Owners: []core.Context{idle, blink, button}},
		{Handle: HandleBlinkTimer, Name: core.TimerUnit(c.Blink.Timer).String(), Owners: []core.Context{blink}},
		{Handle: HandleHeartbeatTimer, Name: core.TimerUnit(c.Heartbeat.Timer).String(), Owners: []core.Context{heartbeat}},
		{Handle: HandleButton, Name: "EXTI", Owners: []core.Context{button}},
		{Handle: HandleConsole, Name: "console", Owners: []core.Context{idle, blink, button}},
	}
}

// Register enters every claim into the ledger
func Register(l *core.Ledger, claims []Claim) error {
	for _, cl := range claims {
		if err := l.Register(cl.Handle, cl.Owners...); err != nil {
			return err
		}
	}
	return nil
}
