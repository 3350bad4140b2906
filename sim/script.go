package sim

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"irqarb/core"
)

// Step is one stimulus applied while the idle context sleeps
type Step interface {
	Apply(m *Machine) error
	String() string
}

// Stimulus yields steps until it runs out
type Stimulus interface {
	Next() (Step, bool)
}

// Script is a fixed list of steps
type Script []Step

// Cursor returns a Stimulus that walks the script once
func (s Script) Cursor() Stimulus {
	return &scriptCursor{steps: s}
}

type scriptCursor struct {
	steps Script
	pos   int
}

func (c *scriptCursor) Next() (Step, bool) {
	if c.pos >= len(c.steps) {
		return nil, false
	}
	s := c.steps[c.pos]
	c.pos++
	return s, true
}

// Feed is a Stimulus fed from another goroutine; closing it ends the run
type Feed chan Step

// Next blocks for the next step
func (f Feed) Next() (Step, bool) {
	s, ok := <-f
	return s, ok
}

// Advance runs the input clock. Millis, if set, is converted with the
// machine's clock.
type Advance struct {
	Cycles uint64
	Millis uint64
}

func (a Advance) Apply(m *Machine) error {
	n := a.Cycles
	if a.Millis != 0 {
		n = a.Millis * uint64(m.ClockHz) / 1000
	}
	m.Advance(n)
	return nil
}

func (a Advance) String() string {
	if a.Millis != 0 {
		return "advance " + strconv.FormatUint(a.Millis, 10) + "ms"
	}
	return "advance " + strconv.FormatUint(a.Cycles, 10)
}

// Drive forces a level on an input pin
type Drive struct {
	Pin   core.GPIOPin
	Level bool
}

func (d Drive) Apply(m *Machine) error {
	return m.Drive(d.Pin, d.Level)
}

func (d Drive) String() string {
	if d.Level {
		return "high " + d.Pin.String()
	}
	return "low " + d.Pin.String()
}

// Float releases an input pin to its pull
type Float struct {
	Pin core.GPIOPin
}

func (f Float) Apply(m *Machine) error {
	return m.Float(f.Pin)
}

func (f Float) String() string {
	return "float " + f.Pin.String()
}

// Bounce toggles an input pin Count times without waiting in between
type Bounce struct {
	Pin   core.GPIOPin
	Count int
}

func (b Bounce) Apply(m *Machine) error {
	level := m.pinLevel(b.Pin)
	for i := 0; i < b.Count; i++ {
		level = !level
		if err := m.Drive(b.Pin, level); err != nil {
			return err
		}
	}
	return nil
}

func (b Bounce) String() string {
	return "bounce " + b.Pin.String() + " " + strconv.Itoa(b.Count)
}

// Pend raises a stray interrupt request
type Pend struct {
	IRQ      core.IRQ
	Priority core.Priority
}

func (p Pend) Apply(m *Machine) error {
	m.Raise(p.IRQ, p.Priority)
	return nil
}

func (p Pend) String() string {
	return fmt.Sprintf("pend %d %d", p.IRQ, p.Priority)
}

// Crash triggers a hard fault in the idle context
type Crash struct {
	PC uint32
}

func (c Crash) Apply(m *Machine) error {
	m.busFault(c.PC)
	return nil
}

func (c Crash) String() string {
	return fmt.Sprintf("hardfault 0x%08x", c.PC)
}

// ParseScript reads one step per line. Blank lines and # comments are
// skipped. Commands:
//
//	advance <cycles>|<n>ms
//	high <pin> | low <pin> | float <pin>
//	bounce <pin> <count>
//	pend <irq> [priority]
//	hardfault [pc]
func ParseScript(r io.Reader) (Script, error) {
	var script Script
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		words, err := shlex.Split(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if len(words) == 0 {
			continue
		}
		step, err := ParseStep(words)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		script = append(script, step)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return script, nil
}

// ParseStep parses one tokenized command
func ParseStep(words []string) (Step, error) {
	cmd, args := strings.ToLower(words[0]), words[1:]
	switch cmd {
	case "advance":
		if len(args) != 1 {
			return nil, fmt.Errorf("advance takes one argument")
		}
		if ms, ok := strings.CutSuffix(args[0], "ms"); ok {
			n, err := strconv.ParseUint(ms, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("advance: %w", err)
			}
			return Advance{Millis: n}, nil
		}
		n, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("advance: %w", err)
		}
		return Advance{Cycles: n}, nil

	case "high", "low", "float":
		if len(args) != 1 {
			return nil, fmt.Errorf("%s takes a pin", cmd)
		}
		pin, err := core.ParsePin(args[0])
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", cmd, args[0], err)
		}
		if cmd == "float" {
			return Float{Pin: pin}, nil
		}
		return Drive{Pin: pin, Level: cmd == "high"}, nil

	case "bounce":
		if len(args) != 2 {
			return nil, fmt.Errorf("bounce takes a pin and a count")
		}
		pin, err := core.ParsePin(args[0])
		if err != nil {
			return nil, fmt.Errorf("bounce %q: %w", args[0], err)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("bounce: invalid count %q", args[1])
		}
		return Bounce{Pin: pin, Count: n}, nil

	case "pend":
		if len(args) < 1 || len(args) > 2 {
			return nil, fmt.Errorf("pend takes an irq and an optional priority")
		}
		irq, err := strconv.Atoi(args[0])
		if err != nil || irq < 0 || irq >= core.MaxIRQ {
			return nil, fmt.Errorf("pend: invalid irq %q", args[0])
		}
		prio := core.MaxPriority
		if len(args) == 2 {
			p, err := strconv.ParseUint(args[1], 10, 8)
			if err != nil || core.Priority(p) > core.MaxPriority {
				return nil, fmt.Errorf("pend: invalid priority %q", args[1])
			}
			prio = core.Priority(p)
		}
		return Pend{IRQ: core.IRQ(irq), Priority: prio}, nil

	case "hardfault":
		var pc uint64
		if len(args) > 0 {
			var err error
			pc, err = strconv.ParseUint(args[0], 0, 32)
			if err != nil {
				return nil, fmt.Errorf("hardfault: %w", err)
			}
		}
		return Crash{PC: uint32(pc)}, nil
	}
	return nil, fmt.Errorf("unknown command %q", words[0])
}
