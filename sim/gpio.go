package sim

import (
	"errors"

	"irqarb/core"
)

// NumPorts is the number of simulated GPIO ports (GPIOA..GPIOD)
const NumPorts = 4

const (
	modeInput  = 0
	modeOutput = 1
)

var ErrNoSuchPort = errors.New("sim: no such GPIO port")

type gpioPort struct {
	moder reg // 2 bits per pin
	pupdr reg // 2 bits per pin, values are core.Pull
	odr   reg
	last  uint32         // input level seen by the edge detector
	drive map[uint8]bool // externally driven input levels
}

// GPIO implements core.GPIODriver on the simulated ports
type GPIO struct {
	m *Machine
}

func (g *GPIO) port(pin core.GPIOPin) (*gpioPort, bool) {
	if int(pin.Port()) >= NumPorts {
		return nil, false
	}
	if !g.m.clocks[core.PinPort(pin)] {
		return nil, false
	}
	return &g.m.ports[pin.Port()], true
}

func field2(pin core.GPIOPin, v uint32) func(uint32) uint32 {
	shift := uint32(pin.Number()) * 2
	return func(r uint32) uint32 {
		return r&^(3<<shift) | (v&3)<<shift
	}
}

func (g *GPIO) configure(pin core.GPIOPin, mode uint32, pull core.Pull) error {
	if int(pin.Port()) >= NumPorts {
		return ErrNoSuchPort
	}
	p, ok := g.port(pin)
	if !ok {
		return nil // unclocked port ignores writes
	}
	g.m.modify(&p.moder, field2(pin, mode))
	g.m.modify(&p.pupdr, field2(pin, uint32(pull)))
	p.setLast(pin, g.m.pinLevel(pin))
	return nil
}

// ConfigureOutput implements core.GPIODriver
func (g *GPIO) ConfigureOutput(pin core.GPIOPin, pull core.Pull) error {
	return g.configure(pin, modeOutput, pull)
}

// ConfigureInput implements core.GPIODriver
func (g *GPIO) ConfigureInput(pin core.GPIOPin, pull core.Pull) error {
	return g.configure(pin, modeInput, pull)
}

// SetPin implements core.GPIODriver as a read-modify-write of the output
// data register
func (g *GPIO) SetPin(pin core.GPIOPin, value bool) {
	p, ok := g.port(pin)
	if !ok {
		return
	}
	bit := pin.Bit()
	g.m.modify(&p.odr, func(v uint32) uint32 {
		if value {
			return v | bit
		}
		return v &^ bit
	})
}

// GetPin implements core.GPIODriver
func (g *GPIO) GetPin(pin core.GPIOPin) bool {
	p, ok := g.port(pin)
	if !ok {
		return false
	}
	return g.m.load(&p.odr)&pin.Bit() != 0
}

// ReadPin implements core.GPIODriver
func (g *GPIO) ReadPin(pin core.GPIOPin) bool {
	if _, ok := g.port(pin); !ok {
		return false
	}
	g.m.point()
	return g.m.pinLevel(pin)
}

// Output returns the output latch of pin without a preemption point
func (g *GPIO) Output(pin core.GPIOPin) bool {
	if int(pin.Port()) >= NumPorts {
		return false
	}
	return g.m.ports[pin.Port()].odr.v&pin.Bit() != 0
}

// ODR returns a port's output data register without a preemption point
func (g *GPIO) ODR(port uint8) uint32 {
	if int(port) >= NumPorts {
		return 0
	}
	return g.m.ports[port].odr.v
}

// pinLevel is the electrical level of a pin: the latch for outputs, the external
// driver or the pull for inputs. A floating undriven input keeps its level.
func (m *Machine) pinLevel(pin core.GPIOPin) bool {
	p := &m.ports[pin.Port()]
	n := uint32(pin.Number())
	if (p.moder.v>>(n*2))&3 == modeOutput {
		return p.odr.v&pin.Bit() != 0
	}
	if v, ok := p.drive[pin.Number()]; ok {
		return v
	}
	switch core.Pull((p.pupdr.v >> (n * 2)) & 3) {
	case core.PullUp:
		return true
	case core.PullDown:
		return false
	}
	return p.last&pin.Bit() != 0
}

func (p *gpioPort) setLast(pin core.GPIOPin, level bool) {
	if level {
		p.last |= pin.Bit()
	} else {
		p.last &^= pin.Bit()
	}
}

// Drive forces an external level on an input pin and runs edge detection
func (m *Machine) Drive(pin core.GPIOPin, level bool) error {
	if int(pin.Port()) >= NumPorts {
		return ErrNoSuchPort
	}
	m.ports[pin.Port()].drive[pin.Number()] = level
	m.sense(pin)
	return nil
}

// Float stops driving a pin; it falls back to its pull
func (m *Machine) Float(pin core.GPIOPin) error {
	if int(pin.Port()) >= NumPorts {
		return ErrNoSuchPort
	}
	delete(m.ports[pin.Port()].drive, pin.Number())
	m.sense(pin)
	return nil
}

func (m *Machine) sense(pin core.GPIOPin) {
	p := &m.ports[pin.Port()]
	old := p.last&pin.Bit() != 0
	now := m.pinLevel(pin)
	p.setLast(pin, now)
	if old != now {
		m.exti.edge(pin, now)
	}
}
