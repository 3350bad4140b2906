package sim

import (
	"errors"

	"irqarb/core"
)

// External interrupt lines share three NVIC lines, as on STM32F0
const (
	IRQEXTI0_1  core.IRQ = 5
	IRQEXTI2_3  core.IRQ = 6
	IRQEXTI4_15 core.IRQ = 7
)

var ErrLineRange = errors.New("sim: edge line out of range")

// LineIRQ returns the NVIC line shared by an external interrupt line
func LineIRQ(line core.EdgeLine) core.IRQ {
	switch {
	case line < 2:
		return IRQEXTI0_1
	case line < 4:
		return IRQEXTI2_3
	default:
		return IRQEXTI4_15
	}
}

type extiUnit struct {
	imr, rtsr, ftsr, pr reg
	route               [core.MaxEdgeLines]uint8 // port index per line
}

func (e *extiUnit) asserted(irq core.IRQ) bool {
	latched := e.pr.v & e.imr.v
	for line := core.EdgeLine(0); line < core.MaxEdgeLines; line++ {
		if latched&(1<<line) != 0 && LineIRQ(line) == irq {
			return true
		}
	}
	return false
}

// edge latches a transition of pin if its line is routed to pin's port,
// unmasked and armed for that direction
func (e *extiUnit) edge(pin core.GPIOPin, rising bool) {
	line := pin.Number()
	if e.route[line] != pin.Port() {
		return
	}
	bit := uint32(1) << line
	if e.imr.v&bit == 0 {
		return
	}
	if (rising && e.rtsr.v&bit != 0) || (!rising && e.ftsr.v&bit != 0) {
		e.pr.v |= bit
	}
}

// EXTI implements core.EXTIDriver on the simulated controller
type EXTI struct {
	m *Machine
}

// RouteLine implements core.EXTIDriver. Routing lives in SYSCFG and is
// ignored while its clock is off.
func (d *EXTI) RouteLine(line core.EdgeLine, pin core.GPIOPin) error {
	if line >= core.MaxEdgeLines {
		return ErrLineRange
	}
	if int(pin.Port()) >= NumPorts {
		return ErrNoSuchPort
	}
	d.m.point()
	if d.m.clocks[core.PeriphSYSCFG] {
		d.m.exti.route[line] = pin.Port()
	}
	return nil
}

// SetTrigger implements core.EXTIDriver
func (d *EXTI) SetTrigger(line core.EdgeLine, trigger core.Trigger) {
	bit := uint32(1) << line
	d.m.modify(&d.m.exti.rtsr, setBit(bit, trigger&core.TriggerRising != 0))
	d.m.modify(&d.m.exti.ftsr, setBit(bit, trigger&core.TriggerFalling != 0))
}

// SetLineMask implements core.EXTIDriver
func (d *EXTI) SetLineMask(line core.EdgeLine, enabled bool) {
	d.m.modify(&d.m.exti.imr, setBit(1<<line, enabled))
}

// PendingMask implements core.EXTIDriver
func (d *EXTI) PendingMask() uint32 {
	return d.m.load(&d.m.exti.pr)
}

// ClearPending implements core.EXTIDriver; the pending register is
// write-one-to-clear so other lines are never touched
func (d *EXTI) ClearPending(line core.EdgeLine) {
	d.m.clearBits(&d.m.exti.pr, 1<<line)
	d.m.acks[LineIRQ(line)]++
}

// Latched returns the pending register without a preemption point
func (d *EXTI) Latched() uint32 {
	return d.m.exti.pr.v
}
