package core

import "errors"

// IRQ is an interrupt request number
type IRQ int16

// MaxIRQ bounds the vector table. 64 covers the STM32F0 and F1 lines.
const MaxIRQ = 64

// Handler is an interrupt handler. It runs to completion.
type Handler func()

var (
	ErrIRQRange      = errors.New("irq out of range")
	ErrVectorBound   = errors.New("irq already has a handler")
	ErrVectorsSealed = errors.New("vector table is sealed")
	ErrIdleVector    = errors.New("interrupt context must be above idle priority")
)

type vector struct {
	bound   bool
	ctx     Context
	handler Handler
}

// Vector describes one bound interrupt
type Vector struct {
	IRQ     IRQ
	Context Context
}

// Vectors is what the platform calls when an interrupt is taken
type Vectors interface {
	Dispatch(irq IRQ)
}

// Dispatcher is the vector table of the application
type Dispatcher struct {
	arb     *Arbiter
	vectors [MaxIRQ]vector
	sealed  bool
}

// NewDispatcher creates an empty vector table
func NewDispatcher(arb *Arbiter) *Dispatcher {
	return &Dispatcher{arb: arb}
}

// Bind installs handler for irq, running in ctx
func (d *Dispatcher) Bind(irq IRQ, ctx Context, handler Handler) error {
	if d.sealed {
		return ErrVectorsSealed
	}
	if irq < 0 || irq >= MaxIRQ {
		return ErrIRQRange
	}
	if ctx.Priority <= IdlePriority {
		return ErrIdleVector
	}
	if d.vectors[irq].bound {
		return ErrVectorBound
	}
	d.vectors[irq] = vector{bound: true, ctx: ctx, handler: handler}
	return nil
}

// Bound lists the bound interrupts in IRQ order
func (d *Dispatcher) Bound() []Vector {
	var vs []Vector
	for i := range d.vectors {
		if d.vectors[i].bound {
			vs = append(vs, Vector{IRQ: IRQ(i), Context: d.vectors[i].ctx})
		}
	}
	return vs
}

// Seal freezes the vector table
func (d *Dispatcher) Seal() {
	d.sealed = true
}

// Dispatch runs the handler of irq in its context. Interrupts without a
// handler go to DefaultHandler and halt.
func (d *Dispatcher) Dispatch(irq IRQ) {
	if irq < 0 || irq >= MaxIRQ || !d.vectors[irq].bound {
		DefaultHandler(irq)
		return
	}
	v := &d.vectors[irq]

	level := d.arb.Level()
	prev := d.arb.enter(v.ctx.Priority)
	defer d.arb.exit(prev)

	if d.arb.ledger.Registered(HandleEventRing) {
		d.arb.WithResource(HandleEventRing, func() {
			RecordEvent(irq, v.ctx.Priority, level)
		})
	}

	v.handler()
}
