// Package sim is a host-side model of a small Cortex-M class MCU: GPIO ports,
// basic timers, an external interrupt controller and an NVIC with static
// priorities. Every register access is a preemption point, so interrupt
// handlers interleave with the code they preempt the way they do on silicon.
package sim

import (
	"log/slog"
	"runtime"

	"irqarb/core"
)

// DefaultReentryLimit is how many times an interrupt may return with its
// source still asserted and unacknowledged before the machine declares a
// re-entry fault
const DefaultReentryLimit = 8

type nvicLine struct {
	enabled   bool
	priority  core.Priority
	swPending bool
}

// reg is a memory-mapped register. ver counts CPU writes and is used to
// detect read-modify-write sequences that were overtaken by a preempting
// context.
type reg struct {
	v   uint32
	ver uint32
}

// Outcome summarizes a Run
type Outcome struct {
	Steps  int
	Cycles uint64
	Fault  *core.Fault
	Err    error
}

// Machine is the simulated MCU. It implements core.Platform and
// core.PriorityMask; its peripherals are reached through GPIO, Timers and
// EXTI.
type Machine struct {
	ClockHz      uint32
	ReentryLimit int
	Logger       *slog.Logger

	level   core.Priority
	active  []core.Priority
	nvic    [core.MaxIRQ]nvicLine
	vectors core.Vectors

	clocks map[core.Peripheral]bool
	ports  [NumPorts]gpioPort
	timers map[core.TimerID]*timerUnit
	exti   extiUnit

	acks       [core.MaxIRQ]uint32
	strikes    [core.MaxIRQ]int
	deliveries [core.MaxIRQ]int
	torn       int
	cycles     uint64
	halting    bool

	hook  func()
	stim  Stimulus
	steps int
	err   error

	gpio   *GPIO
	timDrv *Timers
	extDrv *EXTI
}

// NewMachine creates a machine with the given input clock and timer units.
// irqs maps every timer to its interrupt line.
func NewMachine(clockHz uint32, irqs map[core.TimerID]core.IRQ) *Machine {
	m := &Machine{
		ClockHz:      clockHz,
		ReentryLimit: DefaultReentryLimit,
		Logger:       slog.New(slog.DiscardHandler),
		clocks:       make(map[core.Peripheral]bool),
		timers:       make(map[core.TimerID]*timerUnit),
	}
	for id, irq := range irqs {
		m.timers[id] = &timerUnit{id: id, irq: irq}
	}
	for i := range m.ports {
		m.ports[i].drive = make(map[uint8]bool)
	}
	m.gpio = &GPIO{m: m}
	m.timDrv = &Timers{m: m}
	m.extDrv = &EXTI{m: m}
	return m
}

// GPIO returns the GPIO driver
func (m *Machine) GPIO() *GPIO { return m.gpio }

// Timers returns the timer driver
func (m *Machine) Timers() *Timers { return m.timDrv }

// EXTI returns the external interrupt controller driver
func (m *Machine) EXTI() *EXTI { return m.extDrv }

// SetAccessHook installs a function called at every register access, before
// pending interrupts are delivered. Tests use it to raise hardware events at
// arbitrary points of the running code.
func (m *Machine) SetAccessHook(hook func()) {
	m.hook = hook
}

// Torn returns how many read-modify-write sequences lost a concurrent write
func (m *Machine) Torn() int { return m.torn }

// Deliveries returns how many times irq was taken
func (m *Machine) Deliveries(irq core.IRQ) int {
	if irq < 0 || irq >= core.MaxIRQ {
		return 0
	}
	return m.deliveries[irq]
}

// Cycles returns the elapsed input clock cycles
func (m *Machine) Cycles() uint64 { return m.cycles }

// Depth returns the number of interrupt handlers currently running
func (m *Machine) Depth() int { return len(m.active) }

// Level implements core.PriorityMask
func (m *Machine) Level() core.Priority {
	return m.level
}

// SetLevel implements core.PriorityMask. Lowering the threshold takes any
// interrupt it was holding back.
func (m *Machine) SetLevel(p core.Priority) {
	lowered := p < m.level
	m.level = p
	if lowered {
		m.deliver()
	}
}

// EnableClock implements core.Platform
func (m *Machine) EnableClock(p core.Peripheral) {
	m.clocks[p] = true
}

// Clocked reports whether a peripheral clock is enabled
func (m *Machine) Clocked(p core.Peripheral) bool {
	return m.clocks[p]
}

// SetIRQPriority implements core.Platform
func (m *Machine) SetIRQPriority(irq core.IRQ, p core.Priority) {
	if irq >= 0 && irq < core.MaxIRQ {
		m.nvic[irq].priority = p
	}
}

// ClearPendingIRQ implements core.Platform
func (m *Machine) ClearPendingIRQ(irq core.IRQ) {
	if irq >= 0 && irq < core.MaxIRQ {
		m.nvic[irq].swPending = false
	}
}

// EnableIRQ implements core.Platform
func (m *Machine) EnableIRQ(irq core.IRQ) {
	if irq >= 0 && irq < core.MaxIRQ {
		m.nvic[irq].enabled = true
	}
}

// Attach implements core.Platform
func (m *Machine) Attach(v core.Vectors) {
	m.vectors = v
}

// Raise enables irq at priority p and pends it, as a stray request
// would be
func (m *Machine) Raise(irq core.IRQ, p core.Priority) {
	if irq < 0 || irq >= core.MaxIRQ {
		return
	}
	m.nvic[irq].enabled = true
	m.nvic[irq].priority = p
	m.nvic[irq].swPending = true
	m.deliver()
}

// WaitForInterrupt implements core.Platform. The idle context sleeps until
// the next stimulus step has been applied and its interrupts handled. When
// the stimulus is exhausted the simulation ends.
func (m *Machine) WaitForInterrupt() {
	m.deliver()
	if m.stim == nil {
		runtime.Goexit()
	}
	step, ok := m.stim.Next()
	if !ok {
		runtime.Goexit()
	}
	m.steps++
	m.Logger.Debug("sim: step", "n", m.steps, "step", step.String())
	if err := step.Apply(m); err != nil {
		m.err = err
		runtime.Goexit()
	}
	m.deliver()
}

// Run boots firmware on its own goroutine and drives it with stim until the
// stimulus runs out or the firmware halts. boot is expected never to return.
func (m *Machine) Run(boot func(), stim Stimulus) Outcome {
	core.Reset()
	core.SetHaltHooks(func() { m.halting = true }, runtime.Goexit)
	m.stim = stim

	done := make(chan struct{})
	go func() {
		defer close(done)
		boot()
	}()
	<-done

	out := Outcome{Steps: m.steps, Cycles: m.cycles, Err: m.err}
	if f, ok := core.Halted(); ok {
		out.Fault = &f
	}
	return out
}

// Halted reports whether the firmware entered the fault core
func (m *Machine) Halted() bool {
	return m.halting
}

// threshold is the level an interrupt must exceed to be taken
func (m *Machine) threshold() core.Priority {
	t := m.level
	if n := len(m.active); n > 0 && m.active[n-1] > t {
		t = m.active[n-1]
	}
	return t
}

// asserted reports whether a peripheral holds irq high
func (m *Machine) asserted(irq core.IRQ) bool {
	for _, t := range m.timers {
		if t.irq == irq && t.sr.v&timSRUIF != 0 && t.dier.v&timDIERUIE != 0 {
			return true
		}
	}
	return m.exti.asserted(irq)
}

func (m *Machine) next() (core.IRQ, bool) {
	best := core.IRQ(-1)
	th := m.threshold()
	for i := range m.nvic {
		line := &m.nvic[i]
		if !line.enabled || line.priority <= th {
			continue
		}
		if !line.swPending && !m.asserted(core.IRQ(i)) {
			continue
		}
		if best < 0 || line.priority > m.nvic[best].priority {
			best = core.IRQ(i)
		}
	}
	return best, best >= 0
}

// deliver takes every interrupt that can preempt the current context
func (m *Machine) deliver() {
	for !m.halting {
		irq, ok := m.next()
		if !ok {
			return
		}
		m.take(irq)
	}
}

func (m *Machine) take(irq core.IRQ) {
	line := &m.nvic[irq]
	line.swPending = false
	acks := m.acks[irq]

	m.active = append(m.active, line.priority)
	m.deliveries[irq]++
	m.Logger.Debug("sim: irq enter", "irq", irq, "prio", line.priority, "depth", len(m.active))
	if m.vectors == nil {
		core.DefaultHandler(irq)
	} else {
		m.vectors.Dispatch(irq)
	}
	m.active = m.active[:len(m.active)-1]
	m.Logger.Debug("sim: irq exit", "irq", irq, "depth", len(m.active))

	if m.asserted(irq) && m.acks[irq] == acks {
		m.strikes[irq]++
		if m.strikes[irq] >= m.ReentryLimit {
			core.Halt(core.Fault{Kind: core.FaultReentry, ID: int32(irq), Detail: "handler returned without acknowledging"})
		}
		return
	}
	m.strikes[irq] = 0
}

// point is a preemption point: the access hook runs and any interrupt that
// outranks the current context is taken
func (m *Machine) point() {
	if m.hook != nil {
		m.hook()
	}
	m.deliver()
}

func (m *Machine) load(r *reg) uint32 {
	m.point()
	return r.v
}

func (m *Machine) store(r *reg, v uint32) {
	m.point()
	r.v = v
	r.ver++
}

// modify is a read-modify-write made of two bus accesses. A preempting
// context that writes the register between them is overwritten; the
// machine counts that as a torn write.
func (m *Machine) modify(r *reg, f func(uint32) uint32) {
	m.point()
	v, ver := r.v, r.ver
	m.point()
	if r.ver != ver {
		m.torn++
		m.Logger.Warn("sim: torn read-modify-write", "depth", len(m.active))
	}
	r.v = f(v)
	r.ver++
}

// clearBits is a single-access write-one-to-clear
func (m *Machine) clearBits(r *reg, bits uint32) {
	m.point()
	r.v &^= bits
	r.ver++
}

// busFault models an access to a peripheral that does not exist
func (m *Machine) busFault(addr uint32) {
	core.HardFault(core.ExceptionFrame{PC: addr, XPSR: 0x01000000})
}
