package sim

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"irqarb/core"
)

const (
	timCR1CEN  = 1 << 0
	timDIERUIE = 1 << 0
	timSRUIF   = 1 << 0
)

// timerUnit is an up-counting timer: the counter advances every psc+1 input
// cycles and raises the update flag when it reaches arr
type timerUnit struct {
	id  core.TimerID
	irq core.IRQ

	cr1, dier, sr, psc, arr, cnt reg

	divider uint32 // input cycles since the last count
}

func (t *timerUnit) running() bool {
	return t.cr1.v&timCR1CEN != 0 && t.arr.v != 0
}

// countsToUpdate is the number of counts until the next update
func (t *timerUnit) countsToUpdate() uint32 {
	if t.cnt.v < t.arr.v {
		return t.arr.v - t.cnt.v
	}
	return 1
}

// cyclesToUpdate is the number of input cycles until the next update
func (t *timerUnit) cyclesToUpdate() uint64 {
	div := uint64(t.psc.v) + 1
	return (uint64(t.countsToUpdate())-1)*div + (div - uint64(t.divider))
}

// tick advances the timer by n input cycles, never past the next update
func (t *timerUnit) tick(n uint64) {
	div := uint64(t.psc.v) + 1
	total := uint64(t.divider) + n
	counts := total / div
	t.divider = uint32(total % div)
	if counts == 0 {
		return
	}
	if counts >= uint64(t.countsToUpdate()) {
		t.cnt.v = 0
		t.sr.v |= timSRUIF
		return
	}
	t.cnt.v += uint32(counts)
}

// Timers implements core.TimerDriver on the simulated timer units
type Timers struct {
	m *Machine
}

func (d *Timers) unit(id core.TimerID) (*timerUnit, bool) {
	t, ok := d.m.timers[id]
	if !ok {
		d.m.busFault(0x40000000 | uint32(id)<<8)
		return nil, false
	}
	if !d.m.clocks[core.TimerUnit(id)] {
		return nil, false
	}
	return t, true
}

// SetPrescale implements core.TimerDriver
func (d *Timers) SetPrescale(id core.TimerID, prescale uint16) {
	if t, ok := d.unit(id); ok {
		d.m.store(&t.psc, uint32(prescale))
	}
}

// SetReload implements core.TimerDriver
func (d *Timers) SetReload(id core.TimerID, reload uint32) {
	if t, ok := d.unit(id); ok {
		d.m.store(&t.arr, reload)
	}
}

// SetCounter implements core.TimerDriver
func (d *Timers) SetCounter(id core.TimerID, count uint32) {
	if t, ok := d.unit(id); ok {
		d.m.store(&t.cnt, count)
	}
}

// SetUpdateInterrupt implements core.TimerDriver
func (d *Timers) SetUpdateInterrupt(id core.TimerID, enabled bool) {
	if t, ok := d.unit(id); ok {
		d.m.modify(&t.dier, setBit(timDIERUIE, enabled))
	}
}

// SetRunning implements core.TimerDriver
func (d *Timers) SetRunning(id core.TimerID, running bool) {
	if t, ok := d.unit(id); ok {
		d.m.modify(&t.cr1, setBit(timCR1CEN, running))
	}
}

// UpdatePending implements core.TimerDriver
func (d *Timers) UpdatePending(id core.TimerID) bool {
	if t, ok := d.unit(id); ok {
		return d.m.load(&t.sr)&timSRUIF != 0
	}
	return false
}

// ClearUpdatePending implements core.TimerDriver
func (d *Timers) ClearUpdatePending(id core.TimerID) {
	if t, ok := d.unit(id); ok {
		d.m.clearBits(&t.sr, timSRUIF)
		d.m.acks[t.irq]++
	}
}

// Counter returns the current count without a preemption point
func (d *Timers) Counter(id core.TimerID) uint32 {
	if t, ok := d.m.timers[id]; ok {
		return t.cnt.v
	}
	return 0
}

// Flagged returns the update flag without a preemption point
func (d *Timers) Flagged(id core.TimerID) bool {
	if t, ok := d.m.timers[id]; ok {
		return t.sr.v&timSRUIF != 0
	}
	return false
}

func setBit(bit uint32, on bool) func(uint32) uint32 {
	return func(v uint32) uint32 {
		if on {
			return v | bit
		}
		return v &^ bit
	}
}

// Advance runs the input clock for n cycles. Time is stepped from one timer
// update to the next so interrupts are taken at the cycle they are raised.
func (m *Machine) Advance(n uint64) {
	ids := maps.Keys(m.timers)
	slices.Sort(ids)

	for n > 0 && !m.halting {
		step := n
		for _, id := range ids {
			t := m.timers[id]
			if !t.running() || !m.clocks[core.TimerUnit(id)] {
				continue
			}
			if c := t.cyclesToUpdate(); c < step {
				step = c
			}
		}
		for _, id := range ids {
			t := m.timers[id]
			if t.running() && m.clocks[core.TimerUnit(id)] {
				t.tick(step)
			}
		}
		m.cycles += step
		n -= step
		m.deliver()
	}
}
