//go:build stm32f103

package main

import (
	"device/stm32"

	"irqarb/core"
)

// timerDriver implements core.TimerDriver on the general purpose timers
type timerDriver struct{}

func timerUnit(id core.TimerID) *stm32.TIM_Type {
	switch id {
	case 2:
		return stm32.TIM2
	case 3:
		return stm32.TIM3
	case 4:
		return stm32.TIM4
	default:
		return nil
	}
}

// SetPrescale implements core.TimerDriver. PSC is preloaded, so an update
// event is generated to load it now, which also clears CNT; the flag it
// sets is cleared again.
func (d *timerDriver) SetPrescale(id core.TimerID, prescale uint16) {
	if t := timerUnit(id); t != nil {
		t.PSC.Set(uint32(prescale))
		t.EGR.Set(stm32.TIM_EGR_UG)
		t.SR.Set(^uint32(stm32.TIM_SR_UIF))
	}
}

// SetReload implements core.TimerDriver
func (d *timerDriver) SetReload(id core.TimerID, reload uint32) {
	if t := timerUnit(id); t != nil {
		t.ARR.Set(reload)
	}
}

// SetCounter implements core.TimerDriver
func (d *timerDriver) SetCounter(id core.TimerID, count uint32) {
	if t := timerUnit(id); t != nil {
		t.CNT.Set(count)
	}
}

// SetUpdateInterrupt implements core.TimerDriver
func (d *timerDriver) SetUpdateInterrupt(id core.TimerID, enabled bool) {
	t := timerUnit(id)
	if t == nil {
		return
	}
	if enabled {
		t.DIER.SetBits(stm32.TIM_DIER_UIE)
	} else {
		t.DIER.ClearBits(stm32.TIM_DIER_UIE)
	}
}

// SetRunning implements core.TimerDriver
func (d *timerDriver) SetRunning(id core.TimerID, running bool) {
	t := timerUnit(id)
	if t == nil {
		return
	}
	if running {
		t.CR1.SetBits(stm32.TIM_CR1_CEN)
	} else {
		t.CR1.ClearBits(stm32.TIM_CR1_CEN)
	}
}

// UpdatePending implements core.TimerDriver
func (d *timerDriver) UpdatePending(id core.TimerID) bool {
	t := timerUnit(id)
	return t != nil && t.SR.HasBits(stm32.TIM_SR_UIF)
}

// ClearUpdatePending implements core.TimerDriver. SR bits are rc_w0, so
// writing the complement clears UIF alone without a read-modify-write.
func (d *timerDriver) ClearUpdatePending(id core.TimerID) {
	if t := timerUnit(id); t != nil {
		t.SR.Set(^uint32(stm32.TIM_SR_UIF))
	}
}
