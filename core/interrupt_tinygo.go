//go:build tinygo

package core

import "runtime/interrupt"

// primaskMask implements the threshold with PRIMASK.
// Cores without BASEPRI (Cortex-M0) cannot mask by level, so every level
// above idle masks all interrupts. That is stricter than the ceiling and
// therefore still exclusive.
type primaskMask struct {
	level  Priority
	masked bool
	state  interrupt.State
}

// Level returns the current threshold
func (m *primaskMask) Level() Priority {
	return m.level
}

// SetLevel disables interrupts when leaving idle level and restores them
// when returning to it
func (m *primaskMask) SetLevel(p Priority) {
	if p > IdlePriority && !m.masked {
		m.state = interrupt.Disable()
		m.masked = true
	}
	m.level = p
	if p == IdlePriority && m.masked {
		m.masked = false
		interrupt.Restore(m.state)
	}
}

// NewHardwareMask returns the PRIMASK-backed mask
func NewHardwareMask() PriorityMask {
	return &primaskMask{}
}
