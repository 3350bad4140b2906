//go:build !tinygo

package core

// SoftMask is a priority threshold held in memory.
// On regular Go nothing preempts the caller, so this is enough for unit
// tests; the simulator provides a mask that also delivers interrupts.
type SoftMask struct {
	level Priority
}

// Level returns the current threshold
func (m *SoftMask) Level() Priority {
	return m.level
}

// SetLevel replaces the threshold
func (m *SoftMask) SetLevel(p Priority) {
	m.level = p
}

// NewHardwareMask returns the platform mask; on regular Go it is a SoftMask
func NewHardwareMask() PriorityMask {
	return &SoftMask{}
}
