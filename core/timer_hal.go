package core

// TimerID identifies a hardware timer unit (3 for TIM3, 14 for TIM14)
type TimerID uint8

// TimerDriver is the register-level interface of the hardware timers.
// Every method touches exactly one timer unit.
type TimerDriver interface {
	// SetPrescale sets the input clock divider; the counter advances every
	// prescale+1 input clock ticks
	SetPrescale(id TimerID, prescale uint16)

	// SetReload sets the value at which the counter wraps and raises an update
	SetReload(id TimerID, reload uint32)

	// SetCounter loads the counter
	SetCounter(id TimerID, count uint32)

	// SetUpdateInterrupt gates update interrupt generation
	SetUpdateInterrupt(id TimerID, enabled bool)

	// SetRunning starts or stops counting
	SetRunning(id TimerID, running bool)

	// UpdatePending reads the update flag
	UpdatePending(id TimerID) bool

	// ClearUpdatePending clears the update flag of this timer only
	ClearUpdatePending(id TimerID)
}
