package core

import "errors"

// TimerState is the descriptor state of a timer event source
type TimerState uint8

const (
	TimerDisabled TimerState = iota
	TimerArmed
	TimerPending
	TimerAcknowledged
)

func (s TimerState) String() string {
	switch s {
	case TimerArmed:
		return "armed"
	case TimerPending:
		return "pending"
	case TimerAcknowledged:
		return "acknowledged"
	default:
		return "disabled"
	}
}

var ErrInvalidPeriod = errors.New("timer period must be non-zero")

// TimerConfig holds the reload arithmetic inputs of one timer.
// Period is in prescaled ticks: an update fires every Period counts.
type TimerConfig struct {
	Prescale uint16 `yaml:"prescale"`
	Period   uint32 `yaml:"period"`
	Start    uint32 `yaml:"start"`
}

// TimerSource is a periodic event source backed by one hardware timer
type TimerSource struct {
	ID TimerID

	drv         TimerDriver
	cfg         TimerConfig
	state       TimerState
	occurrences uint32
}

// NewTimerSource creates a disabled timer event source
func NewTimerSource(drv TimerDriver, id TimerID) *TimerSource {
	return &TimerSource{ID: id, drv: drv}
}

// Configure sets prescale, reload and start count. The counter keeps running
// if the timer is already enabled. The start count is written last since
// latching a new prescale may reset the counter.
func (t *TimerSource) Configure(cfg TimerConfig) error {
	if cfg.Period == 0 {
		return ErrInvalidPeriod
	}
	t.cfg = cfg
	t.drv.SetPrescale(t.ID, cfg.Prescale)
	t.drv.SetReload(t.ID, cfg.Period)
	t.drv.SetCounter(t.ID, cfg.Start)
	return nil
}

// Config returns the last applied configuration
func (t *TimerSource) Config() TimerConfig {
	return t.cfg
}

// Enable starts counting and unmasks update interrupts
func (t *TimerSource) Enable() {
	t.drv.SetUpdateInterrupt(t.ID, true)
	t.drv.SetRunning(t.ID, true)
	if t.state == TimerDisabled {
		t.state = TimerArmed
	}
}

// Disable masks update interrupts and stops counting.
// The counter value is kept.
func (t *TimerSource) Disable() {
	t.drv.SetUpdateInterrupt(t.ID, false)
	t.drv.SetRunning(t.ID, false)
	t.state = TimerDisabled
}

// State returns the descriptor state
func (t *TimerSource) State() TimerState {
	return t.state
}

// Occurrences counts acknowledged updates
func (t *TimerSource) Occurrences() uint32 {
	return t.occurrences
}

// Pending reads the hardware update flag
func (t *TimerSource) Pending() bool {
	if !t.drv.UpdatePending(t.ID) {
		if t.state == TimerAcknowledged {
			t.state = TimerArmed
		}
		return false
	}
	if t.state == TimerArmed || t.state == TimerAcknowledged {
		t.state = TimerPending
	}
	return true
}

// Acknowledge clears this timer's update flag.
// It must run exactly once per occurrence; a second call finds no pending
// update and fails.
func (t *TimerSource) Acknowledge() error {
	if !t.Pending() {
		return &SpuriousClearError{Source: SourceTimer, Line: uint8(t.ID)}
	}
	t.drv.ClearUpdatePending(t.ID)
	t.state = TimerAcknowledged
	t.occurrences++
	return nil
}

// Service runs body for a pending update and acknowledges it once.
// It returns false if the timer was not signaling.
func (t *TimerSource) Service(body func()) bool {
	if !t.Pending() {
		return false
	}
	body()
	t.drv.ClearUpdatePending(t.ID)
	t.occurrences++
	if t.state != TimerDisabled {
		t.state = TimerArmed
	}
	return true
}
