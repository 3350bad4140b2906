package core

import "errors"

// EdgeLine is an external interrupt line. Line n serves pin n of whichever
// port is routed to it.
type EdgeLine uint8

// MaxEdgeLines is the number of external interrupt lines
const MaxEdgeLines = 16

// Trigger selects which transitions latch a line
type Trigger uint8

const (
	TriggerRising  Trigger = 1 << 0
	TriggerFalling Trigger = 1 << 1
	TriggerBoth            = TriggerRising | TriggerFalling
)

var ErrInvalidTrigger = errors.New("invalid edge trigger")

func (t Trigger) String() string {
	switch t {
	case TriggerRising:
		return "rising"
	case TriggerFalling:
		return "falling"
	case TriggerBoth:
		return "both"
	default:
		return "none"
	}
}

// UnmarshalText accepts rising, falling, both
func (t *Trigger) UnmarshalText(text []byte) error {
	switch string(text) {
	case "rising":
		*t = TriggerRising
	case "falling":
		*t = TriggerFalling
	case "both":
		*t = TriggerBoth
	default:
		return ErrInvalidTrigger
	}
	return nil
}

// MarshalText is the inverse of UnmarshalText
func (t Trigger) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// EXTIDriver is the register-level interface of the external interrupt
// controller. There is deliberately no way to clear more than one line.
type EXTIDriver interface {
	// RouteLine connects the line to the port of pin
	RouteLine(line EdgeLine, pin GPIOPin) error

	// SetTrigger selects the latching transitions of a line
	SetTrigger(line EdgeLine, trigger Trigger)

	// SetLineMask unmasks (true) or masks a line
	SetLineMask(line EdgeLine, enabled bool)

	// PendingMask reads the latched lines, one bit per line
	PendingMask() uint32

	// ClearPending clears the latch of one line
	ClearPending(line EdgeLine)
}
