package core

import "errors"

var ErrLineInUse = errors.New("edge line already configured")

// EdgeEvent is one handled edge occurrence
type EdgeEvent struct {
	Line  EdgeLine
	Pin   GPIOPin
	Level bool // input level sampled while handling, not inferred from the edge
}

// EdgeSource demultiplexes the external lines that share one IRQ
type EdgeSource struct {
	exti  EXTIDriver
	gpio  GPIODriver
	lines uint32 // configured lines
	pins  [MaxEdgeLines]GPIOPin
	trigs [MaxEdgeLines]Trigger
}

// NewEdgeSource creates an edge source with no configured lines
func NewEdgeSource(exti EXTIDriver, gpio GPIODriver) *EdgeSource {
	return &EdgeSource{exti: exti, gpio: gpio}
}

// Configure makes pin an input with the given pull, routes its line and
// unmasks it for the requested transitions
func (s *EdgeSource) Configure(pin GPIOPin, trigger Trigger, pull Pull) error {
	if trigger&TriggerBoth == 0 || trigger&^TriggerBoth != 0 {
		return ErrInvalidTrigger
	}
	line := EdgeLine(pin.Number())
	if s.lines&(1<<line) != 0 {
		return ErrLineInUse
	}
	if err := s.gpio.ConfigureInput(pin, pull); err != nil {
		return err
	}
	if err := s.exti.RouteLine(line, pin); err != nil {
		return err
	}
	s.exti.SetTrigger(line, trigger)
	s.exti.SetLineMask(line, true)

	s.lines |= 1 << line
	s.pins[line] = pin
	s.trigs[line] = trigger
	return nil
}

// Lines returns the configured line mask
func (s *EdgeSource) Lines() uint32 {
	return s.lines
}

// Pending returns the latched lines that belong to this source
func (s *EdgeSource) Pending() uint32 {
	return s.exti.PendingMask() & s.lines
}

// Clear acknowledges one line. Clearing a line that is not configured or not
// latched is a caller error and leaves the controller untouched.
func (s *EdgeSource) Clear(line EdgeLine) error {
	if line >= MaxEdgeLines || s.Pending()&(1<<line) == 0 {
		return &SpuriousClearError{Source: SourceEdge, Line: uint8(line)}
	}
	s.exti.ClearPending(line)
	return nil
}

// Level samples the current input level of a configured line
func (s *EdgeSource) Level(line EdgeLine) bool {
	return s.gpio.ReadPin(s.pins[line])
}

// Service handles every latched line in ascending order: it clears that
// line only, samples its level and calls handle. It returns the number of
// occurrences handled.
func (s *EdgeSource) Service(handle func(EdgeEvent)) int {
	pending := s.Pending()
	n := 0
	for line := EdgeLine(0); line < MaxEdgeLines; line++ {
		if pending&(1<<line) == 0 {
			continue
		}
		s.exti.ClearPending(line)
		handle(EdgeEvent{Line: line, Pin: s.pins[line], Level: s.gpio.ReadPin(s.pins[line])})
		n++
	}
	return n
}
