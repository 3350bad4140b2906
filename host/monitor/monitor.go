// Package monitor decodes the diagnostic channel of the firmware: TOGGLE
// lines from the blink context, single p/r characters from the button
// context and the fault core's halt report.
package monitor

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
)

// Kind classifies one diagnostic event
type Kind uint8

const (
	KindText Kind = iota
	KindToggle
	KindPressed
	KindReleased
	KindHardFault
	KindUnhandled
	KindFault
	KindDump
)

func (k Kind) String() string {
	switch k {
	case KindToggle:
		return "toggle"
	case KindPressed:
		return "pressed"
	case KindReleased:
		return "released"
	case KindHardFault:
		return "hardfault"
	case KindUnhandled:
		return "unhandled"
	case KindFault:
		return "fault"
	case KindDump:
		return "dump"
	default:
		return "text"
	}
}

// Terminal reports whether the firmware halts after emitting this kind
func (k Kind) Terminal() bool {
	return k == KindHardFault || k == KindUnhandled || k == KindFault
}

// Event is one decoded item of the channel
type Event struct {
	Kind Kind
	Text string
	IRQ  int // KindUnhandled only
}

var faultPrefixes = []string{
	"Reentry (",
	"OwnershipViolation (",
	"ConfigurationConflict (",
}

// Classify decodes one complete line
func Classify(line string) Event {
	line = strings.TrimRight(line, "\r\n")
	ev := Event{Kind: KindText, Text: line}
	switch {
	case line == "TOGGLE":
		ev.Kind = KindToggle
	case strings.HasPrefix(line, "HardFault"):
		ev.Kind = KindHardFault
	case strings.HasPrefix(line, "Unhandled exception (IRQn = "):
		ev.Kind = KindUnhandled
		num := strings.TrimSuffix(strings.TrimPrefix(line, "Unhandled exception (IRQn = "), ")")
		if n, err := strconv.Atoi(num); err == nil {
			ev.IRQ = n
		}
	case strings.HasPrefix(line, "[IRQ] "):
		ev.Kind = KindDump
	default:
		for _, p := range faultPrefixes {
			if strings.HasPrefix(line, p) {
				ev.Kind = KindFault
				break
			}
		}
	}
	return ev
}

// Scanner splits the channel into events. Button characters carry no line
// terminator, so a p or r at the start of a line is an event on its own.
type Scanner struct {
	r    *bufio.Reader
	line strings.Builder
}

// NewScanner reads events from r
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReader(r)}
}

// Next returns the next event. A partial line at EOF is returned before
// io.EOF.
func (s *Scanner) Next() (Event, error) {
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && s.line.Len() > 0 {
				ev := Classify(s.line.String())
				s.line.Reset()
				return ev, nil
			}
			return Event{}, err
		}

		if s.line.Len() == 0 {
			switch b {
			case 'p':
				return Event{Kind: KindPressed, Text: "p"}, nil
			case 'r':
				return Event{Kind: KindReleased, Text: "r"}, nil
			case '\n', '\r':
				continue
			}
		}
		if b == '\n' {
			ev := Classify(s.line.String())
			s.line.Reset()
			return ev, nil
		}
		s.line.WriteByte(b)
	}
}

// Tally counts events by kind
type Tally struct {
	Toggles  int
	Presses  int
	Releases int
	Faults   []Event
}

// Add records one event
func (t *Tally) Add(ev Event) {
	switch ev.Kind {
	case KindToggle:
		t.Toggles++
	case KindPressed:
		t.Presses++
	case KindReleased:
		t.Releases++
	default:
		if ev.Kind.Terminal() {
			t.Faults = append(t.Faults, ev)
		}
	}
}

// Watch feeds every event of r to fn until r is exhausted or fn returns
// false. Reaching EOF is not an error.
func Watch(r io.Reader, fn func(Event) bool) error {
	s := NewScanner(r)
	for {
		ev, err := s.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if !fn(ev) {
			return nil
		}
	}
}
