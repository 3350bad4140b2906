package core

// EventSourceKind tells timer and edge sources apart in errors
type EventSourceKind uint8

const (
	SourceTimer EventSourceKind = iota
	SourceEdge
)

func (k EventSourceKind) String() string {
	if k == SourceTimer {
		return "timer"
	}
	return "edge line"
}

// SpuriousClearError reports an acknowledge for a source that was not
// signaling. The controller is left untouched.
type SpuriousClearError struct {
	Source EventSourceKind
	Line   uint8
}

func (e *SpuriousClearError) Error() string {
	return "spurious clear of " + e.Source.String() + " " + itoa(int(e.Line))
}
