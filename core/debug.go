package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// DispatchEvent captures one interrupt entry for post-mortem analysis
type DispatchEvent struct {
	Seq      uint32   // Dispatch sequence number, 0 = empty slot
	IRQ      IRQ      // Interrupt that was taken
	Priority Priority // Priority of the handling context
	Level    Priority // Threshold when the interrupt was taken
}

const (
	EventRingSize = 32 // Keep last 32 dispatches for post-mortem
)

// HandleEventRing is the ledger handle of the dispatch ring. Every context
// writes to it, so it is claimed at the highest context priority.
const HandleEventRing HandleID = MaxHandles - 1

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether DebugPrintln output is active
	debugEnabled bool = false

	eventRing     [EventRingSize]DispatchEvent
	eventRingHead uint8
	eventSeq      uint32
)

// SetDebugWriter sets the platform-specific diagnostic output function.
// A nil writer discards output.
func SetDebugWriter(writer DebugWriter) {
	if writer == nil {
		writer = func(string) {}
	}
	debugPrintln = writer
}

// SetDebugEnabled enables or disables DebugPrintln output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a message if debug output is enabled
func DebugPrintln(msg string) {
	if debugEnabled {
		debugPrintln(msg)
	}
}

// Diagnose writes a message regardless of the debug flag.
// Used for fault reports that must be surfaced before halting.
func Diagnose(msg string) {
	debugPrintln(msg)
}

// RecordEvent appends a dispatch to the ring buffer.
// Callers hold HandleEventRing.
func RecordEvent(irq IRQ, prio, level Priority) {
	eventSeq++
	idx := eventRingHead
	eventRing[idx] = DispatchEvent{
		Seq:      eventSeq,
		IRQ:      irq,
		Priority: prio,
		Level:    level,
	}
	eventRingHead = (idx + 1) % EventRingSize
}

// EventRing returns the recorded dispatches, oldest first
func EventRing() []DispatchEvent {
	var out []DispatchEvent
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.Seq == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// DumpEventRing outputs the ring buffer (called on halt)
func DumpEventRing() {
	events := EventRing()
	if len(events) == 0 {
		return
	}
	Diagnose("[IRQ] === Dispatch Ring Dump ===")
	for _, evt := range events {
		Diagnose("[IRQ] #" + utoa(evt.Seq) +
			" irq=" + itoa(int(evt.IRQ)) +
			" prio=" + itoa(int(evt.Priority)) +
			" level=" + itoa(int(evt.Level)))
	}
	Diagnose("[IRQ] === End Dump ===")
}

// ClearEventRing clears the dispatch buffer
func ClearEventRing() {
	for i := range eventRing {
		eventRing[i] = DispatchEvent{}
	}
	eventRingHead = 0
	eventSeq = 0
}
