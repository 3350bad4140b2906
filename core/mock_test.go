package core

import "runtime"

// Mock drivers shared by the core tests

type mockGPIO struct {
	outputs map[GPIOPin]bool
	inputs  map[GPIOPin]bool
	pulls   map[GPIOPin]Pull
	writes  int
	fail    error
}

func newMockGPIO() *mockGPIO {
	return &mockGPIO{
		outputs: make(map[GPIOPin]bool),
		inputs:  make(map[GPIOPin]bool),
		pulls:   make(map[GPIOPin]Pull),
	}
}

func (g *mockGPIO) ConfigureOutput(pin GPIOPin, pull Pull) error {
	if g.fail != nil {
		return g.fail
	}
	g.pulls[pin] = pull
	return nil
}

func (g *mockGPIO) ConfigureInput(pin GPIOPin, pull Pull) error {
	if g.fail != nil {
		return g.fail
	}
	g.pulls[pin] = pull
	return nil
}

func (g *mockGPIO) SetPin(pin GPIOPin, value bool) {
	g.outputs[pin] = value
	g.writes++
}

func (g *mockGPIO) GetPin(pin GPIOPin) bool  { return g.outputs[pin] }
func (g *mockGPIO) ReadPin(pin GPIOPin) bool { return g.inputs[pin] }

type mockTimer struct {
	prescale uint16
	reload   uint32
	counter  uint32
	uie      bool
	running  bool
	uif      bool
	clears   int
	writes   []string // register writes in order
}

type mockTimers map[TimerID]*mockTimer

func (m mockTimers) unit(id TimerID) *mockTimer {
	t, ok := m[id]
	if !ok {
		t = &mockTimer{}
		m[id] = t
	}
	return t
}

func (m mockTimers) SetPrescale(id TimerID, p uint16) {
	t := m.unit(id)
	t.prescale = p
	// latching a prescale restarts the count, as on STM32 parts
	t.counter = 0
	t.writes = append(t.writes, "psc")
}

func (m mockTimers) SetReload(id TimerID, r uint32) {
	t := m.unit(id)
	t.reload = r
	t.writes = append(t.writes, "arr")
}

func (m mockTimers) SetCounter(id TimerID, c uint32) {
	t := m.unit(id)
	t.counter = c
	t.writes = append(t.writes, "cnt")
}

func (m mockTimers) SetUpdateInterrupt(id TimerID, on bool) { m.unit(id).uie = on }
func (m mockTimers) SetRunning(id TimerID, on bool)         { m.unit(id).running = on }
func (m mockTimers) UpdatePending(id TimerID) bool          { return m.unit(id).uif }

func (m mockTimers) ClearUpdatePending(id TimerID) {
	t := m.unit(id)
	t.uif = false
	t.clears++
}

type mockEXTI struct {
	routes  map[EdgeLine]GPIOPin
	trigs   map[EdgeLine]Trigger
	mask    uint32
	pending uint32
	clears  []EdgeLine
}

func newMockEXTI() *mockEXTI {
	return &mockEXTI{routes: make(map[EdgeLine]GPIOPin), trigs: make(map[EdgeLine]Trigger)}
}

func (e *mockEXTI) RouteLine(line EdgeLine, pin GPIOPin) error {
	e.routes[line] = pin
	return nil
}

func (e *mockEXTI) SetTrigger(line EdgeLine, t Trigger) { e.trigs[line] = t }

func (e *mockEXTI) SetLineMask(line EdgeLine, on bool) {
	if on {
		e.mask |= 1 << line
	} else {
		e.mask &^= 1 << line
	}
}

func (e *mockEXTI) PendingMask() uint32 { return e.pending }

func (e *mockEXTI) ClearPending(line EdgeLine) {
	e.pending &^= 1 << line
	e.clears = append(e.clears, line)
}

// recordingMask remembers every level it was set to
type recordingMask struct {
	SoftMask
	history []Priority
}

func (m *recordingMask) SetLevel(p Priority) {
	m.history = append(m.history, p)
	m.SoftMask.SetLevel(p)
}

type mockPlatform struct {
	clocks     []Peripheral
	priorities map[IRQ]Priority
	unpended   []IRQ
	enabled    []IRQ
	vectors    Vectors
	waits      int
	pend       []IRQ // interrupts delivered by the next WaitForInterrupt
}

func newMockPlatform() *mockPlatform {
	return &mockPlatform{priorities: make(map[IRQ]Priority)}
}

func (p *mockPlatform) EnableClock(ph Peripheral)           { p.clocks = append(p.clocks, ph) }
func (p *mockPlatform) SetIRQPriority(irq IRQ, pr Priority) { p.priorities[irq] = pr }
func (p *mockPlatform) ClearPendingIRQ(irq IRQ)             { p.unpended = append(p.unpended, irq) }
func (p *mockPlatform) EnableIRQ(irq IRQ)                   { p.enabled = append(p.enabled, irq) }
func (p *mockPlatform) Attach(v Vectors)                    { p.vectors = v }

// WaitForInterrupt delivers the queued interrupts once, then ends the
// calling goroutine
func (p *mockPlatform) WaitForInterrupt() {
	p.waits++
	if len(p.pend) == 0 {
		runtime.Goexit()
	}
	for _, irq := range p.pend {
		p.vectors.Dispatch(irq)
	}
	p.pend = nil
}

// runUntilHalt runs f on its own goroutine with halting mapped to
// runtime.Goexit and returns the fault it halted on, if any
func runUntilHalt(f func()) (Fault, bool) {
	Reset()
	SetHaltHooks(nil, runtime.Goexit)
	defer SetHaltHooks(nil, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		f()
	}()
	<-done
	return Halted()
}

// captureDiagnostics collects everything written to the debug writer
func captureDiagnostics() (*[]string, func()) {
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	return &lines, func() { SetDebugWriter(nil) }
}
