package core

import "sync/atomic"

// FaultKind classifies unrecoverable conditions
type FaultKind uint8

const (
	FaultHard FaultKind = iota + 1
	FaultUnhandledInterrupt
	FaultConfiguration
	FaultOwnership
	FaultReentry
)

func (k FaultKind) String() string {
	switch k {
	case FaultHard:
		return "HardFault"
	case FaultUnhandledInterrupt:
		return "UnhandledInterrupt"
	case FaultConfiguration:
		return "ConfigurationConflict"
	case FaultOwnership:
		return "OwnershipViolation"
	case FaultReentry:
		return "Reentry"
	default:
		return "Fault"
	}
}

// ExceptionFrame is the register state stacked on exception entry
type ExceptionFrame struct {
	R0, R1, R2, R3 uint32
	R12, LR, PC    uint32
	XPSR           uint32
}

func (f ExceptionFrame) String() string {
	return "ExceptionFrame { r0: " + hex32(f.R0) +
		", r1: " + hex32(f.R1) +
		", r2: " + hex32(f.R2) +
		", r3: " + hex32(f.R3) +
		", r12: " + hex32(f.R12) +
		", lr: " + hex32(f.LR) +
		", pc: " + hex32(f.PC) +
		", xpsr: " + hex32(f.XPSR) + " }"
}

// Fault is the terminal state of the system. There is no transition out of
// it other than an external reset.
type Fault struct {
	Kind   FaultKind
	ID     int32 // IRQ number, handle id or timer id depending on Kind
	Detail string
	Frame  *ExceptionFrame
}

func (f Fault) String() string {
	switch f.Kind {
	case FaultHard:
		if f.Frame != nil {
			return "HardFault at " + f.Frame.String()
		}
		return "HardFault"
	case FaultUnhandledInterrupt:
		return "Unhandled exception (IRQn = " + itoa(int(f.ID)) + ")"
	}
	msg := f.Kind.String() + " (id = " + itoa(int(f.ID)) + ")"
	if f.Detail != "" {
		msg += ": " + f.Detail
	}
	return msg
}

var (
	haltState     atomic.Pointer[Fault]
	shutdownHooks []func()
)

// OnShutdown registers a function that returns outputs to a safe level on halt
func OnShutdown(f func()) {
	shutdownHooks = append(shutdownHooks, f)
}

// Halt surfaces the fault on the diagnostic channel and never returns
func Halt(f Fault) {
	haltEnter()
	if haltState.CompareAndSwap(nil, &f) {
		Diagnose(f.String())
		DumpEventRing()
		for _, hook := range shutdownHooks {
			hook()
		}
	}
	for {
		haltWait()
	}
}

// HardFault is the handler for structurally detected hardware faults
func HardFault(frame ExceptionFrame) {
	Halt(Fault{Kind: FaultHard, Frame: &frame})
}

// DefaultHandler is the handler for interrupts with no registered source
func DefaultHandler(irq IRQ) {
	Halt(Fault{Kind: FaultUnhandledInterrupt, ID: int32(irq)})
}

// Halted returns the fault the system halted on, if any
func Halted() (Fault, bool) {
	f := haltState.Load()
	if f == nil {
		return Fault{}, false
	}
	return *f, true
}

// Reset models an external reset: the fault latch, dispatch ring and
// shutdown hooks are cleared and initialization starts from scratch
func Reset() {
	haltState.Store(nil)
	shutdownHooks = nil
	ClearEventRing()
}
