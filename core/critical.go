package core

// Arbiter implements priority-ceiling critical sections on top of a
// PriorityMask. It also tracks the priority of the context that is
// currently running, which the dispatcher updates on interrupt entry/exit.
type Arbiter struct {
	ledger  *Ledger
	mask    PriorityMask
	running Priority
}

// NewArbiter creates an arbiter over a ledger and the core's priority mask
func NewArbiter(ledger *Ledger, mask PriorityMask) *Arbiter {
	return &Arbiter{ledger: ledger, mask: mask}
}

// Ledger returns the ownership ledger the arbiter reads ceilings from
func (a *Arbiter) Ledger() *Ledger {
	return a.ledger
}

// Level returns the current priority threshold
func (a *Arbiter) Level() Priority {
	return a.mask.Level()
}

// Running returns the priority of the executing context
func (a *Arbiter) Running() Priority {
	return a.running
}

// enter records that a context of priority p started running.
// It returns the previous running priority for exit.
func (a *Arbiter) enter(p Priority) Priority {
	prev := a.running
	a.running = p
	return prev
}

func (a *Arbiter) exit(prev Priority) {
	a.running = prev
}

// WithResource runs body with exclusive access to handle h. The threshold
// is raised to the handle's ceiling and the previous level is restored on
// every exit path, so nested claims compose. Once the ledger is sealed only
// owners may claim h.
func (a *Arbiter) WithResource(h HandleID, body func()) {
	if !a.ledger.Registered(h) {
		Halt(Fault{Kind: FaultOwnership, ID: int32(h), Detail: "unregistered handle"})
	}

	ceiling := a.ledger.CeilingOf(h)
	if a.running > ceiling {
		// owners never run above the ceiling
		Halt(Fault{Kind: FaultOwnership, ID: int32(h), Detail: "context above ceiling"})
	}
	if a.ledger.Sealed() && !a.ledger.OwnedAt(h, a.running) {
		Halt(Fault{Kind: FaultOwnership, ID: int32(h), Detail: "context does not own handle"})
	}

	prev := a.mask.Level()
	defer a.mask.SetLevel(prev)
	if ceiling > prev {
		a.mask.SetLevel(ceiling)
	}

	body()
}

// Resource binds a peripheral value to a ledger handle.
// The value is only reachable through Lock.
type Resource[T any] struct {
	id     HandleID
	arb    *Arbiter
	periph T
}

// NewResource wraps periph as handle id
func NewResource[T any](arb *Arbiter, id HandleID, periph T) *Resource[T] {
	return &Resource[T]{id: id, arb: arb, periph: periph}
}

// Handle returns the ledger identifier of the resource
func (r *Resource[T]) Handle() HandleID {
	return r.id
}

// Lock claims the resource for the duration of body
func (r *Resource[T]) Lock(body func(T)) {
	r.arb.WithResource(r.id, func() {
		body(r.periph)
	})
}
