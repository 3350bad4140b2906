package core

import "errors"

// Platform holds the primitives the idle context needs from the chip.
// Clock gating and NVIC programming are external collaborators.
type Platform interface {
	// EnableClock ungates a peripheral
	EnableClock(p Peripheral)

	// SetIRQPriority programs the priority of an interrupt line
	SetIRQPriority(irq IRQ, p Priority)

	// ClearPendingIRQ drops a stale pending request
	ClearPendingIRQ(irq IRQ)

	// EnableIRQ unmasks an interrupt line
	EnableIRQ(irq IRQ)

	// WaitForInterrupt sleeps until the next interrupt has been handled
	WaitForInterrupt()

	// Attach connects the platform's interrupt entry to a vector table
	Attach(v Vectors)
}

// System ties the ledger, the arbiter and the vector table to a platform.
// Its idle loop is the lowest-priority context.
type System struct {
	Ledger     *Ledger
	Arbiter    *Arbiter
	Dispatcher *Dispatcher

	plat Platform
	mask PriorityMask
	work func()
}

// NewSystem creates a system whose interrupts are routed to its dispatcher
func NewSystem(plat Platform, mask PriorityMask) *System {
	ledger := NewLedger()
	arb := NewArbiter(ledger, mask)
	s := &System{
		Ledger:     ledger,
		Arbiter:    arb,
		Dispatcher: NewDispatcher(arb),
		plat:       plat,
		mask:       mask,
	}
	plat.Attach(s.Dispatcher)
	return s
}

// EnableClock ungates each peripheral in order
func (s *System) EnableClock(ps ...Peripheral) {
	for _, p := range ps {
		s.plat.EnableClock(p)
	}
}

// Init runs setup with every interrupt masked, registers the dispatch ring,
// programs and unmasks the bound interrupts, and seals the ledger and the
// vector table. On error the mask stays raised.
func (s *System) Init(setup func(*System) error) error {
	s.mask.SetLevel(MaxPriority)

	if err := setup(s); err != nil {
		return err
	}

	vectors := s.Dispatcher.Bound()
	ringOwners := []Context{IdleContext}
	for _, v := range vectors {
		ringOwners = append(ringOwners, v.Context)
	}
	if err := s.Ledger.Register(HandleEventRing, ringOwners...); err != nil {
		return err
	}

	for _, v := range vectors {
		s.plat.SetIRQPriority(v.IRQ, v.Context.Priority)
		s.plat.ClearPendingIRQ(v.IRQ)
		s.plat.EnableIRQ(v.IRQ)
	}

	s.Ledger.Seal()
	s.Dispatcher.Seal()
	s.mask.SetLevel(IdlePriority)
	return nil
}

// Run initializes the system and enters the idle loop. A setup error halts
// with a configuration fault before steady state is reached.
func (s *System) Run(setup func(*System) error) {
	if err := s.Init(setup); err != nil {
		f := Fault{Kind: FaultConfiguration, Detail: err.Error()}
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			f.ID = int32(conflict.Handle)
		}
		Halt(f)
	}
	s.Idle()
}

// OnIdle sets work to run in the idle context after every wakeup
func (s *System) OnIdle(work func()) {
	s.work = work
}

// Idle waits for interrupts forever, running the idle work after each one
func (s *System) Idle() {
	for {
		s.plat.WaitForInterrupt()
		if s.work != nil {
			s.work()
		}
	}
}
