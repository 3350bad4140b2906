package core

import (
	"errors"
	"testing"
)

func TestDispatchRunsHandlerInContext(t *testing.T) {
	l := NewLedger()
	arb := NewArbiter(l, &SoftMask{})
	d := NewDispatcher(arb)

	var running Priority
	if err := d.Bind(16, ctxMid, func() { running = arb.Running() }); err != nil {
		t.Fatal(err)
	}
	d.Dispatch(16)
	if running != ctxMid.Priority {
		t.Errorf("handler ran at %d, want %d", running, ctxMid.Priority)
	}
	if arb.Running() != IdlePriority {
		t.Errorf("running = %d after return", arb.Running())
	}
}

func TestBindErrors(t *testing.T) {
	d := NewDispatcher(NewArbiter(NewLedger(), &SoftMask{}))
	noop := func() {}

	if err := d.Bind(MaxIRQ, ctxLow, noop); !errors.Is(err, ErrIRQRange) {
		t.Errorf("range: %v", err)
	}
	if err := d.Bind(3, IdleContext, noop); !errors.Is(err, ErrIdleVector) {
		t.Errorf("idle: %v", err)
	}
	if err := d.Bind(3, ctxLow, noop); err != nil {
		t.Fatal(err)
	}
	if err := d.Bind(3, ctxMid, noop); !errors.Is(err, ErrVectorBound) {
		t.Errorf("bound twice: %v", err)
	}
	d.Seal()
	if err := d.Bind(4, ctxLow, noop); !errors.Is(err, ErrVectorsSealed) {
		t.Errorf("sealed: %v", err)
	}
	if vs := d.Bound(); len(vs) != 1 || vs[0].IRQ != 3 || vs[0].Context != ctxLow {
		t.Errorf("bound = %+v", vs)
	}
}

func TestDispatchUnboundHalts(t *testing.T) {
	d := NewDispatcher(NewArbiter(NewLedger(), &SoftMask{}))
	f, halted := runUntilHalt(func() { d.Dispatch(11) })
	if !halted || f.Kind != FaultUnhandledInterrupt || f.ID != 11 {
		t.Fatalf("fault = %v", f)
	}
}

func TestSystemInitProgramsVectors(t *testing.T) {
	plat := newMockPlatform()
	mask := &recordingMask{}
	sys := NewSystem(plat, mask)

	var levelDuringSetup Priority
	err := sys.Init(func(s *System) error {
		levelDuringSetup = mask.Level()
		s.EnableClock(GPIOPort(0), TimerUnit(3))
		if err := s.Ledger.Register(0, ctxLow, ctxHigh); err != nil {
			return err
		}
		if err := s.Dispatcher.Bind(16, ctxLow, func() {}); err != nil {
			return err
		}
		return s.Dispatcher.Bind(7, ctxHigh, func() {})
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	if levelDuringSetup != MaxPriority {
		t.Errorf("setup ran at level %d", levelDuringSetup)
	}
	if mask.Level() != IdlePriority {
		t.Errorf("level after init = %d", mask.Level())
	}
	if plat.priorities[16] != 1 || plat.priorities[7] != 3 {
		t.Errorf("priorities = %v", plat.priorities)
	}
	if len(plat.unpended) != 2 || len(plat.enabled) != 2 {
		t.Errorf("unpended %v enabled %v", plat.unpended, plat.enabled)
	}
	if len(plat.clocks) != 2 || plat.clocks[1] != TimerUnit(3) {
		t.Errorf("clocks = %v", plat.clocks)
	}
	if !sys.Ledger.Sealed() {
		t.Error("ledger not sealed")
	}
	if c := sys.Ledger.CeilingOf(HandleEventRing); c != 3 {
		t.Errorf("event ring ceiling = %d", c)
	}
	if plat.vectors != Vectors(sys.Dispatcher) {
		t.Error("platform not attached to the dispatcher")
	}
}

func TestSystemRunHaltsOnConflict(t *testing.T) {
	plat := newMockPlatform()
	mask := &SoftMask{}
	sys := NewSystem(plat, mask)

	f, halted := runUntilHalt(func() {
		sys.Run(func(s *System) error {
			if err := s.Ledger.Register(4, ctxLow); err != nil {
				return err
			}
			return s.Ledger.Register(4, ctxHigh)
		})
	})
	if !halted || f.Kind != FaultConfiguration || f.ID != 4 {
		t.Fatalf("fault = %v", f)
	}
	if mask.Level() != MaxPriority {
		t.Errorf("mask lowered to %d", mask.Level())
	}
	if plat.waits != 0 {
		t.Error("idle loop entered")
	}
}

func TestSystemRunDispatchesFromIdle(t *testing.T) {
	plat := newMockPlatform()
	sys := NewSystem(plat, &SoftMask{})
	handled := 0

	ClearEventRing()
	plat.pend = []IRQ{16, 16}
	done := make(chan struct{})
	go func() {
		defer close(done)
		sys.Run(func(s *System) error {
			return s.Dispatcher.Bind(16, ctxLow, func() { handled++ })
		})
	}()
	<-done

	if handled != 2 {
		t.Errorf("handled = %d, want 2", handled)
	}
	if plat.waits != 2 {
		t.Errorf("waits = %d", plat.waits)
	}
	if n := len(EventRing()); n < 2 {
		t.Errorf("event ring holds %d dispatches", n)
	}
}

func TestSystemIdleWorkRunsAfterEachWakeup(t *testing.T) {
	plat := newMockPlatform()
	sys := NewSystem(plat, &SoftMask{})
	var order []string

	ClearEventRing()
	plat.pend = []IRQ{16}
	sys.OnIdle(func() { order = append(order, "idle") })
	done := make(chan struct{})
	go func() {
		defer close(done)
		sys.Run(func(s *System) error {
			return s.Dispatcher.Bind(16, ctxLow, func() { order = append(order, "irq") })
		})
	}()
	<-done

	if len(order) != 2 || order[0] != "irq" || order[1] != "idle" {
		t.Errorf("order = %v, want [irq idle]", order)
	}
}
