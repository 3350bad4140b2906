package firmware

import (
	"testing"

	"irqarb/core"
	"irqarb/sim"
)

// pressDuringBlink runs the default application and presses the button at
// the k-th register access of the first blink handler. It reports whether
// the press happened, the final LED latch and the torn write count.
func pressDuringBlink(t *testing.T, unlocked bool, k int) (fired, led bool, torn int) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Unlocked = unlocked
	r := newRig(t, cfg)

	accesses := 0
	r.m.SetAccessHook(func() {
		if fired || r.m.Depth() != 1 || r.m.Deliveries(cfg.Blink.IRQ) != 1 {
			return
		}
		accesses++
		if accesses == k {
			fired = true
			if err := r.m.Drive(pinButton, false); err != nil {
				t.Errorf("drive: %v", err)
			}
		}
	})

	out := r.run(ms(1100))
	if out.Fault != nil {
		t.Fatalf("k=%d: unexpected fault: %v", k, out.Fault)
	}
	return fired, r.m.GPIO().Output(pinLED), r.m.Torn()
}

func TestSharedPortNeverLosesUpdates(t *testing.T) {
	for k := 1; k <= 12; k++ {
		fired, led, torn := pressDuringBlink(t, false, k)
		if !fired {
			break
		}
		// one blink toggle and one button toggle cancel out
		if led {
			t.Errorf("k=%d: LED on, a toggle was lost", k)
		}
		if torn != 0 {
			t.Errorf("k=%d: %d torn writes", k, torn)
		}
	}
}

func TestUnlockedPortLosesUpdates(t *testing.T) {
	lost, torn := 0, 0
	for k := 1; k <= 12; k++ {
		fired, led, n := pressDuringBlink(t, true, k)
		if !fired {
			break
		}
		if led {
			lost++
		}
		torn += n
	}
	if lost == 0 {
		t.Error("no lost update without a critical section")
	}
	if torn == 0 {
		t.Error("torn write not detected without a critical section")
	}
}

func TestForgottenAcknowledgeIsReentry(t *testing.T) {
	m := sim.NewMachine(8_000_000, map[core.TimerID]core.IRQ{TIM3: IRQTIM3})
	sys := core.NewSystem(m, m)
	core.SetDebugWriter(nil)

	boot := func() {
		sys.Run(func(s *core.System) error {
			s.EnableClock(core.TimerUnit(TIM3))
			tim := core.NewTimerSource(m.Timers(), TIM3)
			if err := tim.Configure(core.TimerConfig{Period: 100}); err != nil {
				return err
			}
			tim.Enable()
			return s.Dispatcher.Bind(IRQTIM3, core.Context{Name: "forgetful", Priority: 1}, func() {})
		})
	}
	out := m.Run(boot, sim.Script{sim.Advance{Cycles: 150}}.Cursor())

	if out.Fault == nil || out.Fault.Kind != core.FaultReentry {
		t.Fatalf("fault = %v, want re-entry", out.Fault)
	}
	if out.Fault.ID != int32(IRQTIM3) {
		t.Errorf("fault id = %d", out.Fault.ID)
	}
	if n := m.Deliveries(IRQTIM3); n != sim.DefaultReentryLimit {
		t.Errorf("deliveries = %d, want %d", n, sim.DefaultReentryLimit)
	}
}

func TestForeignContextFaultsOnClaim(t *testing.T) {
	m := sim.NewMachine(8_000_000, map[core.TimerID]core.IRQ{TIM3: IRQTIM3})
	sys := core.NewSystem(m, m)
	core.SetDebugWriter(nil)

	led := core.Context{Name: "led", Priority: 2}
	intruder := core.Context{Name: "intruder", Priority: 1}
	touched := false

	boot := func() {
		sys.Run(func(s *core.System) error {
			s.EnableClock(core.GPIOPort(0), core.TimerUnit(TIM3))
			if err := s.Ledger.Register(HandleLEDPort, led); err != nil {
				return err
			}
			if err := s.Ledger.Register(HandleBlinkTimer, intruder); err != nil {
				return err
			}
			line, err := core.NewOutputLine(m.GPIO(), pinLED, core.PullDown, false)
			if err != nil {
				return err
			}
			port := core.NewResource(s.Arbiter, HandleLEDPort, line)
			tim := core.NewTimerSource(m.Timers(), TIM3)
			if err := tim.Configure(core.TimerConfig{Period: 10}); err != nil {
				return err
			}
			tim.Enable()
			return s.Dispatcher.Bind(IRQTIM3, intruder, func() {
				port.Lock(func(l *core.OutputLine) {
					touched = true
					l.Toggle()
				})
			})
		})
	}
	out := m.Run(boot, sim.Script{sim.Advance{Cycles: 20}}.Cursor())

	if out.Fault == nil || out.Fault.Kind != core.FaultOwnership {
		t.Fatalf("fault = %v, want ownership violation", out.Fault)
	}
	if out.Fault.ID != int32(HandleLEDPort) {
		t.Errorf("fault id = %d", out.Fault.ID)
	}
	if touched {
		t.Error("claim body ran in a foreign context")
	}
}

func TestLoweringMaskDeliversPending(t *testing.T) {
	cfg := DefaultConfig()
	r := newRig(t, cfg)

	var during, after int
	hold := observe{"hold", func() {
		r.app.ledPort.Lock(func(*core.OutputLine) {
			_ = r.m.Drive(pinButton, false)
			during = r.m.Deliveries(cfg.Button.IRQ)
		})
		after = r.m.Deliveries(cfg.Button.IRQ)
	}}

	out := r.run(hold)
	if out.Fault != nil {
		t.Fatalf("unexpected fault: %v", out.Fault)
	}
	if during != 0 {
		t.Errorf("button taken while masked")
	}
	if after != 1 {
		t.Errorf("button deliveries after unmask = %d, want 1", after)
	}
}

// pressDuringIdle enables the idle toggle and presses the button at the k-th
// register access of the first idle toggle. during is the most button
// deliveries seen by that toggle.
func pressDuringIdle(t *testing.T, unlocked bool, k int) (during int, r *rig) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.IdleToggle = true
	cfg.Unlocked = unlocked
	r = newRig(t, cfg)

	armed := false
	accesses := 0
	r.m.SetAccessHook(func() {
		if !armed || r.m.Depth() != 0 || accesses == 3 {
			return
		}
		accesses++
		if accesses == k {
			if err := r.m.Drive(pinButton, false); err != nil {
				t.Errorf("drive: %v", err)
			}
		}
		if n := r.m.Deliveries(cfg.Button.IRQ); n > during {
			during = n
		}
	})

	out := r.run(observe{"arm", func() { armed = true }})
	if out.Fault != nil {
		t.Fatalf("k=%d: unexpected fault: %v", k, out.Fault)
	}
	if accesses != 3 {
		t.Fatalf("k=%d: idle toggle made %d accesses", k, accesses)
	}
	return during, r
}

func TestButtonDuringIdleClaimWaitsForRelease(t *testing.T) {
	for k := 1; k <= 3; k++ {
		during, r := pressDuringIdle(t, false, k)
		if during != 0 {
			t.Errorf("k=%d: button taken inside the idle claim", k)
		}
		if n := r.m.Deliveries(IRQEXTI4_15); n != 1 {
			t.Errorf("k=%d: button deliveries = %d, want 1", k, n)
		}
		// the idle toggle and the button toggle cancel out
		if r.m.GPIO().Output(pinLED) {
			t.Errorf("k=%d: LED on, a toggle was lost", k)
		}
		if n := r.m.Torn(); n != 0 {
			t.Errorf("k=%d: %d torn writes", k, n)
		}
		if got := r.out.String(); got != "rOK\n" {
			t.Errorf("k=%d: console = %q", k, got)
		}
	}
}

func TestUnlockedIdleToggleLosesUpdates(t *testing.T) {
	lost, torn := 0, 0
	for k := 1; k <= 3; k++ {
		_, r := pressDuringIdle(t, true, k)
		if r.m.GPIO().Output(pinLED) {
			lost++
		}
		torn += r.m.Torn()
	}
	if lost == 0 {
		t.Error("no lost update without a critical section")
	}
	if torn == 0 {
		t.Error("torn write not detected without a critical section")
	}
}
