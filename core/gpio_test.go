package core

import (
	"errors"
	"testing"
)

func TestOutputLineDefaultAndToggle(t *testing.T) {
	gpio := newMockGPIO()
	led, err := NewOutputLine(gpio, 5, PullDown, false)
	if err != nil {
		t.Fatalf("NewOutputLine: %v", err)
	}
	if gpio.pulls[5] != PullDown {
		t.Errorf("pull = %v, want down", gpio.pulls[5])
	}
	if led.Asserted() {
		t.Error("line starts asserted")
	}

	led.Toggle()
	if !led.Asserted() {
		t.Error("toggle from low did not assert")
	}
	led.Toggle()
	if led.Asserted() {
		t.Error("double toggle did not restore the level")
	}
}

func TestOutputLineToggleFollowsLatch(t *testing.T) {
	gpio := newMockGPIO()
	led, err := NewOutputLine(gpio, 5, PullNone, false)
	if err != nil {
		t.Fatal(err)
	}
	// someone else drove the latch high
	gpio.outputs[5] = true
	led.Toggle()
	if led.Asserted() {
		t.Error("toggle used a stale shadow value")
	}
}

func TestOutputLineShutdown(t *testing.T) {
	gpio := newMockGPIO()
	led, err := NewOutputLine(gpio, 5, PullNone, true)
	if err != nil {
		t.Fatal(err)
	}
	led.Deassert()
	led.Shutdown()
	if !led.Asserted() {
		t.Error("shutdown did not restore the default level")
	}
	led.Assert()
	if !gpio.outputs[5] {
		t.Error("assert did not drive high")
	}
}

func TestOutputLineConfigureError(t *testing.T) {
	gpio := newMockGPIO()
	gpio.fail = errors.New("no port")
	if _, err := NewOutputLine(gpio, 5, PullNone, false); err == nil {
		t.Error("expected configuration error")
	}
	if gpio.writes != 0 {
		t.Error("pin written after failed configuration")
	}
}

func TestParsePin(t *testing.T) {
	cases := []struct {
		name string
		pin  GPIOPin
		ok   bool
	}{
		{"PA5", 5, true},
		{"pc13", 2*PinsPerPort + 13, true},
		{"PH0", 7 * PinsPerPort, true},
		{"PA16", 0, false},
		{"PZ1", 0, false},
		{"A5", 0, false},
		{"PAx", 0, false},
	}
	for _, c := range cases {
		pin, err := ParsePin(c.name)
		if c.ok != (err == nil) {
			t.Errorf("ParsePin(%q) err = %v", c.name, err)
			continue
		}
		if c.ok && pin != c.pin {
			t.Errorf("ParsePin(%q) = %d, want %d", c.name, pin, c.pin)
		}
	}
	if s := GPIOPin(2*PinsPerPort + 13).String(); s != "PC13" {
		t.Errorf("String = %q", s)
	}
}

func TestTextDecoding(t *testing.T) {
	var pull Pull
	if err := pull.UnmarshalText([]byte("floating")); err != nil || pull != PullNone {
		t.Errorf("floating -> %v, %v", pull, err)
	}
	if err := pull.UnmarshalText([]byte("sideways")); !errors.Is(err, ErrInvalidPull) {
		t.Errorf("bad pull err = %v", err)
	}

	var trig Trigger
	if err := trig.UnmarshalText([]byte("both")); err != nil || trig != TriggerBoth {
		t.Errorf("both -> %v, %v", trig, err)
	}

	var p Peripheral
	if err := p.UnmarshalText([]byte("TIM14")); err != nil || p != TimerUnit(14) {
		t.Errorf("TIM14 -> %v, %v", p, err)
	}
	if err := p.UnmarshalText([]byte("GPIOC")); err != nil || p.String() != "GPIOC" {
		t.Errorf("GPIOC -> %v, %v", p, err)
	}
	if err := p.UnmarshalText([]byte("AFIO")); err != nil || p != PeriphSYSCFG {
		t.Errorf("AFIO -> %v, %v", p, err)
	}
	if err := p.UnmarshalText([]byte("UART1")); !errors.Is(err, ErrInvalidPeripheral) {
		t.Errorf("UART1 err = %v", err)
	}
}
