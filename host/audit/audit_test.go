package audit

import (
	"bytes"
	"strings"
	"testing"

	"irqarb/core"
	"irqarb/firmware"
)

func firmwareLedger(t *testing.T) (*core.Ledger, map[core.HandleID]string) {
	t.Helper()
	cfg := firmware.DefaultConfig()
	l := core.NewLedger()
	claims := cfg.Claims()
	if err := firmware.Register(l, claims); err != nil {
		t.Fatal(err)
	}
	names := map[core.HandleID]string{}
	for _, c := range claims {
		names[c.Handle] = c.Name
	}
	return l, names
}

func TestGroupsFollowSharedHandles(t *testing.T) {
	l, names := firmwareLedger(t)
	rep := Analyze(l, names)

	if len(rep.Groups) != 1 {
		t.Fatalf("groups = %v", rep.Groups)
	}
	if !rep.Interferes("blink", "button") {
		t.Error("blink and button share the LED port")
	}
	if !rep.Interferes("idle", "button") {
		t.Error("idle and button share the LED port")
	}
	if rep.Interferes("heartbeat", "blink") {
		t.Error("heartbeat shares nothing")
	}
}

func TestContextDelays(t *testing.T) {
	l, names := firmwareLedger(t)
	rep := Analyze(l, names)

	byName := map[string]ContextReport{}
	for _, c := range rep.Contexts {
		byName[c.Context.Name] = c
	}
	blink := byName["blink"]
	if blink.MaxCeiling != 3 {
		t.Errorf("blink max ceiling = %d", blink.MaxCeiling)
	}
	// blink holds the LED port at the button's level, delaying both
	// higher contexts
	if strings.Join(blink.Delays, ",") != "button,heartbeat" {
		t.Errorf("blink delays %v", blink.Delays)
	}
	if d := byName["heartbeat"].Delays; len(d) != 0 {
		t.Errorf("heartbeat delays %v", d)
	}
	// idle toggles the LED at the button's level too
	if d := strings.Join(byName["idle"].Delays, ","); d != "blink,button,heartbeat" {
		t.Errorf("idle delays %v", d)
	}
	if rep.Contexts[0].Context.Name != "idle" || rep.Contexts[1].Context.Name != "blink" {
		t.Errorf("contexts not ordered by priority: %+v", rep.Contexts)
	}
}

func TestEventRingDoesNotMergeGroups(t *testing.T) {
	l, names := firmwareLedger(t)
	cfg := firmware.DefaultConfig()
	blink, heartbeat, button := cfg.Contexts()
	if err := l.Register(core.HandleEventRing, core.IdleContext, blink, heartbeat, button); err != nil {
		t.Fatal(err)
	}
	rep := Analyze(l, names)
	if rep.Interferes("heartbeat", "blink") {
		t.Error("event ring merged unrelated contexts")
	}

	var buf bytes.Buffer
	if err := rep.Write(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"GPIOA", "TIM14", "event-ring", "group 1: blink, button, idle"} {
		if !strings.Contains(out, want) {
			t.Errorf("report lacks %q:\n%s", want, out)
		}
	}
}
