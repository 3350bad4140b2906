// Package config loads the firmware configuration from YAML
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"irqarb/core"
	"irqarb/firmware"
)

var (
	ErrPullRequired   = errors.New("button pull must be given explicitly")
	ErrPriority       = errors.New("interrupt priority out of range")
	ErrDuplicateIRQ   = errors.New("interrupt line used twice")
	ErrDuplicateTimer = errors.New("timer unit used twice")
	ErrPinShared      = errors.New("LED and button share a pin")
	ErrMissingClock   = errors.New("peripheral clock not enabled")
)

// Load parses a YAML configuration. Unknown keys are rejected.
func Load(data []byte) (*firmware.Config, error) {
	var cfg firmware.Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Apply defaults
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads and parses a configuration file
func LoadFile(path string) (*firmware.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Load(data)
}

// Marshal renders a configuration as YAML
func Marshal(cfg *firmware.Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// applyDefaults fills in missing configuration values
func applyDefaults(cfg *firmware.Config) {
	def := firmware.DefaultConfig()

	if cfg.Board == "" {
		cfg.Board = "custom"
	}
	if cfg.ClockHz == 0 {
		cfg.ClockHz = def.ClockHz
	}
	if cfg.Button.Trigger == 0 {
		cfg.Button.Trigger = core.TriggerBoth
	}

	// Without an explicit list, clock exactly what the pins and timers need
	if len(cfg.Clocks) == 0 {
		cfg.Clocks = requiredClocks(cfg)
	}
}

// requiredClocks lists the peripherals the configuration touches, in
// ascending order
func requiredClocks(cfg *firmware.Config) []core.Peripheral {
	need := map[core.Peripheral]bool{}
	for _, p := range []core.Peripheral{
		core.PinPort(cfg.LED.Pin),
		core.PinPort(cfg.Button.Pin),
		core.TimerUnit(cfg.Blink.Timer),
		core.TimerUnit(cfg.Heartbeat.Timer),
		core.PeriphSYSCFG,
	} {
		need[p] = true
	}
	ps := maps.Keys(need)
	slices.Sort(ps)
	return ps
}

// Validate checks a configuration for conflicts the firmware would only
// detect at boot
func Validate(cfg *firmware.Config) error {
	if cfg.Button.Pull == nil {
		return ErrPullRequired
	}

	irqs := map[core.IRQ]string{}
	for _, v := range []struct {
		name string
		irq  core.IRQ
		prio core.Priority
	}{
		{"blink", cfg.Blink.IRQ, cfg.Blink.Priority},
		{"heartbeat", cfg.Heartbeat.IRQ, cfg.Heartbeat.Priority},
		{"button", cfg.Button.IRQ, cfg.Button.Priority},
	} {
		if v.prio <= core.IdlePriority || v.prio > core.MaxPriority {
			return fmt.Errorf("%s: %w: %d", v.name, ErrPriority, v.prio)
		}
		if v.irq < 0 || v.irq >= core.MaxIRQ {
			return fmt.Errorf("%s: %w", v.name, core.ErrIRQRange)
		}
		if other, ok := irqs[v.irq]; ok {
			return fmt.Errorf("%s and %s: %w: %d", other, v.name, ErrDuplicateIRQ, v.irq)
		}
		irqs[v.irq] = v.name
	}

	if cfg.Blink.Timer == cfg.Heartbeat.Timer {
		return fmt.Errorf("%w: %s", ErrDuplicateTimer, core.TimerUnit(cfg.Blink.Timer))
	}
	if cfg.Blink.Period == 0 {
		return fmt.Errorf("blink: %w", core.ErrInvalidPeriod)
	}
	if cfg.Heartbeat.Period == 0 {
		return fmt.Errorf("heartbeat: %w", core.ErrInvalidPeriod)
	}
	if cfg.LED.Pin == cfg.Button.Pin {
		return fmt.Errorf("%w: %s", ErrPinShared, cfg.LED.Pin)
	}

	var missing []string
	for _, p := range requiredClocks(cfg) {
		if !slices.Contains(cfg.Clocks, p) {
			missing = append(missing, p.String())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingClock, strings.Join(missing, ", "))
	}
	return nil
}
