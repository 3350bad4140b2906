package firmware

import "irqarb/core"

// LEDConfig describes the output actuator
type LEDConfig struct {
	Pin       core.GPIOPin `yaml:"pin"`
	Pull      core.Pull    `yaml:"pull"`
	DefaultOn bool         `yaml:"default_on"`
}

// ButtonConfig describes the edge event source. Pull has no default and
// must be set.
type ButtonConfig struct {
	Pin      core.GPIOPin  `yaml:"pin"`
	Trigger  core.Trigger  `yaml:"trigger"`
	Pull     *core.Pull    `yaml:"pull"`
	IRQ      core.IRQ      `yaml:"irq"`
	Priority core.Priority `yaml:"priority"`
}

// TimerSpec binds one timer unit to its interrupt line and context priority
type TimerSpec struct {
	Timer            core.TimerID  `yaml:"timer"`
	IRQ              core.IRQ      `yaml:"irq"`
	Priority         core.Priority `yaml:"priority"`
	core.TimerConfig `yaml:",inline"`
}

// Config is the configuration surface of the firmware
type Config struct {
	Board     string            `yaml:"board"`
	ClockHz   uint32            `yaml:"clock_hz"`
	Clocks    []core.Peripheral `yaml:"clocks"`
	LED       LEDConfig         `yaml:"led"`
	Button    ButtonConfig      `yaml:"button"`
	Blink     TimerSpec         `yaml:"blink"`
	Heartbeat TimerSpec         `yaml:"heartbeat"`

	// Unlocked makes the handlers touch the shared output port without a
	// critical section. Only useful to demonstrate lost updates.
	Unlocked bool `yaml:"unlocked"`

	// IdleToggle makes the idle loop toggle the LED and print OK after
	// every wakeup
	IdleToggle bool `yaml:"idle_toggle"`
	Debug      bool `yaml:"debug"`
}

// Timer units and interrupt lines of the reference board
const (
	TIM3  core.TimerID = 3
	TIM14 core.TimerID = 14

	IRQTIM3     core.IRQ = 16
	IRQTIM14    core.IRQ = 19
	IRQEXTI4_15 core.IRQ = 7
)

// DefaultConfig returns the configuration of a Nucleo-F030R8 class board:
// LED on PA5, user button on PC13 and an 8 MHz input clock
func DefaultConfig() Config {
	buttonPull := core.PullUp
	return Config{
		Board:   "nucleo-f030r8",
		ClockHz: 8_000_000,
		Clocks: []core.Peripheral{
			core.GPIOPort(0),
			core.GPIOPort(2),
			core.TimerUnit(TIM3),
			core.TimerUnit(TIM14),
			core.PeriphSYSCFG,
		},
		LED: LEDConfig{
			Pin:  5, // PA5
			Pull: core.PullDown,
		},
		Button: ButtonConfig{
			Pin:      2*core.PinsPerPort + 13, // PC13, released reads high
			Trigger:  core.TriggerBoth,
			Pull:     &buttonPull,
			IRQ:      IRQEXTI4_15,
			Priority: 3,
		},
		Blink: TimerSpec{
			Timer:       TIM3,
			IRQ:         IRQTIM3,
			Priority:    1,
			TimerConfig: core.TimerConfig{Prescale: 800, Period: 10000, Start: 1},
		},
		Heartbeat: TimerSpec{
			Timer:       TIM14,
			IRQ:         IRQTIM14,
			Priority:    2,
			TimerConfig: core.TimerConfig{Prescale: 800, Period: 30000, Start: 1},
		},
	}
}

// TimerIRQs maps both timer units to their interrupt lines
func (c Config) TimerIRQs() map[core.TimerID]core.IRQ {
	return map[core.TimerID]core.IRQ{
		c.Blink.Timer:     c.Blink.IRQ,
		c.Heartbeat.Timer: c.Heartbeat.IRQ,
	}
}

// ButtonPull returns the configured pull of the button input
func (c Config) ButtonPull() core.Pull {
	if c.Button.Pull == nil {
		return core.PullNone
	}
	return *c.Button.Pull
}

// Contexts returns the interrupt contexts of the application
func (c Config) Contexts() (blink, heartbeat, button core.Context) {
	blink = core.Context{Name: "blink", Priority: c.Blink.Priority}
	heartbeat = core.Context{Name: "heartbeat", Priority: c.Heartbeat.Priority}
	button = core.Context{Name: "button", Priority: c.Button.Priority}
	return
}
