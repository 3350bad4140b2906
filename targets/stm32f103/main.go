//go:build stm32f103

// Firmware for a Nucleo-F103RB: the LED on PA5 blinks from TIM3, TIM4
// provides a heartbeat and the user button on PC13 toggles the LED on both
// edges. Diagnostics go to the debugger over semihosting.
package main

import (
	"device/stm32"

	"irqarb/core"
	"irqarb/firmware"
)

const (
	timerHeartbeat core.TimerID = 4

	// APB1 timers run at 72 MHz; 7199 gives a 10 kHz count
	prescale10kHz = 7199
)

// boardConfig adapts the default application to the F103 vector table
func boardConfig() firmware.Config {
	cfg := firmware.DefaultConfig()
	cfg.Board = "nucleo-f103rb"
	cfg.ClockHz = 72000000

	cfg.Blink.IRQ = core.IRQ(stm32.IRQ_TIM3)
	cfg.Blink.Prescale = prescale10kHz

	cfg.Heartbeat.Timer = timerHeartbeat
	cfg.Heartbeat.IRQ = core.IRQ(stm32.IRQ_TIM4)
	cfg.Heartbeat.Prescale = prescale10kHz

	cfg.Button.IRQ = core.IRQ(stm32.IRQ_EXTI15_10)

	cfg.Clocks = []core.Peripheral{
		core.PinPort(cfg.LED.Pin),
		core.PinPort(cfg.Button.Pin),
		core.TimerUnit(cfg.Blink.Timer),
		core.TimerUnit(cfg.Heartbeat.Timer),
		core.PeriphSYSCFG,
	}
	return cfg
}

func main() {
	InitDebug()

	board := firmware.Board{
		GPIO:        &gpioDriver{},
		Timers:      &timerDriver{},
		EXTI:        &extiDriver{},
		Platform:    plat,
		Mask:        core.NewHardwareMask(),
		OpenConsole: openConsole,
	}
	app := firmware.New(board, boardConfig())

	// Never returns: the idle loop sleeps between interrupts and a failed
	// setup halts in the fault core
	app.Run()
}
