//go:build stm32f103

package main

import (
	"device/arm"
	"device/stm32"
	"runtime/interrupt"

	"irqarb/core"
)

// nvicPriorityBits is the number of priority bits the F103 implements
const nvicPriorityBits = 4

// platform implements core.Platform on the NVIC
type platform struct {
	vectors core.Vectors
}

var plat = &platform{}

// The TinyGo runtime binds handlers at compile time, so every line the
// application can use is hooked here and forwarded to the dispatcher
func init() {
	interrupt.New(stm32.IRQ_TIM3, func(interrupt.Interrupt) {
		plat.dispatch(stm32.IRQ_TIM3)
	})
	interrupt.New(stm32.IRQ_TIM4, func(interrupt.Interrupt) {
		plat.dispatch(stm32.IRQ_TIM4)
	})
	interrupt.New(stm32.IRQ_EXTI15_10, func(interrupt.Interrupt) {
		plat.dispatch(stm32.IRQ_EXTI15_10)
	})
}

func (p *platform) dispatch(irq int) {
	if p.vectors == nil {
		return
	}
	p.vectors.Dispatch(core.IRQ(irq))
}

// Attach implements core.Platform
func (p *platform) Attach(v core.Vectors) {
	p.vectors = v
}

// EnableClock implements core.Platform
func (p *platform) EnableClock(periph core.Peripheral) {
	switch periph {
	case core.GPIOPort(0):
		stm32.RCC.APB2ENR.SetBits(stm32.RCC_APB2ENR_IOPAEN)
	case core.GPIOPort(1):
		stm32.RCC.APB2ENR.SetBits(stm32.RCC_APB2ENR_IOPBEN)
	case core.GPIOPort(2):
		stm32.RCC.APB2ENR.SetBits(stm32.RCC_APB2ENR_IOPCEN)
	case core.GPIOPort(3):
		stm32.RCC.APB2ENR.SetBits(stm32.RCC_APB2ENR_IOPDEN)
	case core.PeriphSYSCFG:
		stm32.RCC.APB2ENR.SetBits(stm32.RCC_APB2ENR_AFIOEN)
	case core.TimerUnit(2):
		stm32.RCC.APB1ENR.SetBits(stm32.RCC_APB1ENR_TIM2EN)
	case core.TimerUnit(3):
		stm32.RCC.APB1ENR.SetBits(stm32.RCC_APB1ENR_TIM3EN)
	case core.TimerUnit(4):
		stm32.RCC.APB1ENR.SetBits(stm32.RCC_APB1ENR_TIM4EN)
	default:
		core.DebugPrintln("[F103] no clock gate for " + periph.String())
	}
}

// nvicPriority converts a context priority, where larger preempts smaller,
// to the NVIC encoding, where smaller preempts larger
func nvicPriority(p core.Priority) uint32 {
	if p > core.MaxPriority {
		p = core.MaxPriority
	}
	return uint32(core.MaxPriority-p) << (8 - nvicPriorityBits)
}

// SetIRQPriority implements core.Platform
func (p *platform) SetIRQPriority(irq core.IRQ, prio core.Priority) {
	arm.SetPriority(uint32(irq), nvicPriority(prio))
}

// ClearPendingIRQ implements core.Platform
func (p *platform) ClearPendingIRQ(irq core.IRQ) {
	arm.ClearPendingIRQ(uint32(irq))
}

// EnableIRQ implements core.Platform
func (p *platform) EnableIRQ(irq core.IRQ) {
	arm.EnableIRQ(uint32(irq))
}

// WaitForInterrupt implements core.Platform
func (p *platform) WaitForInterrupt() {
	arm.Asm("wfi")
}
