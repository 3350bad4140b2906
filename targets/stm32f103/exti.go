//go:build stm32f103

package main

import (
	"device/stm32"
	"errors"
	"runtime/volatile"

	"irqarb/core"
)

var errLineRange = errors.New("exti line out of range")

// extiDriver implements core.EXTIDriver with the AFIO line routing of the F1
type extiDriver struct{}

func routeRegister(line core.EdgeLine) *volatile.Register32 {
	switch line / 4 {
	case 0:
		return &stm32.AFIO.EXTICR1
	case 1:
		return &stm32.AFIO.EXTICR2
	case 2:
		return &stm32.AFIO.EXTICR3
	default:
		return &stm32.AFIO.EXTICR4
	}
}

// RouteLine implements core.EXTIDriver
func (d *extiDriver) RouteLine(line core.EdgeLine, pin core.GPIOPin) error {
	if line >= core.MaxEdgeLines {
		return errLineRange
	}
	if gpioPort(pin) == nil {
		return core.ErrInvalidPin
	}
	routeRegister(line).ReplaceBits(uint32(pin.Port()), 0xf, uint8(line%4)*4)
	return nil
}

// SetTrigger implements core.EXTIDriver
func (d *extiDriver) SetTrigger(line core.EdgeLine, trigger core.Trigger) {
	bit := uint32(1) << line
	if trigger&core.TriggerRising != 0 {
		stm32.EXTI.RTSR.SetBits(bit)
	} else {
		stm32.EXTI.RTSR.ClearBits(bit)
	}
	if trigger&core.TriggerFalling != 0 {
		stm32.EXTI.FTSR.SetBits(bit)
	} else {
		stm32.EXTI.FTSR.ClearBits(bit)
	}
}

// SetLineMask implements core.EXTIDriver
func (d *extiDriver) SetLineMask(line core.EdgeLine, enabled bool) {
	if enabled {
		stm32.EXTI.IMR.SetBits(1 << line)
	} else {
		stm32.EXTI.IMR.ClearBits(1 << line)
	}
}

// PendingMask implements core.EXTIDriver
func (d *extiDriver) PendingMask() uint32 {
	return stm32.EXTI.PR.Get()
}

// ClearPending implements core.EXTIDriver. PR is write-one-to-clear, so
// storing the single bit leaves the other lines latched.
func (d *extiDriver) ClearPending(line core.EdgeLine) {
	stm32.EXTI.PR.Set(1 << line)
}
