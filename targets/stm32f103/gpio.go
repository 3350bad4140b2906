//go:build stm32f103

package main

import (
	"device/stm32"
	"runtime/volatile"

	"irqarb/core"
)

// CNF/MODE nibbles of CRL/CRH
const (
	modeOutput2MHz = 0x2
	cnfInputFloat  = 0x4
	cnfInputPull   = 0x8
)

// gpioDriver implements core.GPIODriver on the F1 GPIO block
type gpioDriver struct{}

func gpioPort(pin core.GPIOPin) *stm32.GPIO_Type {
	switch pin.Port() {
	case 0:
		return stm32.GPIOA
	case 1:
		return stm32.GPIOB
	case 2:
		return stm32.GPIOC
	case 3:
		return stm32.GPIOD
	default:
		return nil
	}
}

func configRegister(port *stm32.GPIO_Type, n uint8) *volatile.Register32 {
	if n < 8 {
		return &port.CRL
	}
	return &port.CRH
}

func (d *gpioDriver) configure(pin core.GPIOPin, nibble uint32) (*stm32.GPIO_Type, error) {
	port := gpioPort(pin)
	if port == nil {
		return nil, core.ErrInvalidPin
	}
	n := pin.Number()
	configRegister(port, n).ReplaceBits(nibble, 0xf, (n%8)*4)
	return port, nil
}

// ConfigureOutput implements core.GPIODriver. F1 outputs have no pull
// resistors; pull is ignored.
func (d *gpioDriver) ConfigureOutput(pin core.GPIOPin, pull core.Pull) error {
	_, err := d.configure(pin, modeOutput2MHz)
	return err
}

// ConfigureInput implements core.GPIODriver. The output latch selects the
// pull direction.
func (d *gpioDriver) ConfigureInput(pin core.GPIOPin, pull core.Pull) error {
	if pull == core.PullNone {
		_, err := d.configure(pin, cnfInputFloat)
		return err
	}
	port, err := d.configure(pin, cnfInputPull)
	if err != nil {
		return err
	}
	bit := pin.Bit()
	if pull == core.PullUp {
		port.BSRR.Set(bit)
	} else {
		port.BRR.Set(bit)
	}
	return nil
}

// SetPin implements core.GPIODriver with a single BSRR store
func (d *gpioDriver) SetPin(pin core.GPIOPin, value bool) {
	port := gpioPort(pin)
	if port == nil {
		return
	}
	bit := pin.Bit()
	if !value {
		bit <<= 16
	}
	port.BSRR.Set(bit)
}

// GetPin implements core.GPIODriver
func (d *gpioDriver) GetPin(pin core.GPIOPin) bool {
	port := gpioPort(pin)
	return port != nil && port.ODR.HasBits(pin.Bit())
}

// ReadPin implements core.GPIODriver
func (d *gpioDriver) ReadPin(pin core.GPIOPin) bool {
	port := gpioPort(pin)
	return port != nil && port.IDR.HasBits(pin.Bit())
}
