//go:build tinygo

package core

import (
	"device/arm"
	"runtime/interrupt"
)

// haltEnter masks every interrupt; nothing runs after a fault
func haltEnter() {
	interrupt.Disable()
}

// haltWait sleeps; a pending interrupt wakes the core but is never taken
func haltWait() {
	arm.Asm("wfi")
}
