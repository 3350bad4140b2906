//go:build stm32f103

package main

import (
	"io"

	"tinygo.org/x/drivers/semihosting"

	"irqarb/core"
)

// InitDebug routes core diagnostics to the debugger console. Output is
// only visible with semihosting enabled in the debugger
// ("monitor arm semihosting enable").
func InitDebug() {
	core.SetDebugWriter(func(s string) {
		semihosting.Stdout.Write([]byte(s))
		semihosting.Stdout.Write([]byte("\n"))
	})
}

// openConsole is the application output stream; it shares the semihosting
// channel with diagnostics
func openConsole() io.Writer {
	return semihosting.Stdout
}
