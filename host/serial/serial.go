// Package serial opens the diagnostic UART of a board
package serial

import (
	"io"
)

// Port is a diagnostic channel: the board writes, the host reads.
// Tests substitute any io.ReadWriteCloser.
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate of the ST-LINK virtual COM port
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the settings of a Nucleo virtual COM port
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 0, // the monitor blocks until the board prints
	}
}
