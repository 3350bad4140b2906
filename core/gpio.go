package core

// OutputLine drives one digital output.
// It keeps no shadow copy of the level: Toggle re-reads the output latch,
// so it stays correct when the line was changed elsewhere (shutdown, reset).
type OutputLine struct {
	Pin       GPIOPin
	DefaultOn bool // level restored on shutdown

	drv GPIODriver
}

// NewOutputLine configures pin as an output and drives it to its default level
func NewOutputLine(drv GPIODriver, pin GPIOPin, pull Pull, defaultOn bool) (*OutputLine, error) {
	if err := drv.ConfigureOutput(pin, pull); err != nil {
		return nil, err
	}
	o := &OutputLine{Pin: pin, DefaultOn: defaultOn, drv: drv}
	drv.SetPin(pin, defaultOn)
	return o, nil
}

// Assert drives the line high
func (o *OutputLine) Assert() {
	o.drv.SetPin(o.Pin, true)
}

// Deassert drives the line low
func (o *OutputLine) Deassert() {
	o.drv.SetPin(o.Pin, false)
}

// Toggle writes the complement of the current latch value
func (o *OutputLine) Toggle() {
	o.drv.SetPin(o.Pin, !o.drv.GetPin(o.Pin))
}

// Asserted reads the current latch value
func (o *OutputLine) Asserted() bool {
	return o.drv.GetPin(o.Pin)
}

// Shutdown returns the line to its default level
func (o *OutputLine) Shutdown() {
	o.drv.SetPin(o.Pin, o.DefaultOn)
}
