package core

import "errors"

// GPIOPin identifies a hardware GPIO pin: port*16 + pin number.
// PA5 is 5, PC13 is 2*16+13.
type GPIOPin uint32

// PinsPerPort is the number of pins in one GPIO port
const PinsPerPort = 16

var ErrInvalidPin = errors.New("invalid pin name")

// Port returns the port index (0 = A)
func (p GPIOPin) Port() uint8 {
	return uint8(p / PinsPerPort)
}

// Number returns the pin number within its port
func (p GPIOPin) Number() uint8 {
	return uint8(p % PinsPerPort)
}

// Bit returns the pin's bit within a port register
func (p GPIOPin) Bit() uint32 {
	return 1 << p.Number()
}

func (p GPIOPin) String() string {
	return "P" + string(rune('A'+p.Port())) + itoa(int(p.Number()))
}

// ParsePin parses names like "PA5" or "pc13"
func ParsePin(name string) (GPIOPin, error) {
	if len(name) < 3 || (name[0] != 'P' && name[0] != 'p') {
		return 0, ErrInvalidPin
	}
	port := name[1]
	if port >= 'a' && port <= 'z' {
		port -= 'a' - 'A'
	}
	if port < 'A' || port > 'H' {
		return 0, ErrInvalidPin
	}
	n := 0
	for _, c := range name[2:] {
		if c < '0' || c > '9' {
			return 0, ErrInvalidPin
		}
		n = n*10 + int(c-'0')
		if n >= PinsPerPort {
			return 0, ErrInvalidPin
		}
	}
	return GPIOPin(uint32(port-'A')*PinsPerPort + uint32(n)), nil
}

// UnmarshalText lets pins appear by name in configuration files
func (p *GPIOPin) UnmarshalText(text []byte) error {
	pin, err := ParsePin(string(text))
	if err != nil {
		return err
	}
	*p = pin
	return nil
}

// MarshalText is the inverse of UnmarshalText
func (p GPIOPin) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Pull is the input electrical configuration of a pin.
// It is always given explicitly; there is no implied default.
type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

var ErrInvalidPull = errors.New("invalid pull mode")

func (p Pull) String() string {
	switch p {
	case PullUp:
		return "up"
	case PullDown:
		return "down"
	default:
		return "none"
	}
}

// UnmarshalText accepts none/floating, up, down
func (p *Pull) UnmarshalText(text []byte) error {
	switch string(text) {
	case "none", "floating":
		*p = PullNone
	case "up":
		*p = PullUp
	case "down":
		*p = PullDown
	default:
		return ErrInvalidPull
	}
	return nil
}

// MarshalText is the inverse of UnmarshalText
func (p Pull) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	ConfigureOutput(pin GPIOPin, pull Pull) error

	// ConfigureInput configures a pin as a digital input
	ConfigureInput(pin GPIOPin, pull Pull) error

	// SetPin drives the output latch high (true) or low (false)
	SetPin(pin GPIOPin, value bool)

	// GetPin reads back the output latch
	GetPin(pin GPIOPin) bool

	// ReadPin samples the input level
	ReadPin(pin GPIOPin) bool
}
