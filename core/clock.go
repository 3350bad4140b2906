package core

import "errors"

// Peripheral names a clock-gated hardware unit
type Peripheral uint16

const (
	periphGPIO  Peripheral = 0x100
	periphTimer Peripheral = 0x200

	// PeriphSYSCFG is the unit that routes pins to external interrupt lines
	PeriphSYSCFG Peripheral = 0x300
)

var ErrInvalidPeripheral = errors.New("invalid peripheral name")

// GPIOPort returns the peripheral of a GPIO port (0 = GPIOA)
func GPIOPort(port uint8) Peripheral {
	return periphGPIO | Peripheral(port)
}

// TimerUnit returns the peripheral of a timer
func TimerUnit(id TimerID) Peripheral {
	return periphTimer | Peripheral(id)
}

// PinPort returns the GPIO port peripheral that owns pin
func PinPort(pin GPIOPin) Peripheral {
	return GPIOPort(pin.Port())
}

func (p Peripheral) String() string {
	switch p & 0xff00 {
	case periphGPIO:
		return "GPIO" + string(rune('A'+byte(p&0xff)))
	case periphTimer:
		return "TIM" + itoa(int(p&0xff))
	}
	if p == PeriphSYSCFG {
		return "SYSCFG"
	}
	return "PERIPH" + itoa(int(p))
}

// UnmarshalText accepts GPIOA..GPIOH, TIM<n> and SYSCFG
func (p *Peripheral) UnmarshalText(text []byte) error {
	s := string(text)
	switch {
	case s == "SYSCFG" || s == "AFIO":
		*p = PeriphSYSCFG
	case len(s) == 5 && s[:4] == "GPIO" && s[4] >= 'A' && s[4] <= 'H':
		*p = GPIOPort(s[4] - 'A')
	case len(s) > 3 && s[:3] == "TIM":
		n := 0
		for _, c := range s[3:] {
			if c < '0' || c > '9' {
				return ErrInvalidPeripheral
			}
			n = n*10 + int(c-'0')
			if n > 0xff {
				return ErrInvalidPeripheral
			}
		}
		*p = TimerUnit(TimerID(n))
	default:
		return ErrInvalidPeripheral
	}
	return nil
}

// MarshalText is the inverse of UnmarshalText
func (p Peripheral) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
