package serial

import (
	"errors"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyACM0")
	if cfg.Device != "/dev/ttyACM0" || cfg.Baud != 115200 {
		t.Errorf("config = %+v", cfg)
	}
}

func TestOpenNilConfig(t *testing.T) {
	if _, err := Open(nil); !errors.Is(err, ErrNoConfig) {
		t.Errorf("err = %v", err)
	}
}

func TestOpenMissingDevice(t *testing.T) {
	_, err := Open(DefaultConfig("/dev/irqarb-no-such-port"))
	if err == nil {
		t.Fatal("opened a device that does not exist")
	}
	t.Logf("open error: %v", err)
}
