// Package gpio defines the single pin line the DHT protocol drives.
// The memory-mapped implementation lives in internal/mmio. CdevLine uses the
// Linux GPIO character device, PeriphLine goes through periph.io's registry
// and FakeLine replays a scripted waveform.
package gpio

import (
	"errors"
	"fmt"
)

// Board geometry: four banks of 32 pins.
const (
	Banks       = 4
	PinsPerBank = 32
)

var (
	// ErrInvalidArgument reports an out-of-range bank or pin.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnavailable reports that a pin could not be acquired.
	ErrUnavailable = errors.New("gpio unavailable")
)

// Direction is the configured data direction of a pin.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "out"
	}
	return "in"
}

// Line is one GPIO pin. Operations are trusted once a Line exists; Read is
// called in tight polling loops and must not allocate.
type Line interface {
	SetDirection(dir Direction)
	SetLevel(high bool)
	Read() bool
}

// ErrReporter is implemented by lines whose operations can fail.
// Err returns the first failure seen, if any.
type ErrReporter interface {
	Err() error
}

// CheckRange validates a bank/pin pair.
func CheckRange(bank, pin int) error {
	if bank < 0 || bank >= Banks {
		return fmt.Errorf("%w: bank %d out of range [0,%d]", ErrInvalidArgument, bank, Banks-1)
	}
	if pin < 0 || pin >= PinsPerBank {
		return fmt.Errorf("%w: pin %d out of range [0,%d]", ErrInvalidArgument, pin, PinsPerBank-1)
	}
	return nil
}
