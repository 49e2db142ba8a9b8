package dht

import (
	"errors"

	"github.com/sweeney/dht-sensor/internal/gpio"
	"github.com/sweeney/dht-sensor/internal/mmio"
)

// Error kinds. GPIO errors are passed through from the pin source unchanged.
var (
	ErrInvalidArgument = gpio.ErrInvalidArgument
	ErrGPIOUnavailable = gpio.ErrUnavailable
	ErrDeviceAccess    = mmio.ErrDeviceAccess
	ErrMapping         = mmio.ErrMapping

	// ErrTimeout reports that a polling loop hit MaxCount.
	ErrTimeout = errors.New("timeout")

	// ErrChecksum reports a checksum byte that disagrees with the data.
	ErrChecksum = errors.New("checksum mismatch")
)

// Result codes, stable for scripts consuming the command's exit status.
const (
	CodeSuccess  = 0
	CodeGPIO     = -1
	CodeArgument = -2
	CodeChecksum = -3
	CodeTimeout  = -4
)

// Retryable reports whether a fresh read after a cooldown may succeed.
func Retryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrChecksum)
}

// Code maps err to a result code. Unknown errors count as GPIO failures.
func Code(err error) int {
	switch {
	case err == nil:
		return CodeSuccess
	case errors.Is(err, ErrInvalidArgument):
		return CodeArgument
	case errors.Is(err, ErrChecksum):
		return CodeChecksum
	case errors.Is(err, ErrTimeout):
		return CodeTimeout
	default:
		return CodeGPIO
	}
}

// Kind returns a short machine-readable name for err.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrDeviceAccess):
		return "device_access_denied"
	case errors.Is(err, ErrMapping):
		return "mapping_failed"
	case errors.Is(err, ErrGPIOUnavailable):
		return "gpio_unavailable"
	case errors.Is(err, ErrChecksum):
		return "checksum"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "error"
	}
}
