//go:build !linux

package mmio

import "fmt"

// DevMemOpener returns an opener that always fails on non-Linux platforms.
func DevMemOpener(path string) Opener {
	return func(bank int) (Registers, error) {
		return nil, fmt.Errorf("%w: %s: not supported on this platform (requires Linux)", ErrDeviceAccess, path)
	}
}
