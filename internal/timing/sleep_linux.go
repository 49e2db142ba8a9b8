//go:build linux

package timing

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"
)

// Sleep suspends the calling thread for at least d on CLOCK_MONOTONIC.
// Interrupted sleeps restart with the remaining time.
func Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	req := unix.NsecToTimespec(d.Nanoseconds())
	for {
		var rem unix.Timespec
		err := unix.ClockNanosleep(unix.CLOCK_MONOTONIC, 0, &req, &rem)
		if !errors.Is(err, unix.EINTR) {
			return
		}
		req = rem
	}
}
