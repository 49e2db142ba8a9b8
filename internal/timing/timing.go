// Package timing provides the two delays the DHT start signal needs: a
// monotonic sleep that yields the CPU and a busy wait that does not.
package timing

import "time"

// BlockWait spins on the monotonic clock until d has elapsed. It never
// yields, so it is only meant for delays of a few milliseconds.
func BlockWait(d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}

