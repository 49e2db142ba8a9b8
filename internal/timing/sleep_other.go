//go:build !linux

package timing

import "time"

// Sleep suspends the calling goroutine for at least d.
func Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	time.Sleep(d)
}
