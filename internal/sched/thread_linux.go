//go:build linux

package sched

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Thread switches the calling OS thread with sched_setattr(2).
type Thread struct{}

// SetRealtime moves the thread to SCHED_FIFO at maximum priority. It needs
// CAP_SYS_NICE.
func (Thread) SetRealtime() error {
	prio, err := maxPriority(unix.SCHED_FIFO)
	if err != nil {
		return fmt.Errorf("sched_get_priority_max: %w", err)
	}
	attr := unix.SchedAttr{Policy: unix.SCHED_FIFO, Priority: uint32(prio)}
	if err := unix.SchedSetAttr(0, &attr, 0); err != nil {
		return fmt.Errorf("set SCHED_FIFO priority %d: %w", prio, err)
	}
	return nil
}

// SetDefault moves the thread back to SCHED_OTHER at priority 0.
func (Thread) SetDefault() error {
	attr := unix.SchedAttr{Policy: unix.SCHED_NORMAL}
	if err := unix.SchedSetAttr(0, &attr, 0); err != nil {
		return fmt.Errorf("set SCHED_OTHER: %w", err)
	}
	return nil
}

// Policy returns the calling thread's scheduling policy.
func Policy() (uint32, error) {
	attr, err := unix.SchedGetAttr(0, 0)
	if err != nil {
		return 0, err
	}
	return attr.Policy, nil
}

func maxPriority(policy int) (int, error) {
	r, _, errno := unix.Syscall(unix.SYS_SCHED_GET_PRIORITY_MAX, uintptr(policy), 0, 0)
	if errno != 0 {
		return 0, errno
	}
	return int(r), nil
}
