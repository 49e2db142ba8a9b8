// Package sched holds the calling goroutine on its OS thread with the
// garbage collector paused, and can raise that thread to real-time FIFO
// scheduling for a timing-critical section.
package sched

import (
	"runtime"
	"runtime/debug"
)

// Setter switches the calling OS thread between scheduling classes.
type Setter interface {
	// SetRealtime requests the highest run-to-completion priority.
	SetRealtime() error

	// SetDefault returns to the time-shared class at default priority.
	SetDefault() error
}

// Guard holds a goroutine on its OS thread, with the garbage collector
// paused and (after Raise, if permitted) at real-time priority, until
// Release.
type Guard struct {
	s         Setter
	err       error
	gcPercent int
	raised    bool
	locked    bool
	released  bool
}

// Lock locks the calling goroutine to its thread and pauses the garbage
// collector. Pausing waits for any running mark phase to finish, so Lock
// must come before the timing-critical work starts, not inside it.
func Lock() *Guard {
	runtime.LockOSThread()
	return &Guard{
		gcPercent: debug.SetGCPercent(-1),
		locked:    true,
	}
}

// Raise attempts to elevate the locked thread through s. The failure is
// recorded and returned; the caller proceeds at default priority.
func (g *Guard) Raise(s Setter) error {
	g.s = s
	g.raised = true
	g.err = s.SetRealtime()
	return g.err
}

// Elevated reports whether the thread reached real-time priority.
func (g *Guard) Elevated() bool {
	return g.raised && g.err == nil
}

// Err returns the elevation failure, if any.
func (g *Guard) Err() error {
	return g.err
}

// Locked reports whether the guard still holds the OS thread.
func (g *Guard) Locked() bool {
	return g.locked
}

// Release restores default scheduling if Raise was called, even if
// elevation failed, and resumes garbage collection. The thread is unlocked
// only once it is back in the default class: when restoring fails the
// goroutine keeps it, and the runtime discards the thread when that
// goroutine exits. Later calls are no-ops.
func (g *Guard) Release() error {
	if g.released {
		return nil
	}
	g.released = true

	var err error
	if g.raised {
		err = g.s.SetDefault()
	}
	debug.SetGCPercent(g.gcPercent)
	if err != nil {
		return err
	}

	runtime.UnlockOSThread()
	g.locked = false
	return nil
}
