//go:build !linux

package sched

import "errors"

var errUnsupported = errors.New("sched: not supported on this platform (requires Linux)")

// Thread cannot change scheduling on non-Linux platforms.
type Thread struct{}

// SetRealtime always fails on non-Linux platforms.
func (Thread) SetRealtime() error { return errUnsupported }

// SetDefault is a no-op on non-Linux platforms.
func (Thread) SetDefault() error { return nil }
