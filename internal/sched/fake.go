package sched

// FakeSetter records scheduling changes for test assertions.
type FakeSetter struct {
	// RealtimeError, if set, is returned by SetRealtime.
	RealtimeError error

	// DefaultError, if set, is returned by SetDefault.
	DefaultError error

	// Raised and Restored count calls.
	Raised   int
	Restored int

	// Realtime is true between a successful SetRealtime and SetDefault.
	Realtime bool
}

// NewFakeSetter creates a FakeSetter at default priority.
func NewFakeSetter() *FakeSetter {
	return &FakeSetter{}
}

// SetRealtime records the call.
func (f *FakeSetter) SetRealtime() error {
	f.Raised++
	if f.RealtimeError != nil {
		return f.RealtimeError
	}
	f.Realtime = true
	return nil
}

// SetDefault records the call.
func (f *FakeSetter) SetDefault() error {
	f.Restored++
	f.Realtime = false
	return f.DefaultError
}
