package mmio

import "sync"

// Write is one recorded register store.
type Write struct {
	Off   uint32
	Value uint32
}

// FakePage is an in-memory register bank for tests. Stores to the set and
// clear registers update DATAOUT the way the hardware does.
type FakePage struct {
	mu     sync.Mutex
	words  [PageSize / 4]uint32
	writes []Write

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakePage creates a zeroed FakePage.
func NewFakePage() *FakePage {
	return &FakePage{}
}

// Load returns the register at off.
func (f *FakePage) Load(off uint32) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.words[off/4]
}

// Store records the write and applies it.
func (f *FakePage) Store(off, v uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, Write{Off: off, Value: v})
	switch off {
	case RegSetDataOut:
		f.words[RegDataOut/4] |= v
	case RegClearDataOut:
		f.words[RegDataOut/4] &^= v
	default:
		f.words[off/4] = v
	}
}

// Word returns the register at off without recording anything.
func (f *FakePage) Word(off uint32) uint32 {
	return f.Load(off)
}

// SetWord presets the register at off, e.g. DATAIN.
func (f *FakePage) SetWord(off, v uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.words[off/4] = v
}

// Writes returns a copy of all recorded stores.
func (f *FakePage) Writes() []Write {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Write(nil), f.writes...)
}

// Close marks the page as unmapped.
func (f *FakePage) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
