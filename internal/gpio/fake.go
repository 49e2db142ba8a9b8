package gpio

// Segment is a run of identical input samples.
type Segment struct {
	High  bool
	Reads int
}

// FakeLine is a test double that replays a scripted input waveform.
type FakeLine struct {
	// Script is consumed one sample per Read call.
	Script []Segment

	// Idle is returned once Script is exhausted.
	Idle bool

	// Directions records every SetDirection call in order.
	Directions []Direction

	// Levels records every SetLevel call in order.
	Levels []bool

	// Reads counts Read calls.
	Reads int

	// Fault, if set, is reported by Err.
	Fault error

	seg  int
	used int
}

// NewFakeLine creates a FakeLine that reads idle once the script runs out.
func NewFakeLine(idle bool, script ...Segment) *FakeLine {
	return &FakeLine{Script: script, Idle: idle}
}

// SetDirection records dir.
func (f *FakeLine) SetDirection(dir Direction) {
	f.Directions = append(f.Directions, dir)
}

// SetLevel records high.
func (f *FakeLine) SetLevel(high bool) {
	f.Levels = append(f.Levels, high)
}

// Read returns the next scripted sample.
func (f *FakeLine) Read() bool {
	f.Reads++
	for f.seg < len(f.Script) && f.used >= f.Script[f.seg].Reads {
		f.seg++
		f.used = 0
	}
	if f.seg >= len(f.Script) {
		return f.Idle
	}
	f.used++
	return f.Script[f.seg].High
}

// Err returns Fault.
func (f *FakeLine) Err() error {
	return f.Fault
}

// Reset rewinds the script and clears recorded calls.
func (f *FakeLine) Reset() {
	f.seg = 0
	f.used = 0
	f.Reads = 0
	f.Directions = nil
	f.Levels = nil
}

// Direction returns the last direction set, Input if none.
func (f *FakeLine) Direction() Direction {
	if len(f.Directions) == 0 {
		return Input
	}
	return f.Directions[len(f.Directions)-1]
}
