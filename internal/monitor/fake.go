package monitor

import "github.com/sweeney/dht-sensor/internal/dht"

// Result is one scripted outcome of FakeReader.
type Result struct {
	Reading dht.Reading
	Err     error
}

// FakeReader is a test double that returns scripted results.
type FakeReader struct {
	// Results is consumed one per Read. The last result repeats.
	Results []Result

	// Calls counts Read calls.
	Calls int

	index int
}

// NewFakeReader creates a FakeReader with the given results.
func NewFakeReader(results ...Result) *FakeReader {
	return &FakeReader{Results: results}
}

// Read returns the next scripted result.
func (f *FakeReader) Read(t dht.SensorType, bank, pin int) (dht.Reading, error) {
	f.Calls++
	if len(f.Results) == 0 {
		return dht.Reading{}, dht.ErrTimeout
	}
	r := f.Results[f.index]
	if f.index < len(f.Results)-1 {
		f.index++
	}
	return r.Reading, r.Err
}
