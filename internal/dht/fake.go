package dht

import "github.com/sweeney/dht-sensor/internal/gpio"

// Pulse lengths, in samples, of the waveform produced by FakeWaveform. They
// keep the proportions of the real 80/50/26/70 µs timings.
const (
	FakeResponseReads = 10
	FakeSyncReads     = 80
	FakeLowReads      = 50
	FakeZeroReads     = 26
	FakeOneReads      = 70
)

// FakeWaveform returns the input samples a sensor transmitting d produces
// after the start signal: bus still high, sync pair, 40 data pairs and the
// trailing low before the bus idles high again.
func FakeWaveform(d Data) []gpio.Segment {
	segs := []gpio.Segment{
		{High: true, Reads: FakeResponseReads},
		{High: false, Reads: FakeSyncReads},
		{High: true, Reads: FakeSyncReads},
	}
	for _, b := range d {
		for bit := 7; bit >= 0; bit-- {
			high := FakeZeroReads
			if b&(1<<uint(bit)) != 0 {
				high = FakeOneReads
			}
			segs = append(segs,
				gpio.Segment{High: false, Reads: FakeLowReads},
				gpio.Segment{High: true, Reads: high})
		}
	}
	return append(segs, gpio.Segment{High: false, Reads: FakeLowReads})
}

// NewFakeLine returns a line that answers one read with d.
func NewFakeLine(d Data) *gpio.FakeLine {
	return gpio.NewFakeLine(true, FakeWaveform(d)...)
}

// WithChecksum returns d with its checksum byte set.
func WithChecksum(d Data) Data {
	d[4] = d.Sum()
	return d
}
