package dht

import "fmt"

// Pulses is the number of low/high pairs per transmission: one sync pair
// followed by 40 data bits.
const Pulses = 41

// Capture holds the polling-iteration counts of each pulse, low then high,
// for all Pulses pairs. Counts stand in for elapsed time.
type Capture [Pulses * 2]uint32

// Low returns the low-level count of pair p.
func (c *Capture) Low(p int) uint32 {
	return c[2*p]
}

// High returns the high-level count of pair p.
func (c *Capture) High(p int) uint32 {
	return c[2*p+1]
}

// Threshold is the integer mean of the data pairs' high counts. Pair 0 is
// the sensor's sync pulse and is excluded.
func (c *Capture) Threshold() uint32 {
	var sum uint32
	for p := 1; p < Pulses; p++ {
		sum += c.High(p)
	}
	return sum / (Pulses - 1)
}

// Data decodes the 40 data pairs, MSB first, into five bytes. A pair whose
// high count is at or above Threshold is a 1.
func (c *Capture) Data() Data {
	th := c.Threshold()
	var d Data
	for p := 1; p < Pulses; p++ {
		i := (p - 1) / 8
		d[i] <<= 1
		if c.High(p) >= th {
			d[i] |= 1
		}
	}
	return d
}

// Data is one transmission: humidity high/low, temperature high/low and
// checksum.
type Data [5]byte

// Sum returns the low 8 bits of the sum of the four data bytes.
func (d Data) Sum() byte {
	return d[0] + d[1] + d[2] + d[3]
}

// Verify checks the checksum byte.
func (d Data) Verify() error {
	if d[4] != d.Sum() {
		return fmt.Errorf("%w: got %#02x, want %#02x", ErrChecksum, d[4], d.Sum())
	}
	return nil
}

// Scale converts verified data into a reading for sensor type t.
//
// DHT11 uses bytes 0 and 2 as whole numbers. DHT22 uses 16-bit tenths;
// temperature is sign-magnitude with the sign in the top bit of byte 2.
func (d Data) Scale(t SensorType) Reading {
	switch t {
	case DHT11:
		return Reading{
			Humidity:    float64(d[0]),
			Temperature: float64(d[2]),
		}
	case DHT22:
		r := Reading{
			Humidity:    float64(int(d[0])*256+int(d[1])) / 10,
			Temperature: float64(int(d[2]&0x7F)*256+int(d[3])) / 10,
		}
		if d[2]&0x80 != 0 {
			r.Temperature = -r.Temperature
		}
		return r
	}
	return Reading{}
}
