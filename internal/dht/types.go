// Package dht reads DHT11 and DHT22 (AM2302) humidity/temperature sensors by
// bit-banging their single-wire protocol on one GPIO line.
package dht

import (
	"fmt"
	"strings"
	"time"
)

// SensorType selects how the decoded bytes are scaled.
type SensorType int

const (
	// DHT11 reports whole-number humidity and temperature.
	DHT11 SensorType = 11
	// DHT22 reports tenths, with a sign bit on temperature.
	DHT22 SensorType = 22
	// AM2302 is the wired variant of DHT22.
	AM2302 = DHT22
)

// String implements fmt.Stringer.
func (t SensorType) String() string {
	switch t {
	case DHT11:
		return "DHT11"
	case DHT22:
		return "DHT22"
	default:
		return fmt.Sprintf("SensorType(%d)", int(t))
	}
}

func (t SensorType) valid() bool {
	return t == DHT11 || t == DHT22
}

// RetryTimeout is the quiet period the sensor needs between two reads.
func (t SensorType) RetryTimeout() time.Duration {
	if t == DHT11 {
		return time.Second
	}
	return 2 * time.Second
}

// ParseSensorType accepts "dht11", "dht22", "am2302", "11" or "22",
// case-insensitively.
func ParseSensorType(s string) (SensorType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dht11", "11":
		return DHT11, nil
	case "dht22", "22", "am2302":
		return DHT22, nil
	}
	return 0, fmt.Errorf("%w: unknown sensor type %q", ErrInvalidArgument, s)
}

// Reading is a decoded measurement. Humidity is in %RH, Temperature in
// degrees Celsius.
type Reading struct {
	Humidity    float64
	Temperature float64
}

// Fahrenheit returns the temperature in degrees Fahrenheit.
func (r Reading) Fahrenheit() float64 {
	return r.Temperature*9/5 + 32
}

// Valid reports whether r lies in the sensor's rated range:
// DHT11 0..100 %RH, 0..50 °C; DHT22 0..100 %RH, -40..80 °C.
func (r Reading) Valid(t SensorType) bool {
	if r.Humidity < 0 || r.Humidity > 100 {
		return false
	}
	switch t {
	case DHT11:
		return r.Temperature >= 0 && r.Temperature <= 50
	case DHT22:
		return r.Temperature >= -40 && r.Temperature <= 80
	}
	return false
}
