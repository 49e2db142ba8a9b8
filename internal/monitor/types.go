// Package monitor holds the caller-side policy around sensor reads: retry
// with cooldown, outcome counters and heartbeats.
// Time is injected; the package never reads the clock itself.
package monitor

import (
	"time"

	"github.com/sweeney/dht-sensor/internal/dht"
)

// EventType classifies the outcome of a poll.
type EventType string

const (
	EventReading EventType = "READING"
	EventError   EventType = "ERROR"
)

// Event is the result of one poll, possibly spanning several attempts.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Sensor    dht.SensorType
	Reading   dht.Reading
	// InRange is false for readings outside the sensor's rated range.
	InRange  bool
	Attempts int
	Err      error
}

// Counts tracks read attempt outcomes since startup.
type Counts struct {
	Attempts   int
	OK         int
	Timeouts   int
	Checksums  int
	Failures   int
	OutOfRange int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
	Last      *Event
}
