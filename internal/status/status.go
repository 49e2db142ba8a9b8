// Package status provides a thread-safe status tracker for the dht-sensor daemon.
// It is read by the HTTP handlers and the heartbeat publisher.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/dht-sensor/internal/monitor"
)

// Config contains daemon configuration for display.
type Config struct {
	Sensor      string
	Bank        int
	Pin         int
	Backend     string
	Retries     int
	IntervalMs  int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	Name        string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type: safe to use after the lock is released.
type Snapshot struct {
	Last          *monitor.Event // most recent poll, nil before the first
	LastGood      *monitor.Event // most recent successful poll
	Counts        monitor.Counts
	Consecutive   int
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update records a poll result with the monitor's counters.
// Called from runLoop after every poll.
func (t *Tracker) Update(ev monitor.Event, counts monitor.Counts, consecutive int) {
	t.mu.Lock()
	t.snap.Last = &ev
	if ev.Err == nil {
		good := ev
		t.snap.LastGood = &good
	}
	t.snap.Counts = counts
	t.snap.Consecutive = consecutive
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	// Events are never mutated after Update; sharing the pointers is safe.
	s.Now = time.Now()
	return s
}
