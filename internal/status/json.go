package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/dht-sensor/internal/dht"
	"github.com/sweeney/dht-sensor/internal/monitor"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Sensor        string       `json:"sensor"`
	Last          *ReadingJSON `json:"last,omitempty"`
	LastGood      *ReadingJSON `json:"last_good,omitempty"`
	Consecutive   int          `json:"consecutive_errors"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"counts"`
	Config        ConfigJSON   `json:"config"`
}

// ReadingJSON is the JSON representation of a poll result.
type ReadingJSON struct {
	Timestamp   string  `json:"timestamp"`
	Humidity    float64 `json:"humidity"`
	Temperature float64 `json:"temperature"`
	Fahrenheit  float64 `json:"fahrenheit"`
	InRange     bool    `json:"in_range"`
	Attempts    int     `json:"attempts"`
	Error       string  `json:"error,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of read outcome counts.
type CountsJSON struct {
	Attempts   int `json:"attempts"`
	OK         int `json:"ok"`
	Timeouts   int `json:"timeouts"`
	Checksums  int `json:"checksum_errors"`
	Failures   int `json:"failures"`
	OutOfRange int `json:"out_of_range"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Bank        int    `json:"bank"`
	Pin         int    `json:"pin"`
	Backend     string `json:"backend"`
	Retries     int    `json:"retries"`
	IntervalMs  int64  `json:"interval_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	Name        string `json:"name"`
}

func buildReading(ev *monitor.Event) *ReadingJSON {
	if ev == nil {
		return nil
	}
	r := &ReadingJSON{
		Timestamp:   ev.Timestamp.UTC().Format(time.RFC3339),
		Humidity:    ev.Reading.Humidity,
		Temperature: ev.Reading.Temperature,
		Fahrenheit:  ev.Reading.Fahrenheit(),
		InRange:     ev.InRange,
		Attempts:    ev.Attempts,
	}
	if ev.Err != nil {
		r.Error = dht.Kind(ev.Err)
	}
	return r
}

func buildInner(snap Snapshot) StatusInner {
	c := snap.Counts
	return StatusInner{
		Sensor:        snap.Config.Sensor,
		Last:          buildReading(snap.Last),
		LastGood:      buildReading(snap.LastGood),
		Consecutive:   snap.Consecutive,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Attempts:   c.Attempts,
			OK:         c.OK,
			Timeouts:   c.Timeouts,
			Checksums:  c.Checksums,
			Failures:   c.Failures,
			OutOfRange: c.OutOfRange,
		},
		Config: ConfigJSON{
			Bank:        snap.Config.Bank,
			Pin:         snap.Config.Pin,
			Backend:     snap.Config.Backend,
			Retries:     snap.Config.Retries,
			IntervalMs:  snap.Config.IntervalMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			Name:        snap.Config.Name,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
