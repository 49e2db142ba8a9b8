// Package mqtt publishes sensor readings and daemon lifecycle events.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/dht-sensor/internal/dht"
	"github.com/sweeney/dht-sensor/internal/monitor"
)

// TopicPrefix is the root of all topics published by the daemon.
const TopicPrefix = "sensors/dht"

// Topic returns the reading topic for the named sensor.
func Topic(name string) string {
	return TopicPrefix + "/" + name + "/reading"
}

// TopicSystem returns the lifecycle topic for the named sensor.
func TopicSystem(name string) string {
	return TopicPrefix + "/" + name + "/system"
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a poll result to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event monitor.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool
}

// Payload is the reading message.
type Payload struct {
	Reading ReadingPayload `json:"reading"`
}

// ReadingPayload carries either a measurement or the failure kind.
type ReadingPayload struct {
	Timestamp   string   `json:"timestamp"`
	Event       string   `json:"event"`
	Sensor      string   `json:"sensor"`
	Humidity    *float64 `json:"humidity,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	InRange     *bool    `json:"in_range,omitempty"`
	Attempts    int      `json:"attempts"`
	Error       string   `json:"error,omitempty"`
	Detail      string   `json:"detail,omitempty"`
}

// FormatPayload creates the JSON payload for a poll result.
func FormatPayload(event monitor.Event) ([]byte, error) {
	rp := ReadingPayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(event.Type),
		Sensor:    event.Sensor.String(),
		Attempts:  event.Attempts,
	}
	if event.Err != nil {
		rp.Error = dht.Kind(event.Err)
		rp.Detail = event.Err.Error()
	} else {
		h, t, ok := event.Reading.Humidity, event.Reading.Temperature, event.InRange
		rp.Humidity = &h
		rp.Temperature = &t
		rp.InRange = &ok
	}
	return json.Marshal(Payload{Reading: rp})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
