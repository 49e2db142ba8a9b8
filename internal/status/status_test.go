package status

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/dht-sensor/internal/dht"
	"github.com/sweeney/dht-sensor/internal/monitor"
)

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func reading(h, temp float64) monitor.Event {
	return monitor.Event{
		Timestamp: start.Add(time.Minute),
		Type:      monitor.EventReading,
		Sensor:    dht.DHT22,
		Reading:   dht.Reading{Humidity: h, Temperature: temp},
		InRange:   true,
		Attempts:  1,
	}
}

func failure(err error) monitor.Event {
	return monitor.Event{
		Timestamp: start.Add(2 * time.Minute),
		Type:      monitor.EventError,
		Sensor:    dht.DHT22,
		Attempts:  3,
		Err:       err,
	}
}

func TestNewTracker(t *testing.T) {
	cfg := Config{Sensor: "DHT22", Bank: 1, Pin: 28, IntervalMs: 30000, Broker: "tcp://localhost:1883", HTTPAddr: ":8080"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.Pin != 28 {
		t.Errorf("Config.Pin: got %d, want 28", snap.Config.Pin)
	}
	if snap.Config.HTTPAddr != ":8080" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":8080")
	}
	if snap.Last != nil || snap.LastGood != nil {
		t.Error("expected no poll results initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateKeepsLastGood(t *testing.T) {
	tr := NewTracker(start, Config{})

	tr.Update(reading(55.5, 21.3), monitor.Counts{Attempts: 1, OK: 1}, 0)
	tr.Update(failure(dht.ErrTimeout), monitor.Counts{Attempts: 4, OK: 1, Timeouts: 3}, 3)

	snap := tr.Snapshot()
	if snap.Last == nil || snap.Last.Err != dht.ErrTimeout {
		t.Errorf("Last: got %+v, want the timeout", snap.Last)
	}
	if snap.LastGood == nil || snap.LastGood.Reading.Humidity != 55.5 {
		t.Errorf("LastGood: got %+v, want the 55.5%% reading", snap.LastGood)
	}
	if snap.Counts.Timeouts != 3 {
		t.Errorf("Counts.Timeouts: got %d, want 3", snap.Counts.Timeouts)
	}
	if snap.Consecutive != 3 {
		t.Errorf("Consecutive: got %d, want 3", snap.Consecutive)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSnapshotUptime(t *testing.T) {
	snap := Snapshot{StartTime: start, Now: start.Add(90 * time.Second)}
	if got := snap.Uptime(); got != 90*time.Second {
		t.Errorf("Uptime: got %v, want 90s", got)
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(start, Config{})
	before := time.Now()
	snap := tr.Snapshot()
	if snap.Now.Before(before) {
		t.Errorf("Now %v is before call time %v", snap.Now, before)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(start, Config{})
	tr.Update(reading(40, 20), monitor.Counts{OK: 1}, 0)

	snap := tr.Snapshot()
	tr.Update(reading(41, 21), monitor.Counts{OK: 2}, 0)

	if snap.Counts.OK != 1 {
		t.Errorf("snapshot changed after Update: OK=%d", snap.Counts.OK)
	}
	if snap.Last.Reading.Humidity != 40 {
		t.Errorf("snapshot event changed after Update: %v", snap.Last.Reading.Humidity)
	}
}

func TestFormatJSON(t *testing.T) {
	tr := NewTracker(start, Config{Sensor: "DHT22", Bank: 1, Pin: 28, Backend: "mmio", Broker: "tcp://b:1883", Name: "loft"})
	tr.Update(reading(65.2, 26.1), monitor.Counts{Attempts: 2, OK: 1, Checksums: 1}, 0)
	tr.SetMQTTConnected(true)

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	s := parsed.Status
	if s.Event != "" || s.Reason != "" {
		t.Errorf("web status should carry no event: %q/%q", s.Event, s.Reason)
	}
	if s.Sensor != "DHT22" {
		t.Errorf("sensor: got %s", s.Sensor)
	}
	if s.Last == nil || s.Last.Humidity != 65.2 || s.Last.Temperature != 26.1 {
		t.Fatalf("last: got %+v", s.Last)
	}
	if s.Last.Error != "" {
		t.Errorf("last.error: got %q, want empty", s.Last.Error)
	}
	if s.Counts.Checksums != 1 || s.Counts.OK != 1 || s.Counts.Attempts != 2 {
		t.Errorf("counts: got %+v", s.Counts)
	}
	if !s.MQTT.Connected || s.MQTT.Broker != "tcp://b:1883" {
		t.Errorf("mqtt: got %+v", s.MQTT)
	}
	if s.Config.Pin != 28 || s.Config.Backend != "mmio" || s.Config.Name != "loft" {
		t.Errorf("config: got %+v", s.Config)
	}
	if s.StartTime != "2026-01-01T00:00:00Z" {
		t.Errorf("start_time: got %s", s.StartTime)
	}
}

func TestFormatJSONBeforeFirstPoll(t *testing.T) {
	data := FormatJSON(NewTracker(start, Config{}).Snapshot())
	if strings.Contains(string(data), `"last"`) {
		t.Errorf("last should be omitted before the first poll: %s", data)
	}
}

func TestFormatJSONErrorKind(t *testing.T) {
	tr := NewTracker(start, Config{})
	tr.Update(failure(dht.ErrChecksum), monitor.Counts{Checksums: 1}, 1)

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Last.Error != "checksum" {
		t.Errorf("last.error: got %q, want checksum", parsed.Status.Last.Error)
	}
	if parsed.Status.LastGood != nil {
		t.Errorf("last_good: got %+v, want nil", parsed.Status.LastGood)
	}
	if parsed.Status.Consecutive != 1 {
		t.Errorf("consecutive_errors: got %d, want 1", parsed.Status.Consecutive)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	snap := Snapshot{StartTime: start, Now: start.Add(time.Hour)}

	data := FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")
	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" || parsed.Status.Reason != "SIGTERM" {
		t.Errorf("got event=%q reason=%q", parsed.Status.Event, parsed.Status.Reason)
	}
	if parsed.Status.UptimeSeconds != 3600 {
		t.Errorf("uptime_seconds: got %d, want 3600", parsed.Status.UptimeSeconds)
	}
	if strings.Contains(string(data), "\n") {
		t.Error("MQTT payload should be compact")
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	data := FormatStatusEvent(Snapshot{StartTime: start, Now: start}, "HEARTBEAT", "")
	if strings.Contains(string(data), "reason") {
		t.Errorf("reason should be omitted: %s", data)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			tr.Update(reading(float64(i), 20), monitor.Counts{OK: i}, 0)
			tr.SetMQTTConnected(i%2 == 0)
		}(i)
		go func() {
			defer wg.Done()
			_ = FormatJSON(tr.Snapshot())
		}()
	}
	wg.Wait()
}
