package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/dht-sensor/internal/dht"
	"github.com/sweeney/dht-sensor/internal/monitor"
	"github.com/sweeney/dht-sensor/internal/mqtt"
	"github.com/sweeney/dht-sensor/internal/status"
)

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Not safe for concurrent use (only called from runLoop's goroutine).
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

func ok(h, temp float64) monitor.Result {
	return monitor.Result{Reading: dht.Reading{Humidity: h, Temperature: temp}}
}

func fail(err error) monitor.Result {
	return monitor.Result{Err: err}
}

func newTestMonitor(reader monitor.Reader, retries int) *monitor.Monitor {
	cfg := monitor.Config{Type: dht.DHT22, Bank: 1, Pin: 28, Retries: retries}
	return monitor.New(reader, cfg, func(time.Duration) {}, t0)
}

// runRunLoop drives runLoop with nTicks ticks followed by signal.
func runRunLoop(t *testing.T, mon *monitor.Monitor, pub *mqtt.FakePublisher, tracker *status.Tracker, heartbeat time.Duration, clock func() time.Time, nTicks int, signal os.Signal) error {
	t.Helper()
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(mon, pub, pub, tracker, heartbeat, clock, tick, sig)
	}()

	for i := 0; i < nTicks; i++ {
		tick <- time.Time{}
	}
	sig <- signal

	return <-errCh
}

func systemEvents(pub *mqtt.FakePublisher, name string) []mqtt.SystemEvent {
	var out []mqtt.SystemEvent
	for _, se := range pub.SystemEvents {
		if se.Event == name {
			out = append(out, se)
		}
	}
	return out
}

func TestRunLoopPublishesReadings(t *testing.T) {
	reader := monitor.NewFakeReader(ok(40, 20), ok(41, 21), ok(42, 22))
	pub := mqtt.NewFakePublisher()
	tracker := status.NewTracker(t0, status.Config{})

	err := runRunLoop(t, newTestMonitor(reader, 0), pub, tracker, 0, fakeClock(t0, time.Second), 3, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(pub.Events) != 3 {
		t.Fatalf("expected 3 reading events, got %d", len(pub.Events))
	}
	for i, ev := range pub.Events {
		want := float64(40 + i)
		if ev.Type != monitor.EventReading || ev.Reading.Humidity != want {
			t.Errorf("event %d: got %s %.1f, want READING %.1f", i, ev.Type, ev.Reading.Humidity, want)
		}
	}

	snap := tracker.Snapshot()
	if snap.Last == nil || snap.Last.Reading.Temperature != 22 {
		t.Errorf("tracker Last: got %+v, want temperature 22", snap.Last)
	}
	if snap.Counts.OK != 3 {
		t.Errorf("tracker Counts.OK: got %d, want 3", snap.Counts.OK)
	}

	// Should have exactly one system event: SHUTDOWN
	if len(pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(pub.SystemEvents))
	}
	if pub.SystemEvents[0].Event != "SHUTDOWN" {
		t.Errorf("expected SHUTDOWN event, got %q", pub.SystemEvents[0].Event)
	}
}

func TestRunLoopRetriesWithinOneTick(t *testing.T) {
	reader := monitor.NewFakeReader(fail(dht.ErrChecksum), fail(dht.ErrTimeout), ok(50, 19.5))
	pub := mqtt.NewFakePublisher()

	err := runRunLoop(t, newTestMonitor(reader, 3), pub, nil, 0, fakeClock(t0, time.Second), 1, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if reader.Calls != 3 {
		t.Errorf("reader calls: got %d, want 3", reader.Calls)
	}
	if len(pub.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.Events))
	}
	if ev := pub.Events[0]; ev.Err != nil || ev.Attempts != 3 {
		t.Errorf("event: got err=%v attempts=%d, want success on attempt 3", ev.Err, ev.Attempts)
	}
}

func TestRunLoopPublishesErrors(t *testing.T) {
	reader := monitor.NewFakeReader(fail(fmt.Errorf("acquire: %w", dht.ErrDeviceAccess)))
	pub := mqtt.NewFakePublisher()
	tracker := status.NewTracker(t0, status.Config{})

	err := runRunLoop(t, newTestMonitor(reader, 3), pub, tracker, 0, fakeClock(t0, time.Second), 2, syscall.SIGINT)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	// GPIO failures are not retried.
	if reader.Calls != 2 {
		t.Errorf("reader calls: got %d, want 2", reader.Calls)
	}
	if len(pub.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.Events))
	}

	var payload mqtt.Payload
	if err := json.Unmarshal(pub.Payloads[0], &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if payload.Reading.Error != "device_access_denied" {
		t.Errorf("error kind: got %q, want device_access_denied", payload.Reading.Error)
	}

	if c := tracker.Snapshot().Consecutive; c != 2 {
		t.Errorf("tracker Consecutive: got %d, want 2", c)
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	// Each tick reads the clock twice (poll, heartbeat check), 5 min apart.
	// Tick 1 checks at +5m, tick 2 at +15m (fires), tick 3 at +25m.
	reader := monitor.NewFakeReader(ok(45, 21))
	pub := mqtt.NewFakePublisher()
	tracker := status.NewTracker(t0, status.Config{HeartbeatMs: (15 * time.Minute).Milliseconds()})

	err := runRunLoop(t, newTestMonitor(reader, 0), pub, tracker, 15*time.Minute, fakeClock(t0, 5*time.Minute), 3, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	hbs := systemEvents(pub, "HEARTBEAT")
	if len(hbs) != 1 {
		t.Fatalf("expected 1 HEARTBEAT event, got %d", len(hbs))
	}
	if !hbs[0].Timestamp.Equal(t0.Add(15 * time.Minute)) {
		t.Errorf("heartbeat timestamp: got %v", hbs[0].Timestamp)
	}

	var sj status.StatusJSON
	if err := json.Unmarshal(hbs[0].RawPayload, &sj); err != nil {
		t.Fatalf("invalid heartbeat JSON: %v", err)
	}
	if sj.Status.Event != "HEARTBEAT" {
		t.Errorf("heartbeat event: got %q", sj.Status.Event)
	}
	if sj.Status.Counts.OK != 2 {
		t.Errorf("heartbeat counts.ok: got %d, want 2", sj.Status.Counts.OK)
	}
	if len(systemEvents(pub, "SHUTDOWN")) != 1 {
		t.Error("expected 1 SHUTDOWN event")
	}
}

func TestRunLoopHeartbeatDisabled(t *testing.T) {
	reader := monitor.NewFakeReader(ok(45, 21))
	pub := mqtt.NewFakePublisher()

	err := runRunLoop(t, newTestMonitor(reader, 0), pub, nil, 0, fakeClock(t0, time.Hour), 4, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if n := len(systemEvents(pub, "HEARTBEAT")); n != 0 {
		t.Errorf("expected no heartbeats, got %d", n)
	}
}

func TestRunLoopPublishError(t *testing.T) {
	reader := monitor.NewFakeReader(ok(45, 21))
	pub := mqtt.NewFakePublisher()
	pub.PublishError = errors.New("broker down")
	tracker := status.NewTracker(t0, status.Config{})

	err := runRunLoop(t, newTestMonitor(reader, 0), pub, tracker, 0, fakeClock(t0, time.Second), 2, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop should not fail on publish errors: %v", err)
	}
	if reader.Calls != 2 {
		t.Errorf("reader calls: got %d, want 2", reader.Calls)
	}
	// The tracker is updated regardless.
	if n := tracker.Snapshot().Counts.OK; n != 2 {
		t.Errorf("tracker Counts.OK: got %d, want 2", n)
	}
}

func TestRunLoopShutdownSIGINT(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	pub.Connected = true
	tracker := status.NewTracker(t0, status.Config{})

	err := runRunLoop(t, newTestMonitor(monitor.NewFakeReader(), 0), pub, tracker, 0, fakeClock(t0, time.Second), 0, syscall.SIGINT)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(pub.SystemEvents))
	}
	se := pub.SystemEvents[0]
	if se.Event != "SHUTDOWN" || se.Reason != "SIGINT" || !se.Retained {
		t.Errorf("got %+v, want retained SHUTDOWN/SIGINT", se)
	}

	var sj status.StatusJSON
	if err := json.Unmarshal(se.RawPayload, &sj); err != nil {
		t.Fatalf("invalid shutdown JSON: %v", err)
	}
	if sj.Status.Reason != "SIGINT" || !sj.Status.MQTT.Connected {
		t.Errorf("payload: reason=%q connected=%v", sj.Status.Reason, sj.Status.MQTT.Connected)
	}
}

func TestRunLoopShutdownSIGTERMWithoutTracker(t *testing.T) {
	pub := mqtt.NewFakePublisher()

	err := runRunLoop(t, newTestMonitor(monitor.NewFakeReader(), 0), pub, nil, 0, fakeClock(t0, time.Second), 0, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	se := pub.SystemEvents[0]
	if se.Reason != "SIGTERM" {
		t.Errorf("reason: got %q, want SIGTERM", se.Reason)
	}
	if se.RawPayload != nil {
		t.Error("expected plain system payload without a tracker")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{fmt.Errorf("open: %w", dht.ErrDeviceAccess), 1},
		{dht.ErrMapping, 1},
		{errors.New("other"), 1},
		{dht.ErrInvalidArgument, 2},
		{dht.ErrChecksum, 3},
		{dht.ErrTimeout, 4},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v): got %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestNewSensorUnknownBackend(t *testing.T) {
	_, _, err := newSensor("spi")
	if !errors.Is(err, dht.ErrInvalidArgument) {
		t.Errorf("got %v, want ErrInvalidArgument", err)
	}
}

func TestRunOnceUnknownBackend(t *testing.T) {
	var out bytes.Buffer
	code := runOnce(options{sensor: dht.DHT22, backend: "spi"}, &out)
	if code != exitArgument {
		t.Errorf("exit: got %d, want %d", code, exitArgument)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestNewSensorBackends(t *testing.T) {
	for _, backend := range []string{"mmio", "cdev", "periph"} {
		sensor, release, err := newSensor(backend)
		if err != nil {
			t.Errorf("%s: %v", backend, err)
			continue
		}
		if sensor == nil || release == nil {
			t.Errorf("%s: nil sensor or release", backend)
		}
	}
}

func TestMinInterval(t *testing.T) {
	tests := []struct {
		sensor dht.SensorType
		in     time.Duration
		want   time.Duration
	}{
		{dht.DHT11, 500 * time.Millisecond, time.Second},
		{dht.DHT11, 30 * time.Second, 30 * time.Second},
		{dht.DHT22, time.Second, 2 * time.Second},
		{dht.DHT22, 2 * time.Second, 2 * time.Second},
	}

	for _, tt := range tests {
		if got := minInterval(tt.sensor, tt.in); got != tt.want {
			t.Errorf("minInterval(%v, %v): got %v, want %v", tt.sensor, tt.in, got, tt.want)
		}
	}
}
