// Command dht-sensor reads a DHT11/DHT22 humidity and temperature sensor by
// bit-banging GPIO registers, and publishes readings to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/dht-sensor/internal/dht"
	"github.com/sweeney/dht-sensor/internal/gpio"
	"github.com/sweeney/dht-sensor/internal/mmio"
	"github.com/sweeney/dht-sensor/internal/monitor"
	"github.com/sweeney/dht-sensor/internal/mqtt"
	"github.com/sweeney/dht-sensor/internal/sched"
	"github.com/sweeney/dht-sensor/internal/status"
	"github.com/sweeney/dht-sensor/internal/timing"
	"github.com/sweeney/dht-sensor/internal/web"
)

// Exit statuses for -once. They mirror dht.Code with the sign flipped.
const (
	exitOK       = 0
	exitGPIO     = 1
	exitArgument = 2
	exitChecksum = 3
	exitTimeout  = 4
)

type options struct {
	sensor    dht.SensorType
	bank      int
	pin       int
	backend   string
	once      bool
	retries   int
	interval  time.Duration
	broker    string
	name      string
	httpAddr  string
	heartbeat time.Duration
	debug     bool
}

func main() {
	sensorType := flag.String("type", "dht22", "Sensor type: dht11, dht22 or am2302")
	bank := flag.Int("bank", 1, "GPIO bank (0-3)")
	pin := flag.Int("pin", 28, "Pin within the bank (0-31)")
	backend := flag.String("backend", "mmio", "Pin access: mmio (/dev/mem registers), cdev (gpiochip<bank>) or periph (periph.io GPIO<n>)")
	once := flag.Bool("once", false, "Read once, print the result and exit with its status")
	retries := flag.Int("retries", 3, "Extra attempts after a timeout or checksum error")
	interval := flag.Duration("interval", 30*time.Second, "Polling interval")
	broker := flag.String("broker", "", "MQTT broker address (empty to disable)")
	name := flag.String("name", "dht", "Sensor name used in MQTT topics")
	httpAddr := flag.String("http", ":8080", "HTTP status address (empty to disable)")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	debug := flag.Bool("debug", false, "Log raw sensor bytes")

	flag.Parse()

	t, err := dht.ParseSensorType(*sensorType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dht-sensor: %v\n", err)
		flag.Usage()
		os.Exit(exitArgument)
	}

	opts := options{
		sensor:    t,
		bank:      *bank,
		pin:       *pin,
		backend:   *backend,
		once:      *once,
		retries:   *retries,
		interval:  minInterval(t, *interval),
		broker:    *broker,
		name:      *name,
		httpAddr:  *httpAddr,
		heartbeat: *heartbeat,
		debug:     *debug,
	}

	if opts.once {
		os.Exit(runOnce(opts, os.Stdout))
	}
	if err := run(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// newSensor returns a sensor on backend's pins and a function releasing
// them.
func newSensor(backend string) (*dht.Sensor, func() error, error) {
	switch backend {
	case "mmio":
		return dht.NewMMIOSensor(), mmio.Default().Close, nil
	case "cdev":
		src := gpio.NewCdevSource()
		line := func(bank, pin int) (gpio.Line, error) {
			l, err := src.Line(bank, pin)
			if err != nil {
				return nil, err
			}
			return l, nil
		}
		return dht.NewSensor(line, sched.Thread{}), src.Close, nil
	case "periph":
		src := gpio.NewPeriphSource()
		line := func(bank, pin int) (gpio.Line, error) {
			l, err := src.Line(bank, pin)
			if err != nil {
				return nil, err
			}
			return l, nil
		}
		return dht.NewSensor(line, sched.Thread{}), src.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown backend %q", dht.ErrInvalidArgument, backend)
	}
}

func newMonitor(opts options, sensor *dht.Sensor, startTime time.Time) *monitor.Monitor {
	sensor.Debug = opts.debug
	return monitor.New(sensor, monitor.Config{
		Type:    opts.sensor,
		Bank:    opts.bank,
		Pin:     opts.pin,
		Retries: opts.retries,
	}, timing.Sleep, startTime)
}

// minInterval raises d to the sensor's retry timeout, since polling faster
// only produces timeouts.
func minInterval(t dht.SensorType, d time.Duration) time.Duration {
	if floor := t.RetryTimeout(); d < floor {
		log.Printf("interval %v is below the %v minimum for %v, using %v", d, floor, t, floor)
		return floor
	}
	return d
}

func runOnce(opts options, out io.Writer) int {
	sensor, release, err := newSensor(opts.backend)
	if err != nil {
		log.Printf("%v", err)
		return exitArgument
	}
	defer release()

	ev := newMonitor(opts, sensor, time.Now()).Poll(time.Now)
	fmt.Fprintf(out, "Humidity: %0.3f Temperature: %0.3f\n", ev.Reading.Humidity, ev.Reading.Temperature)
	if ev.Err != nil {
		log.Printf("read failed after %d attempt(s): %v", ev.Attempts, ev.Err)
	}
	return exitCode(ev.Err)
}

func exitCode(err error) int {
	switch dht.Code(err) {
	case dht.CodeSuccess:
		return exitOK
	case dht.CodeArgument:
		return exitArgument
	case dht.CodeChecksum:
		return exitChecksum
	case dht.CodeTimeout:
		return exitTimeout
	default:
		return exitGPIO
	}
}

func run(opts options) error {
	sensor, release, err := newSensor(opts.backend)
	if err != nil {
		return err
	}
	defer release()

	// Initialize MQTT
	var publisher interface {
		mqtt.Publisher
		mqtt.ConnectionStatus
	} = disabledPublisher{}
	if opts.broker != "" {
		p, err := mqtt.NewRealPublisher(opts.broker, opts.name)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		publisher = p
	}
	defer publisher.Close()

	startTime := time.Now()
	mon := newMonitor(opts, sensor, startTime)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(startTime, status.Config{
		Sensor:      opts.sensor.String(),
		Bank:        opts.bank,
		Pin:         opts.pin,
		Backend:     opts.backend,
		Retries:     opts.retries,
		IntervalMs:  opts.interval.Milliseconds(),
		HeartbeatMs: opts.heartbeat.Milliseconds(),
		Broker:      opts.broker,
		HTTPAddr:    opts.httpAddr,
		Name:        opts.name,
	})
	tracker.SetMQTTConnected(publisher.IsConnected())

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	}

	// Start HTTP status server
	if opts.httpAddr != "" {
		srv := web.New(opts.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", opts.httpAddr)
	}

	log.Printf("started: sensor=%s bank=%d pin=%d backend=%s interval=%v broker=%q heartbeat=%v",
		opts.sensor, opts.bank, opts.pin, opts.backend, opts.interval, opts.broker, opts.heartbeat)

	// First reading right away rather than one interval in.
	poll(mon, publisher, publisher, tracker, time.Now)

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(mon, publisher, publisher, tracker, opts.heartbeat, time.Now, ticker.C, sigCh)
}

func runLoop(mon *monitor.Monitor, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			poll(mon, publisher, mqttStatus, tracker, now)

			hbData := mon.CheckHeartbeat(now(), heartbeat)
			if hbData == nil {
				continue
			}
			c := hbData.Counts
			log.Printf("heartbeat: uptime=%v attempts=%d ok=%d timeouts=%d checksum=%d failures=%d",
				hbData.Uptime, c.Attempts, c.OK, c.Timeouts, c.Checksums, c.Failures)

			hbEvent := mqtt.SystemEvent{
				Timestamp: hbData.Timestamp,
				Event:     "HEARTBEAT",
			}
			if tracker != nil {
				snap := tracker.Snapshot()
				hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
			}
			if err := publisher.PublishSystem(hbEvent); err != nil {
				log.Printf("heartbeat publish error: %v", err)
			}
		}
	}
}

// poll runs one monitor cycle and reports the result to every consumer.
func poll(mon *monitor.Monitor, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, now func() time.Time) {
	ev := mon.Poll(now)
	if ev.Err != nil {
		log.Printf("read error after %d attempt(s): %v", ev.Attempts, ev.Err)
	} else {
		log.Printf("reading: humidity=%.1f%% temperature=%.1fC attempts=%d", ev.Reading.Humidity, ev.Reading.Temperature, ev.Attempts)
		if !ev.InRange {
			log.Printf("reading outside %s rated range", ev.Sensor)
		}
	}

	if err := publisher.Publish(ev); err != nil {
		log.Printf("publish error: %v", err)
		// Don't crash on publish failure
	}

	// Update status tracker for HTTP consumers
	if tracker != nil {
		tracker.Update(ev, mon.Counts(), mon.Consecutive())
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
	}
}

// disabledPublisher stands in when no broker is configured.
type disabledPublisher struct{}

func (disabledPublisher) Publish(monitor.Event) error          { return nil }
func (disabledPublisher) PublishSystem(mqtt.SystemEvent) error { return nil }
func (disabledPublisher) Close() error                         { return nil }
func (disabledPublisher) IsConnected() bool                    { return false }
