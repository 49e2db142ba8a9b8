package dht

import (
	"fmt"
	"log"
	"time"

	"github.com/sweeney/dht-sensor/internal/gpio"
	"github.com/sweeney/dht-sensor/internal/mmio"
	"github.com/sweeney/dht-sensor/internal/sched"
	"github.com/sweeney/dht-sensor/internal/timing"
)

// MaxCount is the polling-iteration ceiling. A level held this long means
// the sensor stopped toggling.
const MaxCount = 32000

// Start signal: hold the bus high, then low long enough for the sensor to
// notice.
const (
	StartHigh = 500 * time.Millisecond
	StartLow  = 20 * time.Millisecond
)

// PinSource returns the line wired to bank/pin.
type PinSource func(bank, pin int) (gpio.Line, error)

// Sensor performs DHT reads. It holds no per-pin state; concurrent reads of
// the same pin must be serialized by the caller.
type Sensor struct {
	source PinSource
	sched  sched.Setter
	sleep  func(time.Duration)
	wait   func(time.Duration)

	// Debug logs the decoded bytes of every read.
	Debug bool
}

// NewSensor creates a Sensor reading lines from source and elevating
// priority through s.
func NewSensor(source PinSource, s sched.Setter) *Sensor {
	return &Sensor{
		source: source,
		sched:  s,
		sleep:  timing.Sleep,
		wait:   timing.BlockWait,
	}
}

// SetDelays replaces the start signal's yielding sleep and busy wait.
func (s *Sensor) SetDelays(sleep, wait func(time.Duration)) {
	s.sleep = sleep
	s.wait = wait
}

// NewMMIOSensor creates a Sensor on the process-wide register mapper with
// real-time elevation.
func NewMMIOSensor() *Sensor {
	return NewSensor(mmio.Default().Line, sched.Thread{})
}

// Read performs one complete transaction with the sensor on bank/pin and
// returns the scaled reading. On any error the reading is zero. Timeouts
// and checksum mismatches are retryable after t.RetryTimeout().
func (s *Sensor) Read(t SensorType, bank, pin int) (Reading, error) {
	if !t.valid() {
		return Reading{}, fmt.Errorf("%w: sensor type %d", ErrInvalidArgument, int(t))
	}

	d, err := s.ReadData(bank, pin)
	if err != nil {
		return Reading{}, err
	}
	return d.Scale(t), nil
}

// ReadData performs one transaction and returns the verified raw bytes. On
// a checksum mismatch the decoded bytes are returned along with ErrChecksum.
func (s *Sensor) ReadData(bank, pin int) (Data, error) {
	line, err := s.source(bank, pin)
	if err != nil {
		return Data{}, err
	}

	c, err := s.captureIsolated(line)
	if err != nil {
		return Data{}, lineError(line, err)
	}
	if err := lineError(line, nil); err != nil {
		return Data{}, err
	}

	d := c.Data()
	if s.Debug {
		log.Printf("dht: bank %d pin %d data % x threshold %d", bank, pin, d[:], c.Threshold())
	}
	if err := d.Verify(); err != nil {
		return d, err
	}
	return d, nil
}

type captureResult struct {
	c   *Capture
	err error
}

// captureIsolated runs capture on a goroutine of its own. If the thread
// cannot be returned to default scheduling it stays locked to that
// goroutine and is discarded with it.
func (s *Sensor) captureIsolated(line gpio.Line) (*Capture, error) {
	done := make(chan captureResult, 1)
	go func() {
		c, err := s.capture(line)
		done <- captureResult{c, err}
	}()
	r := <-done
	return r.c, r.err
}

// capture sends the start signal and records all pulse widths. The thread
// is locked and the garbage collector paused before the start signal;
// real-time priority is requested only once the sensor has answered.
func (s *Sensor) capture(line gpio.Line) (*Capture, error) {
	g := sched.Lock()
	defer func() {
		if err := g.Release(); err != nil {
			log.Printf("dht: restore default scheduling failed, thread kept locked: %v", err)
		}
	}()

	line.SetDirection(gpio.Output)
	line.SetLevel(true)
	s.sleep(StartHigh)
	line.SetLevel(false)
	s.wait(StartLow)
	line.SetDirection(gpio.Input)

	if n := pollWhile(line, true); n >= MaxCount {
		return nil, fmt.Errorf("%w: no response from sensor", ErrTimeout)
	}

	g.Raise(s.sched)

	var c Capture
	for i := 0; i < len(c); i += 2 {
		if c[i] = pollWhile(line, false); c[i] >= MaxCount {
			return nil, fmt.Errorf("%w: pulse %d stuck low", ErrTimeout, i/2)
		}
		if c[i+1] = pollWhile(line, true); c[i+1] >= MaxCount {
			return nil, fmt.Errorf("%w: pulse %d stuck high", ErrTimeout, i/2)
		}
	}
	return &c, nil
}

// pollWhile spins while line reads level and returns the iteration count,
// which is MaxCount if the ceiling was hit.
func pollWhile(line gpio.Line, level bool) uint32 {
	var n uint32
	for line.Read() == level {
		if n++; n >= MaxCount {
			break
		}
	}
	return n
}

// lineError prefers a failure reported by the line itself over err, since a
// broken line also shows up as a stuck level.
func lineError(line gpio.Line, err error) error {
	r, ok := line.(gpio.ErrReporter)
	if !ok {
		return err
	}
	lerr := r.Err()
	if lerr == nil {
		return err
	}
	if err == nil {
		return lerr
	}
	return fmt.Errorf("%w (%v)", lerr, err)
}
