package monitor

import (
	"errors"
	"time"

	"github.com/sweeney/dht-sensor/internal/dht"
)

// Cooldown growth after consecutive failed attempts.
const (
	ErrorPenalty = 500 * time.Millisecond
	MaxCooldown  = 30 * time.Second
)

// Reader performs a single sensor read.
type Reader interface {
	Read(t dht.SensorType, bank, pin int) (dht.Reading, error)
}

// Config selects the sensor and the retry budget.
type Config struct {
	Type dht.SensorType
	Bank int
	Pin  int
	// Retries is the number of extra attempts after a retryable failure.
	Retries int
}

// Monitor serializes reads of one sensor and applies the retry policy.
type Monitor struct {
	reader        Reader
	cfg           Config
	sleep         func(time.Duration)
	consecutive   int
	counts        Counts
	last          *Event
	startTime     time.Time
	lastHeartbeat time.Time
}

// New creates a Monitor. sleep is used for cooldowns between attempts.
func New(reader Reader, cfg Config, sleep func(time.Duration), startTime time.Time) *Monitor {
	return &Monitor{
		reader:        reader,
		cfg:           cfg,
		sleep:         sleep,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Cooldown returns the pause before the next attempt: the sensor's quiet
// period plus ErrorPenalty per consecutive failure, capped at MaxCooldown.
func (m *Monitor) Cooldown() time.Duration {
	d := m.cfg.Type.RetryTimeout() + time.Duration(m.consecutive)*ErrorPenalty
	if d > MaxCooldown {
		d = MaxCooldown
	}
	return d
}

// Poll reads the sensor, retrying retryable failures up to cfg.Retries
// times with a cooldown before each retry. now is called once per attempt.
func (m *Monitor) Poll(now func() time.Time) Event {
	var ev Event
	for attempt := 1; ; attempt++ {
		if attempt > 1 {
			m.sleep(m.Cooldown())
		}

		r, err := m.reader.Read(m.cfg.Type, m.cfg.Bank, m.cfg.Pin)
		m.count(r, err)

		ev = Event{
			Timestamp: now(),
			Sensor:    m.cfg.Type,
			Attempts:  attempt,
		}
		if err == nil {
			ev.Type = EventReading
			ev.Reading = r
			ev.InRange = r.Valid(m.cfg.Type)
			break
		}
		ev.Type = EventError
		ev.Err = err
		if !dht.Retryable(err) || attempt > m.cfg.Retries {
			break
		}
	}

	m.last = &ev
	return ev
}

func (m *Monitor) count(r dht.Reading, err error) {
	m.counts.Attempts++
	switch {
	case err == nil:
		m.consecutive = 0
		m.counts.OK++
		if !r.Valid(m.cfg.Type) {
			m.counts.OutOfRange++
		}
		return
	case errors.Is(err, dht.ErrTimeout):
		m.counts.Timeouts++
	case errors.Is(err, dht.ErrChecksum):
		m.counts.Checksums++
	default:
		m.counts.Failures++
	}
	m.consecutive++
}

// Counts returns a copy of the outcome counters.
func (m *Monitor) Counts() Counts {
	return m.counts
}

// Last returns the most recent poll result, or nil before the first poll.
func (m *Monitor) Last() *Event {
	if m.last == nil {
		return nil
	}
	ev := *m.last
	return &ev
}

// Consecutive returns the number of failed attempts since the last success.
func (m *Monitor) Consecutive() int {
	return m.consecutive
}

// Config returns the monitor's configuration.
func (m *Monitor) Config() Config {
	return m.cfg
}

// CheckHeartbeat returns heartbeat data if interval has elapsed since the
// last heartbeat (or startup). Returns nil if interval is <= 0 (disabled).
func (m *Monitor) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    m.counts,
		Last:      m.Last(),
	}
}
