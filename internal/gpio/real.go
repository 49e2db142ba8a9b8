//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// Consumer is the label attached to requested lines.
const Consumer = "dht-sensor"

// CdevLine drives a pin through the Linux GPIO character device.
// Each bank is exposed as gpiochip<bank> with the pin as line offset.
type CdevLine struct {
	line *gpiocdev.Line
	err  error
}

// SetDirection reconfigures the line. Switching to output drives it high,
// which is the idle level of the DHT bus.
func (c *CdevLine) SetDirection(dir Direction) {
	var err error
	if dir == Output {
		err = c.line.Reconfigure(gpiocdev.AsOutput(1))
	} else {
		err = c.line.Reconfigure(gpiocdev.AsInput)
	}
	c.fail(err, "set direction %s", dir)
}

// SetLevel sets the output value.
func (c *CdevLine) SetLevel(high bool) {
	v := 0
	if high {
		v = 1
	}
	c.fail(c.line.SetValue(v), "set level %d", v)
}

// Read returns the input value. A failed read reports low.
func (c *CdevLine) Read() bool {
	v, err := c.line.Value()
	if err != nil {
		c.fail(err, "read")
		return false
	}
	return v == 1
}

// Err returns the first failure since the line was requested.
func (c *CdevLine) Err() error {
	return c.err
}

func (c *CdevLine) fail(err error, format string, args ...any) {
	if err != nil && c.err == nil {
		c.err = fmt.Errorf("%w: %s: %w", ErrUnavailable, fmt.Sprintf(format, args...), err)
	}
}

// CdevSource hands out cached character device lines by bank and pin.
type CdevSource struct {
	mu    sync.Mutex
	lines map[[2]int]*CdevLine
}

// NewCdevSource creates an empty source.
func NewCdevSource() *CdevSource {
	return &CdevSource{lines: make(map[[2]int]*CdevLine)}
}

// Line requests (or returns the cached) line for bank/pin.
func (s *CdevSource) Line(bank, pin int) (*CdevLine, error) {
	if err := CheckRange(bank, pin); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]int{bank, pin}
	if l, ok := s.lines[key]; ok {
		l.err = nil
		return l, nil
	}

	chip := fmt.Sprintf("gpiochip%d", bank)
	l, err := gpiocdev.RequestLine(chip, pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithConsumer(Consumer))
	if err != nil {
		return nil, fmt.Errorf("%w: request %s line %d: %w", ErrUnavailable, chip, pin, err)
	}
	line := &CdevLine{line: l}
	s.lines[key] = line
	return line, nil
}

// Close releases all requested lines, leaving them as inputs.
func (s *CdevSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for key, l := range s.lines {
		if err := l.line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure gpiochip%d line %d: %w", key[0], key[1], err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close gpiochip%d line %d: %w", key[0], key[1], err))
		}
		delete(s.lines, key)
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
