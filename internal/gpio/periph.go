package gpio

import (
	"fmt"
	"sync"

	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PinName returns the global GPIO name of bank/pin, as registered by the
// periph.io host drivers.
func PinName(bank, pin int) string {
	return fmt.Sprintf("GPIO%d", bank*PinsPerBank+pin)
}

// PeriphLine drives a pin found in periph.io's GPIO registry.
type PeriphLine struct {
	pin pgpio.PinIO
	err error
}

// SetDirection switches the pin. Output starts high; input enables the
// pull-up the DHT bus idles on.
func (p *PeriphLine) SetDirection(dir Direction) {
	var err error
	if dir == Output {
		err = p.pin.Out(pgpio.High)
	} else {
		err = p.pin.In(pgpio.PullUp, pgpio.NoEdge)
	}
	p.fail(err, "set direction %s", dir)
}

// SetLevel drives the output.
func (p *PeriphLine) SetLevel(high bool) {
	p.fail(p.pin.Out(pgpio.Level(high)), "set level %v", high)
}

// Read returns the input level.
func (p *PeriphLine) Read() bool {
	return p.pin.Read() == pgpio.High
}

// Err returns the first failure since the line was handed out.
func (p *PeriphLine) Err() error {
	return p.err
}

func (p *PeriphLine) fail(err error, format string, args ...any) {
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%w: %s %s: %w", ErrUnavailable, p.pin.Name(), fmt.Sprintf(format, args...), err)
	}
}

// PeriphSource looks pins up in the periph.io registry, initializing the
// host drivers on first use.
type PeriphSource struct {
	setup  func() error
	byName func(name string) pgpio.PinIO

	once    sync.Once
	initErr error

	mu    sync.Mutex
	lines map[string]*PeriphLine
}

// NewPeriphSource creates a source backed by periph.io's host drivers.
func NewPeriphSource() *PeriphSource {
	return NewPeriphSourceWith(func() error {
		_, err := host.Init()
		return err
	}, gpioreg.ByName)
}

// NewPeriphSourceWith creates a source with an injected driver init and
// registry lookup.
func NewPeriphSourceWith(setup func() error, byName func(string) pgpio.PinIO) *PeriphSource {
	return &PeriphSource{
		setup:  setup,
		byName: byName,
		lines:  make(map[string]*PeriphLine),
	}
}

// Line returns the (cached) line for bank/pin.
func (s *PeriphSource) Line(bank, pin int) (*PeriphLine, error) {
	if err := CheckRange(bank, pin); err != nil {
		return nil, err
	}

	s.once.Do(func() { s.initErr = s.setup() })
	if s.initErr != nil {
		return nil, fmt.Errorf("%w: periph host init: %w", ErrUnavailable, s.initErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := PinName(bank, pin)
	if l, ok := s.lines[name]; ok {
		l.err = nil
		return l, nil
	}

	p := s.byName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %s not registered", ErrUnavailable, name)
	}
	l := &PeriphLine{pin: p}
	s.lines[name] = l
	return l, nil
}

// Close halts every pin handed out and leaves it as an input.
func (s *PeriphSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for name, l := range s.lines {
		if err := l.pin.In(pgpio.PullNoChange, pgpio.NoEdge); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", name, err))
		}
		if err := l.pin.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("halt %s: %w", name, err))
		}
		delete(s.lines, name)
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
