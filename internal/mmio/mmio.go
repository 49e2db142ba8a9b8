// Package mmio maps AM335x GPIO register banks from physical memory and
// drives single pins through them. All raw memory access is confined to
// this package.
package mmio

import (
	"fmt"
	"io"
	"sync"

	"github.com/sweeney/dht-sensor/internal/gpio"
)

// DevMem is the physical memory device node.
const DevMem = "/dev/mem"

// PageSize is the length of one mapped register bank.
const PageSize = 4096

// Register byte offsets within a bank. Every register is 32 bits wide with
// one bit per pin.
const (
	RegOE           = 0x134 // output enable, bit set = input
	RegDataIn       = 0x138
	RegDataOut      = 0x13C // unused, writes go through set/clear
	RegClearDataOut = 0x190
	RegSetDataOut   = 0x194
)

// Physical base addresses of GPIO0..GPIO3.
var bankBase = [gpio.Banks]int64{
	0x44E07000,
	0x4804C000,
	0x481AC000,
	0x481AF000,
}

var (
	// ErrDeviceAccess reports that the memory device could not be opened.
	// Usually the process is not running as root.
	ErrDeviceAccess = fmt.Errorf("%w: memory device access denied", gpio.ErrUnavailable)

	// ErrMapping reports that a register page could not be mapped.
	ErrMapping = fmt.Errorf("%w: register mapping failed", gpio.ErrUnavailable)
)

// BankBase returns the physical base address of bank.
func BankBase(bank int) int64 {
	return bankBase[bank]
}

// Registers is a register page addressed by byte offset.
type Registers interface {
	Load(off uint32) uint32
	Store(off, v uint32)
}

// Opener maps the register page of a bank. The bank index is already
// validated.
type Opener func(bank int) (Registers, error)

// Mapper owns at most one mapping per bank. Mappings are created on first
// use and kept until Close.
type Mapper struct {
	mu    sync.Mutex
	open  Opener
	banks [gpio.Banks]Registers
}

// NewMapper creates a Mapper backed by /dev/mem.
func NewMapper() *Mapper {
	return NewMapperWithOpener(DevMemOpener(DevMem))
}

// NewMapperWithOpener creates a Mapper that maps banks through open.
func NewMapperWithOpener(open Opener) *Mapper {
	return &Mapper{open: open}
}

// Acquire returns a pin view into the mapped bank, mapping it if needed.
// Range errors are returned before any mapping is attempted. A failed
// mapping leaves the bank unmapped so a later call retries.
func (m *Mapper) Acquire(bank, pin int) (Pin, error) {
	if err := gpio.CheckRange(bank, pin); err != nil {
		return Pin{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	regs := m.banks[bank]
	if regs == nil {
		r, err := m.open(bank)
		if err != nil {
			return Pin{}, err
		}
		m.banks[bank] = r
		regs = r
	}
	return newPin(regs, pin), nil
}

// Line is Acquire returning the gpio.Line interface.
func (m *Mapper) Line(bank, pin int) (gpio.Line, error) {
	p, err := m.Acquire(bank, pin)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Mapped reports whether bank currently has a cached mapping.
func (m *Mapper) Mapped(bank int) bool {
	if bank < 0 || bank >= gpio.Banks {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.banks[bank] != nil
}

// Close unmaps every cached bank. Pins acquired earlier must not be used
// afterwards.
func (m *Mapper) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for i, regs := range m.banks {
		if regs == nil {
			continue
		}
		if c, ok := regs.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("unmap bank %d: %w", i, err))
			}
		}
		m.banks[i] = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

var (
	defaultOnce   sync.Once
	defaultMapper *Mapper
)

// Default returns the process-wide /dev/mem mapper.
func Default() *Mapper {
	defaultOnce.Do(func() {
		defaultMapper = NewMapper()
	})
	return defaultMapper
}
