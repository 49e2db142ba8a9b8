package mmio

import "github.com/sweeney/dht-sensor/internal/gpio"

// Pin is a view of one pin in a mapped bank. It does not own the mapping and
// is cheap to copy.
type Pin struct {
	regs Registers
	num  uint8
	mask uint32
}

func newPin(regs Registers, num int) Pin {
	return Pin{regs: regs, num: uint8(num), mask: 1 << uint(num)}
}

// Number returns the pin index within its bank.
func (p Pin) Number() int {
	return int(p.num)
}

// SetDirection updates the pin's output enable bit, leaving other pins
// untouched.
func (p Pin) SetDirection(dir gpio.Direction) {
	oe := p.regs.Load(RegOE)
	if dir == gpio.Input {
		oe |= p.mask
	} else {
		oe &^= p.mask
	}
	p.regs.Store(RegOE, oe)
}

// SetLevel drives the pin through the write-one set/clear registers.
func (p Pin) SetLevel(high bool) {
	if high {
		p.regs.Store(RegSetDataOut, p.mask)
	} else {
		p.regs.Store(RegClearDataOut, p.mask)
	}
}

// Read returns the pin's input level.
func (p Pin) Read() bool {
	return p.regs.Load(RegDataIn)&p.mask != 0
}
