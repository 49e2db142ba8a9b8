//go:build linux

package mmio

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Page is a register bank mapped from physical memory. Accesses are single
// 32-bit atomic loads and stores so the compiler never caches or merges them.
type Page struct {
	mem   []byte
	words *[PageSize / 4]uint32
}

func newPage(mem []byte) *Page {
	return &Page{
		mem:   mem,
		words: (*[PageSize / 4]uint32)(unsafe.Pointer(&mem[0])),
	}
}

// Load reads the register at byte offset off.
func (p *Page) Load(off uint32) uint32 {
	return atomic.LoadUint32(&p.words[off/4])
}

// Store writes the register at byte offset off.
func (p *Page) Store(off, v uint32) {
	atomic.StoreUint32(&p.words[off/4], v)
}

// Close unmaps the page.
func (p *Page) Close() error {
	if p.mem == nil {
		return nil
	}
	err := unix.Munmap(p.mem)
	p.mem = nil
	p.words = nil
	return err
}

// DevMemOpener maps banks from the memory device at path.
func DevMemOpener(path string) Opener {
	return func(bank int) (Registers, error) {
		fd, err := unix.Open(path, unix.O_RDWR|unix.O_SYNC, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %w", ErrDeviceAccess, path, err)
		}
		// The mapping outlives the descriptor.
		defer unix.Close(fd)

		base := BankBase(bank)
		mem, err := unix.Mmap(fd, base, PageSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			return nil, fmt.Errorf("%w: bank %d at %#x: %w", ErrMapping, bank, base, err)
		}
		return newPage(mem), nil
	}
}
