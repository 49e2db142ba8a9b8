//go:build !linux

package gpio

import "fmt"

// CdevLine is not available on non-Linux platforms.
type CdevLine struct{}

func (c *CdevLine) SetDirection(Direction) {}
func (c *CdevLine) SetLevel(bool)          {}
func (c *CdevLine) Read() bool             { return false }
func (c *CdevLine) Err() error             { return nil }

// CdevSource is not available on non-Linux platforms.
type CdevSource struct{}

// NewCdevSource returns a source whose Line always fails.
func NewCdevSource() *CdevSource {
	return &CdevSource{}
}

// Line returns an error on non-Linux platforms.
func (s *CdevSource) Line(bank, pin int) (*CdevLine, error) {
	if err := CheckRange(bank, pin); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: not supported on this platform (requires Linux)", ErrUnavailable)
}

// Close is a no-op on non-Linux platforms.
func (s *CdevSource) Close() error {
	return nil
}
