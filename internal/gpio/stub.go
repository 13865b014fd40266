//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// Chip is not available on non-Linux platforms.
type Chip struct{}

// OpenChip returns an error on non-Linux platforms.
func OpenChip(name string) (*Chip, error) {
	return nil, errUnsupported
}

// Close is a no-op.
func (c *Chip) Close() error { return nil }

// RealInput is not available on non-Linux platforms.
type RealInput struct{}

// Input returns an error on non-Linux platforms.
func (c *Chip) Input(pin int) (*RealInput, error) { return nil, errUnsupported }

// Read is not implemented on non-Linux platforms.
func (r *RealInput) Read() (bool, error) { return false, errUnsupported }

// Close is a no-op.
func (r *RealInput) Close() error { return nil }

// RealOutput is not available on non-Linux platforms.
type RealOutput struct{}

// Output returns an error on non-Linux platforms.
func (c *Chip) Output(pin int, high bool) (*RealOutput, error) { return nil, errUnsupported }

// Set is not implemented on non-Linux platforms.
func (o *RealOutput) Set(high bool) error { return errUnsupported }

// Close is a no-op.
func (o *RealOutput) Close() error { return nil }
