//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Chip hands out lines of one GPIO character device.
type Chip struct {
	chip *gpiocdev.Chip
}

// OpenChip opens the named GPIO chip (e.g. "gpiochip0").
func OpenChip(name string) (*Chip, error) {
	chip, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &Chip{chip: chip}, nil
}

// Close releases the chip. Lines must be closed separately.
func (c *Chip) Close() error {
	return c.chip.Close()
}

// RealInput reads a line requested as input with pull-down.
type RealInput struct {
	line *gpiocdev.Line
}

// Input requests pin as an input with pull-down, matching Pi boot defaults.
func (c *Chip) Input(pin int) (*RealInput, error) {
	line, err := c.chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		return nil, fmt.Errorf("request input pin %d: %w", pin, err)
	}
	return &RealInput{line: line}, nil
}

// Read returns true when the line is high.
func (r *RealInput) Read() (bool, error) {
	v, err := r.line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin: %w", err)
	}
	return v != 0, nil
}

// Close releases the line.
func (r *RealInput) Close() error {
	return r.line.Close()
}

// RealOutput drives a line requested as output.
type RealOutput struct {
	line *gpiocdev.Line
	idle bool
}

// Output requests pin as an output starting at the given level. That level
// is also the one the line is left at by Close.
func (c *Chip) Output(pin int, high bool) (*RealOutput, error) {
	line, err := c.chip.RequestLine(pin, gpiocdev.AsOutput(level(high)))
	if err != nil {
		return nil, fmt.Errorf("request output pin %d: %w", pin, err)
	}
	return &RealOutput{line: line, idle: high}, nil
}

// Set drives the line.
func (o *RealOutput) Set(high bool) error {
	if err := o.line.SetValue(level(high)); err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

// Close drives the line to its starting level, then reconfigures it to an
// input biased to the same level before releasing it.
func (o *RealOutput) Close() error {
	var errs []error
	if err := o.Set(o.idle); err != nil {
		errs = append(errs, err)
	}
	bias := gpiocdev.WithPullDown
	if o.idle {
		bias = gpiocdev.WithPullUp
	}
	if err := o.line.Reconfigure(gpiocdev.AsInput, bias); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure pin: %w", err))
	}
	if err := o.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close pin: %w", err))
	}
	return errors.Join(errs...)
}

func level(high bool) int {
	if high {
		return 1
	}
	return 0
}
