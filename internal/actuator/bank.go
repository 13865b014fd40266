package actuator

import (
	"errors"
	"fmt"

	"github.com/sweeney/thermoshield/internal/gpio"
	"github.com/sweeney/thermoshield/internal/logic"
)

// Line describes one actuator output and its polarity.
type Line struct {
	Out        gpio.Output
	ActiveHigh bool
}

// Bank owns the fixed set of actuators, indexed by actuator id.
type Bank struct {
	actuators [logic.ChannelCount]*Actuator
}

// NewBank creates one actuator per line. Unset slots (fewer lines than
// ChannelCount) have no output and reject activation.
func NewBank(lines []Line) (*Bank, error) {
	if len(lines) > logic.ChannelCount {
		return nil, fmt.Errorf("too many actuator lines: %d (max %d)", len(lines), logic.ChannelCount)
	}
	b := &Bank{}
	for i, l := range lines {
		a, err := New(i, l.Out, l.ActiveHigh)
		if err != nil {
			return nil, err
		}
		b.actuators[i] = a
	}
	return b, nil
}

// Activate lets channel hold actuator id.
func (b *Bank) Activate(id, channel int) error {
	a, err := b.get(id)
	if err != nil {
		return err
	}
	return a.Activate(channel)
}

// Deactivate releases channel's hold on actuator id.
func (b *Bank) Deactivate(id, channel int) error {
	a, err := b.get(id)
	if err != nil {
		return err
	}
	return a.Deactivate(channel)
}

// IsOn reports whether actuator id is held by any channel.
func (b *Bank) IsOn(id int) bool {
	a, err := b.get(id)
	if err != nil {
		return false
	}
	return a.IsOn()
}

// Owners returns the channels holding actuator id.
func (b *Bank) Owners(id int) logic.Mask {
	a, err := b.get(id)
	if err != nil {
		return 0
	}
	return a.Owners()
}

// States returns the on/off state of every actuator slot.
func (b *Bank) States() [logic.ChannelCount]bool {
	var s [logic.ChannelCount]bool
	for i, a := range b.actuators {
		if a != nil {
			s[i] = a.IsOn()
		}
	}
	return s
}

// Close drops every owner, drives each output to its off level and releases
// the line.
func (b *Bank) Close() error {
	var errs []error
	for _, a := range b.actuators {
		if a == nil {
			continue
		}
		a.owners = 0
		if err := a.drive(false); err != nil {
			errs = append(errs, err)
		}
		if err := a.out.Close(); err != nil {
			errs = append(errs, fmt.Errorf("actuator %d: %w", a.id+1, err))
		}
	}
	return errors.Join(errs...)
}

func (b *Bank) get(id int) (*Actuator, error) {
	if id < 0 || id >= logic.ChannelCount || b.actuators[id] == nil {
		return nil, fmt.Errorf("actuator %d not configured", id+1)
	}
	return b.actuators[id], nil
}
