// Package actuator drives relay outputs shared by several sensor channels.
//
// Any channel may hold an actuator on; the actuator is released only when
// the last owning channel releases it (OR rule).
package actuator

import (
	"fmt"

	"github.com/sweeney/thermoshield/internal/gpio"
	"github.com/sweeney/thermoshield/internal/logic"
)

// Actuator is one physical on/off output.
type Actuator struct {
	id         int
	owners     logic.Mask
	activeHigh bool
	out        gpio.Output
}

// New creates actuator id driving out. activeHigh selects the polarity: true
// for a direct-drive output, false for an inverted (sinking) relay driver.
// The output is driven to the off level.
func New(id int, out gpio.Output, activeHigh bool) (*Actuator, error) {
	a := &Actuator{id: id, activeHigh: activeHigh, out: out}
	if err := a.drive(false); err != nil {
		return nil, err
	}
	return a, nil
}

// ID returns the 0-based actuator id.
func (a *Actuator) ID() int {
	return a.id
}

// Activate marks channel as an owner and drives the output to its on level.
func (a *Actuator) Activate(channel int) error {
	a.owners = a.owners.With(channel)
	return a.drive(true)
}

// Deactivate removes channel from the owners. The output returns to the off
// level only when no owner is left.
func (a *Actuator) Deactivate(channel int) error {
	a.owners = a.owners.Without(channel)
	if a.owners != 0 {
		return nil
	}
	return a.drive(false)
}

// IsOn reports whether any channel holds the actuator.
func (a *Actuator) IsOn() bool {
	return a.owners != 0
}

// Owners returns the channels currently holding the actuator.
func (a *Actuator) Owners() logic.Mask {
	return a.owners
}

// ActiveHigh reports the configured polarity.
func (a *Actuator) ActiveHigh() bool {
	return a.activeHigh
}

func (a *Actuator) drive(on bool) error {
	high := on == a.activeHigh
	if err := a.out.Set(high); err != nil {
		return fmt.Errorf("actuator %d: %w", a.id+1, err)
	}
	return nil
}
