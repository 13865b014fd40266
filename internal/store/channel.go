package store

import (
	"fmt"

	"github.com/sweeney/thermoshield/internal/logic"
)

// Temperature limits.
const (
	// TemperatureFloor is the lowest plausible reading; anything below means
	// the sensor is disconnected.
	TemperatureFloor = -40.0
	// Disconnected is stored instead of an implausible reading.
	Disconnected = -300.0
)

// Compile-time channel defaults.
const (
	DefaultLow  = 20
	DefaultHigh = 22
)

// Override is the manual override mode of a channel.
type Override uint8

// Values match the durable-tier encoding.
const (
	Normal Override = iota
	ForcedOff
	ForcedOn
)

func (o Override) String() string {
	switch o {
	case ForcedOff:
		return "FORCED_OFF"
	case ForcedOn:
		return "FORCED_ON"
	default:
		return "NORMAL"
	}
}

// Next returns the override selected by a press-and-hold:
// normal -> forced off -> forced on -> normal.
func (o Override) Next() Override {
	switch o {
	case Normal:
		return ForcedOff
	case ForcedOff:
		return ForcedOn
	default:
		return Normal
	}
}

// MarshalText renders the override for JSON payloads.
func (o Override) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText parses the names produced by MarshalText.
func (o *Override) UnmarshalText(b []byte) error {
	switch string(b) {
	case "NORMAL":
		*o = Normal
	case "FORCED_OFF":
		*o = ForcedOff
	case "FORCED_ON":
		*o = ForcedOn
	default:
		return fmt.Errorf("%w: override %q", ErrParse, b)
	}
	return nil
}

// OverrideChange is the result of an override transition.
type OverrideChange struct {
	Channel int
	Old     Override
	New     Override
}

// Changed reports whether the transition altered the override.
func (c OverrideChange) Changed() bool {
	return c.Old != c.New
}

// Channel is one sensor slot: its configuration, last reading and duty counters.
type Channel struct {
	Temperature float64
	Low         int
	High        int
	Calibration float64
	Actuators   logic.Mask
	Override    Override

	// IsOn is the last commanded actuation, updated on toggles only.
	IsOn      bool
	IsLogging bool
	// IsDirty is set on any displayed change and cleared by the renderer.
	IsDirty bool

	ToggleCount       int64
	CheckpointsActive int64
}

// Active reports whether the channel is sampled: it drives actuators or logs.
func (c Channel) Active() bool {
	return c.Actuators != 0 || c.IsLogging
}

// Disconnected reports whether the last reading was implausible.
func (c Channel) Disconnected() bool {
	return c.Temperature == Disconnected
}

func (c *Channel) setOverride(o Override, index int) OverrideChange {
	change := OverrideChange{Channel: index, Old: c.Override, New: o}
	if change.Changed() {
		c.Override = o
		c.IsDirty = true
	}
	return change
}

// DefaultChannel is the compile-time configuration of channel index.
func DefaultChannel(index int) Channel {
	return Channel{
		Low:       DefaultLow,
		High:      DefaultHigh,
		Actuators: logic.MaskOf(index),
		Override:  Normal,
		IsLogging: true,
		IsDirty:   true,
	}
}
