// Package logic contains the pure state machines of the controller.
// This package has NO external dependencies (no GPIO, ADC, files or time.Sleep).
// Time is always injectable via Ticks parameters.
package logic

import "time"

// ChannelCount is the fixed number of sensor channels and actuators.
const ChannelCount = 8

// ButtonState is the debounced state reported by a Button.
type ButtonState int

const (
	// ButtonIdle is the initial state and the state after ResetState.
	ButtonIdle ButtonState = iota
	// ButtonPressed is reported while the button is held down.
	ButtonPressed
	// ButtonReleased follows ButtonPressed. Sticky until ResetState.
	ButtonReleased
	// ButtonPressHold is reported once the button was held for the hold delay.
	// Sticky until ResetState; raw input is ignored meanwhile.
	ButtonPressHold
)

func (s ButtonState) String() string {
	switch s {
	case ButtonPressed:
		return "PRESSED"
	case ButtonReleased:
		return "RELEASED"
	case ButtonPressHold:
		return "PRESS_HOLD"
	default:
		return "IDLE"
	}
}

// State is the commanded on/off state of a channel.
type State string

const (
	StateOn  State = "ON"
	StateOff State = "OFF"
)

// StateOf maps an on flag to a State.
func StateOf(on bool) State {
	if on {
		return StateOn
	}
	return StateOff
}

// EventType identifies a channel event.
type EventType string

const (
	EventChannelOn  EventType = "CHANNEL_ON"
	EventChannelOff EventType = "CHANNEL_OFF"
	EventOverride   EventType = "OVERRIDE"
)

// Event is a channel transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	// Channel is zero-based.
	Channel     int
	State       State
	Temperature float64
	// Override is the channel's override mode after the event.
	Override string
}
