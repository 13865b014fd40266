package logic

import "time"

// Default button timings.
const (
	DefaultDebounceDelay     = 50 * time.Millisecond
	DefaultPressAndHoldDelay = 1000 * time.Millisecond
)

// Button turns a noisy digital input into debounced button states.
// The pressed level is high (pull-down wiring).
type Button struct {
	debounceDelay Ticks
	holdDelay     Ticks

	state ButtonState

	// Last raw reading, used to restart the debounce timer on change.
	lastRaw bool
	// Accepted (debounced) level.
	stable bool

	debouncing    bool
	debounceSince Ticks

	holdArmed bool
	holdSince Ticks
}

// NewButton creates a button with the given debounce and press-and-hold delays.
func NewButton(debounce, hold time.Duration) *Button {
	return &Button{
		debounceDelay: TicksOf(debounce),
		holdDelay:     TicksOf(hold),
	}
}

// Poll feeds one raw reading taken at now and returns the current state.
//
// Released and PressHold are sticky: until ResetState is called the raw
// input is not evaluated.
func (b *Button) Poll(raw bool, now Ticks) ButtonState {
	if b.holdArmed && Elapsed(now, b.holdSince, b.holdDelay) {
		b.state = ButtonPressHold
		return b.state
	}

	if b.state == ButtonReleased || b.state == ButtonPressHold {
		return b.state
	}

	if raw != b.lastRaw {
		// Restart the debounce timer; no transition yet.
		b.debouncing = true
		b.debounceSince = now
	}
	b.lastRaw = raw

	if b.debouncing && Elapsed(now, b.debounceSince, b.debounceDelay) {
		b.debouncing = false

		if raw != b.stable {
			b.stable = raw
			if raw {
				b.state = ButtonPressed
				b.holdArmed = true
				b.holdSince = now
			} else {
				if b.state == ButtonPressed {
					b.state = ButtonReleased
				}
				b.holdArmed = false
			}
		}
	}

	return b.state
}

// State returns the last reported state without polling.
func (b *Button) State() ButtonState {
	return b.state
}

// ResetState acknowledges a Released or PressHold state and returns to Idle.
func (b *Button) ResetState() {
	b.state = ButtonIdle
	b.holdArmed = false
}
