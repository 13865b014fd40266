// Package gpio provides digital input and output lines with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

// Input reads one digital input line.
type Input interface {
	// Read returns true when the line is at the high (active) level.
	Read() (bool, error)

	// Close releases the line.
	Close() error
}

// Output drives one digital output line.
type Output interface {
	// Set drives the line high (true) or low (false). Polarity is the
	// caller's concern.
	Set(high bool) error

	// Close releases the line.
	Close() error
}

// Default line offsets (BCM numbering) of the controller board.
const (
	DefaultChip      = "gpiochip0"
	DefaultPinButton = 17
	DefaultPinAlarm  = 27
)

// DefaultActuatorPins are the relay driver lines for actuators 1..8.
var DefaultActuatorPins = [8]int{5, 6, 13, 19, 26, 16, 20, 21}
