package store

import (
	"errors"
	"fmt"
)

var (
	// ErrParse marks a malformed configuration line.
	ErrParse = errors.New("malformed line")
	// ErrRange marks a channel, actuator or threshold value out of bounds.
	ErrRange = errors.New("value out of range")
	// ErrMediumAbsent marks an unavailable storage tier.
	ErrMediumAbsent = errors.New("medium absent")
	// ErrMediumWrite marks a failed write to a storage tier.
	ErrMediumWrite = errors.New("medium write failed")
)

// LineError reports a rejected configuration line.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
