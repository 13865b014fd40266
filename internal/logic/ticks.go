package logic

import "time"

// Ticks is a free-running millisecond counter. It is 32 bits wide and wraps
// after roughly 49.7 days, like a microcontroller millis() counter.
type Ticks uint32

// TicksOf converts a duration to Ticks, truncating to whole milliseconds.
func TicksOf(d time.Duration) Ticks {
	return Ticks(d.Milliseconds())
}

// Elapsed reports whether at least d has passed between since and now.
//
// An observed now strictly less than since means the counter wrapped after
// since was recorded; that is treated as already elapsed.
func Elapsed(now, since, d Ticks) bool {
	if now < since {
		return true
	}
	return now-since >= d
}

// Source yields the current tick count.
type Source interface {
	Now() Ticks
}

// TickClock derives Ticks from the wall clock relative to a start instant.
type TickClock struct {
	start time.Time
	now   func() time.Time
}

// NewTickClock creates a TickClock counting from start.
// If now is nil, time.Now is used.
func NewTickClock(start time.Time, now func() time.Time) *TickClock {
	if now == nil {
		now = time.Now
	}
	return &TickClock{start: start, now: now}
}

// Now returns the milliseconds since start, wrapped to 32 bits.
func (c *TickClock) Now() Ticks {
	return Ticks(uint64(c.now().Sub(c.start).Milliseconds()))
}

// ManualTicks is a Source under test control.
type ManualTicks struct {
	T Ticks
}

// Now returns the current manual tick count.
func (m *ManualTicks) Now() Ticks {
	return m.T
}

// Advance moves the clock forward by d, wrapping as the real counter does.
func (m *ManualTicks) Advance(d time.Duration) {
	m.T += TicksOf(d)
}
