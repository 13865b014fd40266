package logic

import (
	"testing"
	"time"
)

func TestElapsed(t *testing.T) {
	tests := []struct {
		name       string
		now, since Ticks
		d          Ticks
		want       bool
	}{
		{"not yet", 1049, 1000, 50, false},
		{"exactly", 1050, 1000, 50, true},
		{"later", 5000, 1000, 50, true},
		{"zero duration", 1000, 1000, 0, true},
		{"wrapped counter", 5, 4294967290, 1000, true},
		{"max span", 4294967295, 0, 1000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Elapsed(tt.now, tt.since, tt.d); got != tt.want {
				t.Errorf("Elapsed(%d, %d, %d) = %v, want %v", tt.now, tt.since, tt.d, got, tt.want)
			}
		})
	}
}

func TestTicksOf(t *testing.T) {
	if got := TicksOf(1500 * time.Millisecond); got != 1500 {
		t.Errorf("expected 1500, got %d", got)
	}
	if got := TicksOf(999 * time.Microsecond); got != 0 {
		t.Errorf("expected truncation to 0, got %d", got)
	}
}

func TestTickClock(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start.Add(2500 * time.Millisecond)
	c := NewTickClock(start, func() time.Time { return now })

	if got := c.Now(); got != 2500 {
		t.Errorf("expected 2500, got %d", got)
	}

	// 2^32 ms after start the counter is back at zero.
	now = start.Add(time.Duration(1<<32) * time.Millisecond)
	if got := c.Now(); got != 0 {
		t.Errorf("expected wrap to 0, got %d", got)
	}
}

func TestManualTicksWraps(t *testing.T) {
	m := &ManualTicks{T: 4294967295}
	m.Advance(2 * time.Millisecond)
	if m.Now() != 1 {
		t.Errorf("expected 1 after wrap, got %d", m.Now())
	}
}
