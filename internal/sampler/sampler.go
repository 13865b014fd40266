// Package sampler turns raw ADC readings into smoothed channel temperatures.
package sampler

import (
	"fmt"
	"time"

	"github.com/sweeney/thermoshield/internal/adc"
	"github.com/sweeney/thermoshield/internal/logic"
)

// Defaults of the original board.
const (
	DefaultSamplePeriod = 1000 * time.Millisecond
	DefaultSampleWindow = 10
	DefaultBurst        = 5
)

// Config holds the sampling parameters shared by all channels.
type Config struct {
	Thermistor Thermistor
	Period     time.Duration
	Window     int
	Burst      int
}

// DefaultConfig returns the board defaults.
func DefaultConfig() Config {
	return Config{
		Thermistor: DefaultThermistor(),
		Period:     DefaultSamplePeriod,
		Window:     DefaultSampleWindow,
		Burst:      DefaultBurst,
	}
}

// Sampler reads one channel and averages its temperature over a sliding window.
type Sampler struct {
	channel    int
	reader     adc.Reader
	thermistor Thermistor
	period     logic.Ticks
	burst      int

	window []float64
	next   int
	full   bool

	sampled     bool
	lastSampled logic.Ticks

	active bool
}

// New creates an inactive sampler for channel.
func New(channel int, reader adc.Reader, cfg Config) *Sampler {
	if cfg.Window <= 0 {
		cfg.Window = DefaultSampleWindow
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	return &Sampler{
		channel:    channel,
		reader:     reader,
		thermistor: cfg.Thermistor,
		period:     logic.TicksOf(cfg.Period),
		burst:      cfg.Burst,
		window:     make([]float64, cfg.Window),
	}
}

// Channel returns the 0-based channel index.
func (s *Sampler) Channel() int {
	return s.channel
}

// Activate marks the channel electrically enabled.
func (s *Sampler) Activate() {
	s.active = true
}

// IsActive reports whether the channel is enabled.
func (s *Sampler) IsActive() bool {
	return s.active
}

// IsDue reports whether a sample period has passed since the last sample.
// A sampler that never sampled is always due.
func (s *Sampler) IsDue(now logic.Ticks) bool {
	if !s.sampled {
		return true
	}
	return logic.Elapsed(now, s.lastSampled, s.period)
}

// Temperature takes a burst of raw readings at now and returns the mean
// temperature over the sample window. A failed read is returned without
// touching the window; the sample time is still recorded so a faulty
// channel is retried at the sample period.
func (s *Sampler) Temperature(now logic.Ticks) (float64, error) {
	s.sampled = true
	s.lastSampled = now

	var sum int
	for i := 0; i < s.burst; i++ {
		v, err := s.reader.ReadRaw(s.channel)
		if err != nil {
			return 0, fmt.Errorf("channel %d: %w", s.channel+1, err)
		}
		if v == 0 {
			// A shorted element would divide by zero below.
			v = 1
		}
		sum += v
	}
	avg := float64(sum / s.burst)

	s.push(s.thermistor.Celsius(avg))
	return s.mean(), nil
}

func (s *Sampler) push(t float64) {
	s.window[s.next] = t
	s.next++
	if s.next == len(s.window) {
		s.next = 0
		s.full = true
	}
}

func (s *Sampler) mean() float64 {
	n := s.next
	if s.full {
		n = len(s.window)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += s.window[i]
	}
	return sum / float64(n)
}
