// Package settings loads the hardware profile: which GPIO lines and ADC
// inputs the board uses, how sensors are sampled and where data is kept.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/thermoshield/internal/gpio"
	"github.com/sweeney/thermoshield/internal/history"
	"github.com/sweeney/thermoshield/internal/logic"
	"github.com/sweeney/thermoshield/internal/sampler"
	"github.com/sweeney/thermoshield/internal/store"
)

// Line is one GPIO line and its active level.
type Line struct {
	Pin        int  `yaml:"pin"`
	ActiveHigh bool `yaml:"active_high"`
}

// Button holds the push-button line and its timings.
type Button struct {
	Pin      int           `yaml:"pin"`
	Debounce time.Duration `yaml:"debounce"`
	Hold     time.Duration `yaml:"hold"`
}

// ADC locates the IIO device the thermistors are wired to.
type ADC struct {
	Dir string `yaml:"dir"`
	// Channels maps sensor channel i to an IIO voltage index.
	Channels []int `yaml:"channels,omitempty"`
}

// Thermistor mirrors sampler.Thermistor.
type Thermistor struct {
	FullScale float64 `yaml:"full_scale"`
	Reference float64 `yaml:"reference"`
	R0        float64 `yaml:"r0"`
	T0        float64 `yaml:"t0"`
	Beta      float64 `yaml:"beta"`
}

// Sampling controls how often and how much each channel is read.
type Sampling struct {
	Period time.Duration `yaml:"period"`
	Window int           `yaml:"window"`
	Burst  int           `yaml:"burst"`
}

// Storage locates the removable medium and the durable tier.
type Storage struct {
	Medium      string        `yaml:"medium"`
	Durable     string        `yaml:"durable"`
	LogInterval time.Duration `yaml:"log_interval"`
}

// Influx configures the optional InfluxDB history sink.
type Influx struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

// History lists the optional duty-cycle sinks. Empty values disable a sink.
type History struct {
	SQLite string `yaml:"sqlite"`
	Influx Influx `yaml:"influx"`
}

// Profile is the complete hardware profile.
type Profile struct {
	Chip       string     `yaml:"chip"`
	Button     Button     `yaml:"button"`
	Alarm      Line       `yaml:"alarm"`
	Actuators  []Line     `yaml:"actuators"`
	ADC        ADC        `yaml:"adc"`
	Thermistor Thermistor `yaml:"thermistor"`
	Sampling   Sampling   `yaml:"sampling"`
	Storage    Storage    `yaml:"storage"`
	History    History    `yaml:"history"`
}

// Default returns the profile of the reference board: relays are
// active-low, the alarm LED active-high.
func Default() Profile {
	th := sampler.DefaultThermistor()
	p := Profile{
		Chip: gpio.DefaultChip,
		Button: Button{
			Pin:      gpio.DefaultPinButton,
			Debounce: logic.DefaultDebounceDelay,
			Hold:     logic.DefaultPressAndHoldDelay,
		},
		Alarm: Line{Pin: gpio.DefaultPinAlarm, ActiveHigh: true},
		ADC:   ADC{Dir: "/sys/bus/iio/devices/iio:device0"},
		Thermistor: Thermistor{
			FullScale: th.FullScale,
			Reference: th.Reference,
			R0:        th.R0,
			T0:        th.T0,
			Beta:      th.Beta,
		},
		Sampling: Sampling{
			Period: sampler.DefaultSamplePeriod,
			Window: sampler.DefaultSampleWindow,
			Burst:  sampler.DefaultBurst,
		},
		Storage: Storage{
			Medium:      "/media/thermoshield",
			Durable:     "/var/lib/thermoshield/durable.bin",
			LogInterval: store.DefaultLogInterval,
		},
	}
	for _, pin := range gpio.DefaultActuatorPins {
		p.Actuators = append(p.Actuators, Line{Pin: pin})
	}
	return p
}

// Load reads a profile from path over the defaults. An empty path returns
// the defaults.
func Load(path string) (Profile, error) {
	p := Default()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("failed to read profile: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML profile over the defaults. Unknown fields are
// rejected.
func Parse(data []byte) (Profile, error) {
	p := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return p, nil
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil {
		return p, fmt.Errorf("failed to parse profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("invalid profile: %w", err)
	}
	return p, nil
}

// Validate checks ranges and cross-field constraints.
func (p Profile) Validate() error {
	var errs []error
	if p.Chip == "" {
		errs = append(errs, errors.New("chip is required"))
	}
	if len(p.Actuators) > logic.ChannelCount {
		errs = append(errs, fmt.Errorf("at most %d actuators, got %d", logic.ChannelCount, len(p.Actuators)))
	}

	pins := map[int]string{}
	claim := func(pin int, what string) {
		if pin < 0 {
			errs = append(errs, fmt.Errorf("%s: negative pin %d", what, pin))
			return
		}
		if other, ok := pins[pin]; ok {
			errs = append(errs, fmt.Errorf("%s: pin %d already used by %s", what, pin, other))
			return
		}
		pins[pin] = what
	}
	claim(p.Button.Pin, "button")
	claim(p.Alarm.Pin, "alarm")
	for i, a := range p.Actuators {
		claim(a.Pin, fmt.Sprintf("actuator %d", i+1))
	}

	if p.Button.Debounce <= 0 || p.Button.Hold <= p.Button.Debounce {
		errs = append(errs, fmt.Errorf("button: need 0 < debounce (%v) < hold (%v)", p.Button.Debounce, p.Button.Hold))
	}
	if p.ADC.Dir == "" {
		errs = append(errs, errors.New("adc.dir is required"))
	}
	if n := len(p.ADC.Channels); n != 0 && n != logic.ChannelCount {
		errs = append(errs, fmt.Errorf("adc.channels: need %d entries, got %d", logic.ChannelCount, n))
	}
	th := p.Thermistor
	if th.FullScale <= 0 || th.Reference <= 0 || th.R0 <= 0 || th.T0 <= 0 || th.Beta <= 0 {
		errs = append(errs, errors.New("thermistor: all parameters must be positive"))
	}
	if p.Sampling.Period <= 0 || p.Sampling.Window <= 0 || p.Sampling.Burst <= 0 {
		errs = append(errs, errors.New("sampling: period, window and burst must be positive"))
	}
	if p.Storage.LogInterval <= 0 {
		errs = append(errs, errors.New("storage.log_interval must be positive"))
	}
	if in := p.History.Influx; in.URL != "" && (in.Org == "" || in.Bucket == "") {
		errs = append(errs, errors.New("history.influx: org and bucket are required with url"))
	}
	return errors.Join(errs...)
}

// SamplerConfig converts the sampling section.
func (p Profile) SamplerConfig() sampler.Config {
	return sampler.Config{
		Thermistor: sampler.Thermistor{
			FullScale: p.Thermistor.FullScale,
			Reference: p.Thermistor.Reference,
			R0:        p.Thermistor.R0,
			T0:        p.Thermistor.T0,
			Beta:      p.Thermistor.Beta,
		},
		Period: p.Sampling.Period,
		Window: p.Sampling.Window,
		Burst:  p.Sampling.Burst,
	}
}

// InfluxConfig converts the influx section. ok is false when no URL is set.
func (p Profile) InfluxConfig() (cfg history.InfluxConfig, ok bool) {
	in := p.History.Influx
	if in.URL == "" {
		return history.InfluxConfig{}, false
	}
	return history.InfluxConfig{URL: in.URL, Token: in.Token, Org: in.Org, Bucket: in.Bucket}, true
}
