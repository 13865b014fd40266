// Package control runs one iteration of the thermostat loop per Tick: button,
// sampling, actuation, display and duty-cycle logging.
package control

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/thermoshield/internal/display"
	"github.com/sweeney/thermoshield/internal/gpio"
	"github.com/sweeney/thermoshield/internal/history"
	"github.com/sweeney/thermoshield/internal/logic"
	"github.com/sweeney/thermoshield/internal/mqtt"
	"github.com/sweeney/thermoshield/internal/sampler"
	"github.com/sweeney/thermoshield/internal/status"
	"github.com/sweeney/thermoshield/internal/store"
)

// DefaultLogCheckPeriod is how often the loop asks the store whether a
// duty-cycle log is due.
const DefaultLogCheckPeriod = 10 * time.Second

// ErrLogFailed is returned by Tick when the duty-cycle log could not be
// written. The alarm output is raised and stays raised until restart.
var ErrLogFailed = errors.New("duty-cycle log failed")

// Actuators reports the physical state of the actuator outputs.
type Actuators interface {
	States() [logic.ChannelCount]bool
}

// Deps are the collaborators of a Controller. Publisher, Sink, Tracker,
// Alarm and Screen are optional.
type Deps struct {
	Store     *store.Store
	Samplers  []*sampler.Sampler
	Actuators Actuators
	Button    gpio.Input
	Alarm     gpio.Output
	Screen    display.Screen
	Publisher mqtt.Publisher
	Sink      history.Sink
	Tracker   *status.Tracker

	Ticks logic.Source
	Now   func() time.Time

	DebounceDelay     time.Duration
	PressAndHoldDelay time.Duration
	LogCheckPeriod    time.Duration
}

// Controller is the single-threaded control loop.
type Controller struct {
	store     *store.Store
	samplers  []*sampler.Sampler
	actuators Actuators
	buttonIn  gpio.Input
	button    *logic.Button
	alarm     gpio.Output
	renderer  *display.Renderer
	publisher mqtt.Publisher
	sink      history.Sink
	tracker   *status.Tracker

	ticks logic.Source
	now   func() time.Time

	logCheck     logic.Ticks
	lastLogCheck logic.Ticks
	fault        bool
}

// New builds a controller. Call Begin before the first Tick.
func New(d Deps) *Controller {
	if d.DebounceDelay == 0 {
		d.DebounceDelay = logic.DefaultDebounceDelay
	}
	if d.PressAndHoldDelay == 0 {
		d.PressAndHoldDelay = logic.DefaultPressAndHoldDelay
	}
	if d.LogCheckPeriod == 0 {
		d.LogCheckPeriod = DefaultLogCheckPeriod
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	c := &Controller{
		store:     d.Store,
		samplers:  d.Samplers,
		actuators: d.Actuators,
		buttonIn:  d.Button,
		button:    logic.NewButton(d.DebounceDelay, d.PressAndHoldDelay),
		alarm:     d.Alarm,
		publisher: d.Publisher,
		sink:      d.Sink,
		tracker:   d.Tracker,
		ticks:     d.Ticks,
		now:       d.Now,
		logCheck:  logic.TicksOf(d.LogCheckPeriod),
	}
	if d.Screen != nil {
		c.renderer = display.NewRenderer(d.Screen)
	}
	return c
}

// Begin loads the configuration, activates the samplers of active channels
// and draws the first screen. A configuration error is returned after the
// store has fallen back to defaults for the rejected lines; the controller
// is usable either way.
func (c *Controller) Begin() error {
	cfgErr := c.store.Begin()

	for _, s := range c.samplers {
		if c.store.IsActive(s.Channel()) {
			s.Activate()
			log.Printf("control: channel %d active", s.Channel()+1)
		}
	}
	c.lastLogCheck = c.ticks.Now()

	if err := c.render(); err != nil {
		log.Printf("display: %v", err)
	}
	c.updateTracker()
	return cfgErr
}

// Tick runs one loop iteration. Only a duty-cycle log failure is returned;
// every other failure is logged and the loop carries on.
func (c *Controller) Tick() error {
	now := c.ticks.Now()

	c.pollButton(now)
	c.sample(now)

	if err := c.render(); err != nil {
		log.Printf("display: %v", err)
	}

	var logErr error
	if logic.Elapsed(now, c.lastLogCheck, c.logCheck) {
		c.lastLogCheck = now
		logErr = c.logIfDue()
	}

	c.updateTracker()
	return logErr
}

// Fault reports whether the alarm has been raised.
func (c *Controller) Fault() bool {
	return c.fault
}

func (c *Controller) pollButton(now logic.Ticks) {
	if c.buttonIn == nil {
		return
	}
	raw, err := c.buttonIn.Read()
	if err != nil {
		log.Printf("button read error: %v", err)
		return
	}

	switch c.button.Poll(raw, now) {
	case logic.ButtonReleased:
		c.store.Advance()
		c.button.ResetState()
	case logic.ButtonPressHold:
		i := c.store.Index()
		change, err := c.store.CycleOverride(i)
		if err != nil {
			log.Printf("override: channel %d: %v", i+1, err)
		}
		if change.Changed() {
			log.Printf("override: channel %d %s -> %s", i+1, change.Old, change.New)
			c.publishOverride(change)
		}
		c.button.ResetState()
	}
}

func (c *Controller) sample(now logic.Ticks) {
	for _, s := range c.samplers {
		if !s.IsActive() || !s.IsDue(now) {
			continue
		}
		i := s.Channel()
		t, err := s.Temperature(now)
		if err != nil {
			log.Printf("sample error: %v", err)
			if c.tracker != nil {
				c.tracker.AddSampleError()
			}
			continue
		}

		toggled, err := c.store.SetTemperature(i, t)
		if err != nil {
			log.Printf("actuator error: channel %d: %v", i+1, err)
		}
		if toggled {
			c.publishToggle(i)
		}
	}
}

func (c *Controller) render() error {
	if c.renderer == nil {
		return nil
	}
	return c.renderer.Render(c.store)
}

func (c *Controller) logIfDue() error {
	at := c.now()
	records, err := c.store.LogIfDue(at)
	if err != nil {
		c.raiseAlarm()
		if c.tracker != nil {
			c.tracker.RecordLog(at, false)
		}
		return fmt.Errorf("%w: %w", ErrLogFailed, err)
	}
	if len(records) == 0 {
		return nil
	}

	log.Printf("duty: logged %d channels", len(records))
	if c.tracker != nil {
		c.tracker.RecordLog(at, true)
	}
	if c.publisher != nil {
		if err := c.publisher.PublishDuty(records); err != nil {
			log.Printf("duty publish error: %v", err)
		}
	}
	if c.sink != nil {
		if err := c.sink.Record(context.Background(), records); err != nil {
			log.Printf("history error: %v", err)
		}
	}
	return nil
}

func (c *Controller) raiseAlarm() {
	if c.fault {
		return
	}
	c.fault = true
	log.Printf("alarm: raised, check the medium and restart")
	if c.alarm != nil {
		if err := c.alarm.Set(true); err != nil {
			log.Printf("alarm error: %v", err)
		}
	}
	if c.tracker != nil {
		c.tracker.SetFault(true)
	}
}

func (c *Controller) publishToggle(i int) {
	ch := c.store.Channel(i)
	eventType := logic.EventChannelOff
	if ch.IsOn {
		eventType = logic.EventChannelOn
	}
	log.Printf("event: %s channel %d (%.1f)", eventType, i+1, ch.Temperature)
	if c.tracker != nil {
		c.tracker.AddToggles(1)
	}
	c.publish(logic.Event{
		Timestamp:   c.now(),
		Type:        eventType,
		Channel:     i,
		State:       logic.StateOf(ch.IsOn),
		Temperature: ch.Temperature,
	})
}

func (c *Controller) publishOverride(change store.OverrideChange) {
	ch := c.store.Channel(change.Channel)
	if c.tracker != nil {
		c.tracker.AddOverride()
	}
	c.publish(logic.Event{
		Timestamp:   c.now(),
		Type:        logic.EventOverride,
		Channel:     change.Channel,
		State:       logic.StateOf(ch.IsOn),
		Temperature: ch.Temperature,
		Override:    change.New.String(),
	})
}

func (c *Controller) publish(event logic.Event) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.Publish(event); err != nil {
		log.Printf("publish error: %v", err)
	}
}

func (c *Controller) updateTracker() {
	if c.tracker == nil {
		return
	}
	var actuators [logic.ChannelCount]bool
	if c.actuators != nil {
		actuators = c.actuators.States()
	}
	c.tracker.Update(c.store.Channels(), c.store.Index(), actuators)
}
