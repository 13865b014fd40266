package control

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/thermoshield/internal/actuator"
	"github.com/sweeney/thermoshield/internal/adc"
	"github.com/sweeney/thermoshield/internal/display"
	"github.com/sweeney/thermoshield/internal/gpio"
	"github.com/sweeney/thermoshield/internal/logic"
	"github.com/sweeney/thermoshield/internal/mqtt"
	"github.com/sweeney/thermoshield/internal/sampler"
	"github.com/sweeney/thermoshield/internal/status"
	"github.com/sweeney/thermoshield/internal/store"
)

// Raw readings of the default thermistor divider.
const (
	rawCold = 900 // about -14 C
	rawHot  = 100 // about 85 C
)

const step = 10 * time.Millisecond

// levelInput is a button line whose level the test sets directly.
type levelInput struct {
	high bool
}

func (l *levelInput) Read() (bool, error) { return l.high, nil }
func (l *levelInput) Close() error        { return nil }

type fakeSink struct {
	batches [][]store.DutyRecord
	err     error
}

func (f *fakeSink) Record(_ context.Context, records []store.DutyRecord) error {
	f.batches = append(f.batches, records)
	return f.err
}

func (f *fakeSink) Close() error { return nil }

type fixture struct {
	ctrl      *Controller
	store     *store.Store
	outs      []*gpio.FakeOutput
	reader    *adc.FakeReader
	button    *levelInput
	alarm     *gpio.FakeOutput
	screen    *display.FakeScreen
	publisher *mqtt.FakePublisher
	sink      *fakeSink
	tracker   *status.Tracker
	durable   *store.MemDurable
	medium    *store.MemMedium
	clock     *logic.ManualTicks
	wall      time.Time
}

// Channels 1 and 3 are active; every other channel is switched off.
const testConfig = "CH1 C+0 L:ON 20 22 A:1\n" +
	"CH2 L:OFF\n" +
	"CH3 C+0 L:ON 20 22 A:3\n" +
	"CH4 L:OFF\nCH5 L:OFF\nCH6 L:OFF\nCH7 L:OFF\nCH8 L:OFF\n"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		reader:    adc.NewFakeReader(),
		button:    &levelInput{},
		alarm:     gpio.NewFakeOutput(false),
		screen:    &display.FakeScreen{},
		publisher: &mqtt.FakePublisher{},
		sink:      &fakeSink{},
		tracker:   status.NewTracker(time.Now(), status.Config{}),
		durable:   store.NewMemDurable(store.DurableSize),
		medium:    store.NewMemMedium(),
		clock:     &logic.ManualTicks{T: 1000},
		wall:      time.Date(2026, 3, 5, 14, 0, 0, 0, time.UTC),
	}
	f.medium.Files[store.ConfigFileName] = []byte(testConfig)

	var lines []actuator.Line
	for i := 0; i < logic.ChannelCount; i++ {
		out := gpio.NewFakeOutput(false)
		f.outs = append(f.outs, out)
		lines = append(lines, actuator.Line{Out: out, ActiveHigh: true})
	}
	bank, err := actuator.NewBank(lines)
	if err != nil {
		t.Fatalf("bank: %v", err)
	}
	f.store = store.New(bank, f.durable, f.medium)

	var samplers []*sampler.Sampler
	for i := 0; i < logic.ChannelCount; i++ {
		f.reader.Set(i, rawHot)
		samplers = append(samplers, sampler.New(i, f.reader, sampler.DefaultConfig()))
	}

	f.ctrl = New(Deps{
		Store:     f.store,
		Samplers:  samplers,
		Actuators: bank,
		Button:    f.button,
		Alarm:     f.alarm,
		Screen:    f.screen,
		Publisher: f.publisher,
		Sink:      f.sink,
		Tracker:   f.tracker,
		Ticks:     f.clock,
		Now:       func() time.Time { return f.wall },
	})
	if err := f.ctrl.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	return f
}

// run ticks the controller for d in steps, returning the first error.
func (f *fixture) run(d time.Duration) error {
	var first error
	for elapsed := time.Duration(0); elapsed < d; elapsed += step {
		f.clock.Advance(step)
		if err := f.ctrl.Tick(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func TestBeginActivatesConfiguredChannels(t *testing.T) {
	f := newFixture(t)

	for i, s := range f.ctrl.samplers {
		want := i == 0 || i == 2
		if s.IsActive() != want {
			t.Errorf("sampler %d: expected active=%v", i, want)
		}
	}
	if len(f.screen.Frames) != 1 {
		t.Fatalf("expected initial frame, got %d", len(f.screen.Frames))
	}
	if got := f.screen.Last()[0]; !strings.HasPrefix(got, "CH1 ") {
		t.Errorf("expected channel 1 on screen, got %q", got)
	}
	if !f.tracker.Snapshot().Ready {
		t.Error("tracker should be ready after Begin")
	}
}

func TestTickTogglesAndPublishes(t *testing.T) {
	f := newFixture(t)
	f.reader.Set(0, rawCold)

	if err := f.ctrl.Tick(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.outs[0].High {
		t.Fatal("cold channel 1 should switch actuator 1 on")
	}
	if f.outs[2].High {
		t.Error("hot channel 3 must leave actuator 3 off")
	}
	if len(f.publisher.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(f.publisher.Events))
	}
	ev := f.publisher.Events[0]
	if ev.Type != logic.EventChannelOn || ev.Channel != 0 || ev.State != logic.StateOn {
		t.Errorf("unexpected event: %+v", ev)
	}
	if !ev.Timestamp.Equal(f.wall) {
		t.Errorf("expected wall clock timestamp, got %v", ev.Timestamp)
	}

	// Unsampled channels are not read at all.
	if f.reader.Reads[1] != 0 {
		t.Errorf("inactive channel 2 was read %d times", f.reader.Reads[1])
	}

	// Heat up: the window mean crosses High and the channel turns off.
	f.reader.Set(0, rawHot)
	f.run(time.Second)
	if f.outs[0].High {
		t.Error("actuator 1 should be off once the channel is hot")
	}
	if n := len(f.publisher.Events); n != 2 || f.publisher.Events[1].Type != logic.EventChannelOff {
		t.Fatalf("expected CHANNEL_OFF as second event, got %+v", f.publisher.Events)
	}

	snap := f.tracker.Snapshot()
	if snap.Counts.Toggles != 2 {
		t.Errorf("expected 2 toggles, got %d", snap.Counts.Toggles)
	}
	if snap.Actuators[0] {
		t.Error("tracker still reports actuator 1 on")
	}
}

func TestSamplerRespectsPeriod(t *testing.T) {
	f := newFixture(t)

	f.run(500 * time.Millisecond)
	reads := f.reader.Reads[0]
	if reads != sampler.DefaultBurst {
		t.Fatalf("expected one burst in the first period, got %d reads", reads)
	}
	f.run(600 * time.Millisecond)
	if f.reader.Reads[0] != 2*sampler.DefaultBurst {
		t.Errorf("expected a second burst after the period, got %d reads", f.reader.Reads[0])
	}
}

func TestSampleErrorIsCounted(t *testing.T) {
	f := newFixture(t)
	f.reader.Errors[0] = errors.New("adc timeout")

	if err := f.ctrl.Tick(); err != nil {
		t.Fatalf("sample errors must not fail the tick: %v", err)
	}
	if got := f.tracker.Snapshot().Counts.SampleErrors; got != 1 {
		t.Errorf("expected 1 sample error, got %d", got)
	}
}

func TestButtonReleaseAdvancesDisplay(t *testing.T) {
	f := newFixture(t)

	f.button.high = true
	f.run(100 * time.Millisecond)
	f.button.high = false
	f.run(100 * time.Millisecond)

	if got := f.store.Index(); got != 2 {
		t.Fatalf("expected focus on channel 3, got index %d", got)
	}
	if got := f.screen.Last()[0]; !strings.HasPrefix(got, "CH3 ") {
		t.Errorf("expected channel 3 on screen, got %q", got)
	}
	if got := f.tracker.Snapshot().Focus; got != 2 {
		t.Errorf("tracker focus: expected 2, got %d", got)
	}
}

func TestPressHoldCyclesOverride(t *testing.T) {
	f := newFixture(t)
	f.reader.Set(0, rawCold)

	f.button.high = true
	f.run(1200 * time.Millisecond)

	ch := f.store.Channel(0)
	if ch.Override != store.ForcedOff {
		t.Fatalf("expected FORCED_OFF, got %s", ch.Override)
	}
	if f.store.Index() != 0 {
		t.Error("press-and-hold must not move the focus")
	}

	var overrides []logic.Event
	for _, ev := range f.publisher.Events {
		if ev.Type == logic.EventOverride {
			overrides = append(overrides, ev)
		}
	}
	if len(overrides) != 1 || overrides[0].Override != "FORCED_OFF" {
		t.Fatalf("expected one FORCED_OFF override event, got %+v", overrides)
	}

	// Keep holding and then release: no second cycle, no advance.
	f.run(2 * time.Second)
	f.button.high = false
	f.run(200 * time.Millisecond)
	if got := f.store.Channel(0).Override; got != store.ForcedOff {
		t.Errorf("held button cycled again: %s", got)
	}
	if f.store.Index() != 0 {
		t.Error("release after a hold must not advance")
	}
	if f.outs[0].High {
		t.Error("forced off channel must release its actuator")
	}
	if got := f.tracker.Snapshot().Counts.Overrides; got != 1 {
		t.Errorf("expected 1 override, got %d", got)
	}

	// The override survives a restart through the durable tier.
	restarted := store.New(nil, f.durable, f.medium)
	if err := restarted.Begin(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if got := restarted.Channel(0).Override; got != store.ForcedOff {
		t.Errorf("override not persisted, got %s", got)
	}
}

func TestDutyLogPublishesAndRecords(t *testing.T) {
	f := newFixture(t)

	if err := f.run(DefaultLogCheckPeriod); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.publisher.Duty) != 1 {
		t.Fatalf("expected 1 duty report, got %d", len(f.publisher.Duty))
	}
	records := f.publisher.Duty[0]
	if len(records) != 2 || records[0].Channel != 0 || records[1].Channel != 2 {
		t.Fatalf("expected records for channels 1 and 3, got %+v", records)
	}
	if len(f.sink.batches) != 1 {
		t.Errorf("expected 1 history batch, got %d", len(f.sink.batches))
	}
	if _, ok := f.medium.Files["202603A1.txt"]; !ok {
		t.Errorf("missing log file, have %v", f.medium.Names())
	}

	snap := f.tracker.Snapshot()
	if snap.Counts.LogsWritten != 1 || !snap.LastLog.Equal(f.wall) {
		t.Errorf("unexpected log accounting: %+v last=%v", snap.Counts, snap.LastLog)
	}

	// Next check is within the hour: nothing new.
	f.wall = f.wall.Add(DefaultLogCheckPeriod)
	f.run(DefaultLogCheckPeriod)
	if len(f.publisher.Duty) != 1 {
		t.Errorf("expected no new duty report, got %d", len(f.publisher.Duty))
	}
}

func TestHistoryFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.sink.err = errors.New("database locked")
	f.publisher.PublishDutyError = errors.New("not connected")

	if err := f.run(DefaultLogCheckPeriod); err != nil {
		t.Fatalf("sink failures must not fail the tick: %v", err)
	}
	if f.ctrl.Fault() || f.alarm.High {
		t.Error("alarm raised for a sink failure")
	}
}

func TestLogFailureRaisesAlarm(t *testing.T) {
	f := newFixture(t)
	f.medium.Absent = true

	err := f.run(DefaultLogCheckPeriod)
	if err == nil {
		t.Fatal("expected log failure")
	}
	if !errors.Is(err, ErrLogFailed) || !errors.Is(err, store.ErrMediumAbsent) {
		t.Errorf("unexpected error chain: %v", err)
	}
	if !f.alarm.High || !f.ctrl.Fault() {
		t.Error("alarm output should be raised")
	}

	snap := f.tracker.Snapshot()
	if !snap.Fault || snap.Counts.LogFailures != 1 {
		t.Errorf("unexpected tracker state: fault=%v counts=%+v", snap.Fault, snap.Counts)
	}
	if len(f.publisher.Duty) != 0 {
		t.Error("nothing should be published for a failed log")
	}

	// The alarm latches: a later successful log does not clear it.
	f.medium.Absent = false
	f.wall = f.wall.Add(2 * time.Hour)
	if err := f.run(DefaultLogCheckPeriod); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.alarm.High || len(f.alarm.Writes) != 1 {
		t.Errorf("alarm should stay raised with a single write, got %v", f.alarm.Writes)
	}
}

func TestLogCheckIsThrottled(t *testing.T) {
	f := newFixture(t)
	f.medium.Absent = true

	if err := f.run(DefaultLogCheckPeriod - 2*step); err != nil {
		t.Fatalf("log checked before the period: %v", err)
	}
}
