// Package status provides a thread-safe status tracker for the thermoshield daemon.
// It is read by the HTTP handlers, the metrics collector and the system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/thermoshield/internal/logic"
	"github.com/sweeney/thermoshield/internal/store"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs         int64
	SamplePeriodMs int64
	HeartbeatMs    int64
	Broker         string
	HTTPAddr       string
}

// Counts are running totals since startup.
type Counts struct {
	Toggles      int
	Overrides    int
	SampleErrors int
	LogsWritten  int
	LogFailures  int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Channels  [logic.ChannelCount]store.Channel
	Focus     int
	Actuators [logic.ChannelCount]bool
	// Ready is set once the configuration has been loaded.
	Ready bool
	// Fault mirrors the alarm output.
	Fault         bool
	Counts        Counts
	LastLog       time.Time
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the channel array, focus and actuator outputs, and marks the
// tracker ready. Called from the control loop on every tick.
func (t *Tracker) Update(channels [logic.ChannelCount]store.Channel, focus int, actuators [logic.ChannelCount]bool) {
	t.mu.Lock()
	t.snap.Channels = channels
	t.snap.Focus = focus
	t.snap.Actuators = actuators
	t.snap.Ready = true
	t.mu.Unlock()
}

// SetFault sets the fault flag.
func (t *Tracker) SetFault(fault bool) {
	t.mu.Lock()
	t.snap.Fault = fault
	t.mu.Unlock()
}

// AddToggles counts channel on/off transitions.
func (t *Tracker) AddToggles(n int) {
	t.mu.Lock()
	t.snap.Counts.Toggles += n
	t.mu.Unlock()
}

// AddOverride counts an override change.
func (t *Tracker) AddOverride() {
	t.mu.Lock()
	t.snap.Counts.Overrides++
	t.mu.Unlock()
}

// AddSampleError counts a failed sensor read.
func (t *Tracker) AddSampleError() {
	t.mu.Lock()
	t.snap.Counts.SampleErrors++
	t.mu.Unlock()
}

// RecordLog counts a duty-cycle log attempt made at the given time.
func (t *Tracker) RecordLog(at time.Time, ok bool) {
	t.mu.Lock()
	t.snap.LastLog = at
	if ok {
		t.snap.Counts.LogsWritten++
	} else {
		t.snap.Counts.LogFailures++
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
