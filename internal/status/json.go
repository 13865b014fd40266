package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/thermoshield/internal/store"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Ready         bool           `json:"ready"`
	Fault         bool           `json:"fault"`
	Focus         int            `json:"focus"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	LastLog       string         `json:"last_log,omitempty"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Channels      []ChannelJSON  `json:"channels"`
	Actuators     []ActuatorJSON `json:"actuators"`
	Counts        CountsJSON     `json:"counts"`
	Network       *NetworkJSON   `json:"network,omitempty"`
	Config        ConfigJSON     `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ChannelJSON is the JSON representation of one channel. Channel and
// actuator ids are 1-based.
type ChannelJSON struct {
	Channel      int            `json:"channel"`
	Temperature  *float64       `json:"temperature"`
	Disconnected bool           `json:"disconnected"`
	Low          int            `json:"low"`
	High         int            `json:"high"`
	Calibration  float64        `json:"calibration"`
	Actuators    []int          `json:"actuators"`
	Override     store.Override `json:"override"`
	On           bool           `json:"on"`
	Logging      bool           `json:"logging"`
	Active       bool           `json:"active"`
}

// ActuatorJSON is the JSON representation of one actuator output.
type ActuatorJSON struct {
	ID int  `json:"id"`
	On bool `json:"on"`
}

// CountsJSON is the JSON representation of the running totals.
type CountsJSON struct {
	Toggles      int `json:"toggles"`
	Overrides    int `json:"overrides"`
	SampleErrors int `json:"sample_errors"`
	LogsWritten  int `json:"logs_written"`
	LogFailures  int `json:"log_failures"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs         int64  `json:"poll_ms"`
	SamplePeriodMs int64  `json:"sample_period_ms"`
	HeartbeatMs    int64  `json:"heartbeat_ms"`
	Broker         string `json:"broker"`
	HTTPAddr       string `json:"http_addr"`
}

// ChannelView converts a channel for JSON output.
func ChannelView(index int, ch store.Channel) ChannelJSON {
	v := ChannelJSON{
		Channel:      index + 1,
		Disconnected: ch.Disconnected(),
		Low:          ch.Low,
		High:         ch.High,
		Calibration:  ch.Calibration,
		Actuators:    []int{},
		Override:     ch.Override,
		On:           ch.IsOn,
		Logging:      ch.IsLogging,
		Active:       ch.Active(),
	}
	if !v.Disconnected {
		t := ch.Temperature
		v.Temperature = &t
	}
	for _, id := range ch.Actuators.IDs() {
		v.Actuators = append(v.Actuators, id+1)
	}
	return v
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Ready:         snap.Ready,
		Fault:         snap.Fault,
		Focus:         snap.Focus + 1,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Toggles:      snap.Counts.Toggles,
			Overrides:    snap.Counts.Overrides,
			SampleErrors: snap.Counts.SampleErrors,
			LogsWritten:  snap.Counts.LogsWritten,
			LogFailures:  snap.Counts.LogFailures,
		},
		Config: ConfigJSON{
			PollMs:         snap.Config.PollMs,
			SamplePeriodMs: snap.Config.SamplePeriodMs,
			HeartbeatMs:    snap.Config.HeartbeatMs,
			Broker:         snap.Config.Broker,
			HTTPAddr:       snap.Config.HTTPAddr,
		},
	}
	if !snap.LastLog.IsZero() {
		inner.LastLog = snap.LastLog.UTC().Format(time.RFC3339)
	}
	for i, ch := range snap.Channels {
		inner.Channels = append(inner.Channels, ChannelView(i, ch))
	}
	for i, on := range snap.Actuators {
		inner.Actuators = append(inner.Actuators, ActuatorJSON{ID: i + 1, On: on})
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
