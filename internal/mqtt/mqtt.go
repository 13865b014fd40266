// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/thermoshield/internal/logic"
	"github.com/sweeney/thermoshield/internal/store"
)

// Topic is the MQTT topic for channel events.
const Topic = "thermoshield/events"

// TopicDuty is the MQTT topic for hourly duty-cycle reports.
const TopicDuty = "thermoshield/duty"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "thermoshield/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a channel event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishDuty sends one duty-cycle report covering all logged channels.
	PublishDuty(records []store.DutyRecord) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Channel ChannelPayload `json:"channel"`
}

// ChannelPayload contains the channel event details.
type ChannelPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Channel   int    `json:"channel"`
	State     string `json:"state"`
	// Temperature is null while the sensor is disconnected.
	Temperature *float64 `json:"temperature"`
	Override    string   `json:"override"`
}

// FormatPayload creates the JSON payload for a channel event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Channel: ChannelPayload{
			Timestamp:   event.Timestamp.UTC().Format(time.RFC3339),
			Event:       string(event.Type),
			Channel:     event.Channel + 1,
			State:       string(event.State),
			Temperature: temperature(event.Temperature),
			Override:    event.Override,
		},
	}
	return json.Marshal(payload)
}

func temperature(t float64) *float64 {
	if t == store.Disconnected {
		return nil
	}
	return &t
}

// DutyPayload is the MQTT payload for an hourly duty-cycle report.
type DutyPayload struct {
	Duty DutyPayloadInner `json:"duty"`
}

// DutyPayloadInner contains the report details.
type DutyPayloadInner struct {
	Timestamp string        `json:"timestamp"`
	Channels  []DutyChannel `json:"channels"`
}

// DutyChannel is one channel's line of a duty report.
type DutyChannel struct {
	Channel           int      `json:"channel"`
	Temperature       *float64 `json:"temperature"`
	DutyPercent       int      `json:"duty_percent"`
	Toggles           int64    `json:"toggles"`
	CheckpointsActive int64    `json:"checkpoints_active"`
	CheckpointsTotal  int64    `json:"checkpoints_total"`
}

// FormatDutyPayload creates the JSON payload for a duty report. The report
// timestamp is taken from the first record.
func FormatDutyPayload(records []store.DutyRecord) ([]byte, error) {
	inner := DutyPayloadInner{Channels: make([]DutyChannel, 0, len(records))}
	if len(records) > 0 {
		inner.Timestamp = records[0].Time.UTC().Format(time.RFC3339)
	}
	for _, r := range records {
		inner.Channels = append(inner.Channels, DutyChannel{
			Channel:           r.Channel + 1,
			Temperature:       temperature(r.Temperature),
			DutyPercent:       r.DutyPercent,
			Toggles:           r.Toggles,
			CheckpointsActive: r.CheckpointsActive,
			CheckpointsTotal:  r.CheckpointsTotal,
		})
	}
	return json.Marshal(DutyPayload{Duty: inner})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
