package mqtt

import (
	"github.com/sweeney/thermoshield/internal/logic"
	"github.com/sweeney/thermoshield/internal/store"
)

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	// Events contains all channel events that were published.
	Events []logic.Event

	// Payloads contains the JSON payloads that were published.
	Payloads [][]byte

	// Duty contains every duty report, one slice per PublishDuty call.
	Duty [][]store.DutyRecord

	// DutyPayloads contains the JSON payloads for duty reports.
	DutyPayloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// PublishDutyError, if set, will be returned by PublishDuty.
	PublishDutyError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the channel event.
func (f *FakePublisher) Publish(event logic.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	f.Events = append(f.Events, event)

	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Payloads = append(f.Payloads, payload)

	return nil
}

// PublishDuty records the duty report.
func (f *FakePublisher) PublishDuty(records []store.DutyRecord) error {
	if f.PublishDutyError != nil {
		return f.PublishDutyError
	}

	f.Duty = append(f.Duty, records)

	payload, err := FormatDutyPayload(records)
	if err != nil {
		return err
	}
	f.DutyPayloads = append(f.DutyPayloads, payload)

	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)

	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded events.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{}
}
