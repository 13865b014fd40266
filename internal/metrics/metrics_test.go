package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/thermoshield/internal/logic"
	"github.com/sweeney/thermoshield/internal/status"
	"github.com/sweeney/thermoshield/internal/store"
)

type fixedSource struct {
	snap status.Snapshot
}

func (f fixedSource) Snapshot() status.Snapshot {
	return f.snap
}

func readySnapshot() status.Snapshot {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var chs [logic.ChannelCount]store.Channel
	chs[0] = store.Channel{Temperature: 19.5, Low: 20, High: 22, Actuators: logic.MaskOf(0), IsLogging: true, IsOn: true}
	chs[1] = store.Channel{Temperature: store.Disconnected, Low: 18, High: 21, IsLogging: true, Override: store.ForcedOff}
	return status.Snapshot{
		Channels:      chs,
		Actuators:     [logic.ChannelCount]bool{0: true},
		Ready:         true,
		Fault:         true,
		Counts:        status.Counts{Toggles: 7, Overrides: 2, SampleErrors: 1, LogsWritten: 3, LogFailures: 1},
		StartTime:     start,
		Now:           start.Add(90 * time.Second),
		MQTTConnected: true,
	}
}

func TestCollectorChannels(t *testing.T) {
	c := NewCollector(fixedSource{readySnapshot()})

	expected := `
# HELP thermoshield_channel_temperature_celsius Smoothed channel temperature, absent while the sensor is disconnected.
# TYPE thermoshield_channel_temperature_celsius gauge
thermoshield_channel_temperature_celsius{channel="1"} 19.5
# HELP thermoshield_channel_disconnected 1 if the channel sensor reads below the plausible floor.
# TYPE thermoshield_channel_disconnected gauge
thermoshield_channel_disconnected{channel="1"} 0
thermoshield_channel_disconnected{channel="2"} 1
# HELP thermoshield_channel_override Override mode: 0 normal, 1 forced off, 2 forced on.
# TYPE thermoshield_channel_override gauge
thermoshield_channel_override{channel="1"} 0
thermoshield_channel_override{channel="2"} 1
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"thermoshield_channel_temperature_celsius",
		"thermoshield_channel_disconnected",
		"thermoshield_channel_override",
	)
	require.NoError(t, err)
}

func TestCollectorCounters(t *testing.T) {
	c := NewCollector(fixedSource{readySnapshot()})

	expected := `
# HELP thermoshield_toggles_total Channel on/off transitions since startup.
# TYPE thermoshield_toggles_total counter
thermoshield_toggles_total 7
# HELP thermoshield_duty_logs_total Duty-cycle log attempts by result.
# TYPE thermoshield_duty_logs_total counter
thermoshield_duty_logs_total{result="failed"} 1
thermoshield_duty_logs_total{result="ok"} 3
# HELP thermoshield_fault 1 while the alarm output is raised.
# TYPE thermoshield_fault gauge
thermoshield_fault 1
# HELP thermoshield_uptime_seconds Seconds since the daemon started.
# TYPE thermoshield_uptime_seconds gauge
thermoshield_uptime_seconds 90
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"thermoshield_toggles_total",
		"thermoshield_duty_logs_total",
		"thermoshield_fault",
		"thermoshield_uptime_seconds",
	)
	require.NoError(t, err)
}

func TestCollectorSkipsInactiveChannels(t *testing.T) {
	c := NewCollector(fixedSource{readySnapshot()})
	// Two active channels with one disconnected: 1 temperature, 2 disconnected,
	// 2 on, 2 override, 4 thresholds.
	assert.Equal(t, 11, testutil.CollectAndCount(c,
		"thermoshield_channel_temperature_celsius",
		"thermoshield_channel_disconnected",
		"thermoshield_channel_on",
		"thermoshield_channel_override",
		"thermoshield_channel_threshold_celsius",
	))
	assert.Equal(t, logic.ChannelCount, testutil.CollectAndCount(c, "thermoshield_actuator_on"))
}

func TestCollectorNotReady(t *testing.T) {
	c := NewCollector(fixedSource{status.Snapshot{}})
	assert.Equal(t, 0, testutil.CollectAndCount(c))
}

func TestRegistryGathers(t *testing.T) {
	reg := NewRegistry(fixedSource{readySnapshot()})
	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["thermoshield_toggles_total"])
	assert.True(t, names["go_goroutines"])
}
