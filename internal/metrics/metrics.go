// Package metrics exports the daemon status as Prometheus metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sweeney/thermoshield/internal/status"
)

const namespace = "thermoshield"

// Source yields status snapshots.
type Source interface {
	Snapshot() status.Snapshot
}

var (
	temperatureDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "channel", "temperature_celsius"),
		"Smoothed channel temperature, absent while the sensor is disconnected.",
		[]string{"channel"}, nil)
	disconnectedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "channel", "disconnected"),
		"1 if the channel sensor reads below the plausible floor.",
		[]string{"channel"}, nil)
	channelOnDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "channel", "on"),
		"1 if the channel is commanding its actuators on.",
		[]string{"channel"}, nil)
	overrideDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "channel", "override"),
		"Override mode: 0 normal, 1 forced off, 2 forced on.",
		[]string{"channel"}, nil)
	thresholdDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "channel", "threshold_celsius"),
		"Configured switching thresholds.",
		[]string{"channel", "bound"}, nil)
	actuatorDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "actuator", "on"),
		"1 if the actuator output is driven on.",
		[]string{"actuator"}, nil)
	togglesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "toggles_total"),
		"Channel on/off transitions since startup.",
		nil, nil)
	overridesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "overrides_total"),
		"Override changes since startup.",
		nil, nil)
	sampleErrorsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "sample_errors_total"),
		"Failed sensor reads since startup.",
		nil, nil)
	dutyLogsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "duty_logs_total"),
		"Duty-cycle log attempts by result.",
		[]string{"result"}, nil)
	faultDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "fault"),
		"1 while the alarm output is raised.",
		nil, nil)
	mqttDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "mqtt", "connected"),
		"1 if the MQTT client is connected.",
		nil, nil)
	uptimeDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "uptime_seconds"),
		"Seconds since the daemon started.",
		nil, nil)
)

// Collector reads a fresh snapshot on every scrape.
type Collector struct {
	src Source
}

func NewCollector(src Source) *Collector {
	return &Collector{src: src}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		temperatureDesc, disconnectedDesc, channelOnDesc, overrideDesc, thresholdDesc,
		actuatorDesc, togglesDesc, overridesDesc, sampleErrorsDesc, dutyLogsDesc,
		faultDesc, mqttDesc, uptimeDesc,
	} {
		ch <- d
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.src.Snapshot()
	if !snap.Ready {
		return
	}

	for i, chn := range snap.Channels {
		if !chn.Active() {
			continue
		}
		label := strconv.Itoa(i + 1)
		if !chn.Disconnected() {
			ch <- prometheus.MustNewConstMetric(temperatureDesc, prometheus.GaugeValue, chn.Temperature, label)
		}
		ch <- prometheus.MustNewConstMetric(disconnectedDesc, prometheus.GaugeValue, boolValue(chn.Disconnected()), label)
		ch <- prometheus.MustNewConstMetric(channelOnDesc, prometheus.GaugeValue, boolValue(chn.IsOn), label)
		ch <- prometheus.MustNewConstMetric(overrideDesc, prometheus.GaugeValue, float64(chn.Override), label)
		ch <- prometheus.MustNewConstMetric(thresholdDesc, prometheus.GaugeValue, float64(chn.Low), label, "low")
		ch <- prometheus.MustNewConstMetric(thresholdDesc, prometheus.GaugeValue, float64(chn.High), label, "high")
	}
	for i, on := range snap.Actuators {
		ch <- prometheus.MustNewConstMetric(actuatorDesc, prometheus.GaugeValue, boolValue(on), strconv.Itoa(i+1))
	}

	ch <- prometheus.MustNewConstMetric(togglesDesc, prometheus.CounterValue, float64(snap.Counts.Toggles))
	ch <- prometheus.MustNewConstMetric(overridesDesc, prometheus.CounterValue, float64(snap.Counts.Overrides))
	ch <- prometheus.MustNewConstMetric(sampleErrorsDesc, prometheus.CounterValue, float64(snap.Counts.SampleErrors))
	ch <- prometheus.MustNewConstMetric(dutyLogsDesc, prometheus.CounterValue, float64(snap.Counts.LogsWritten), "ok")
	ch <- prometheus.MustNewConstMetric(dutyLogsDesc, prometheus.CounterValue, float64(snap.Counts.LogFailures), "failed")
	ch <- prometheus.MustNewConstMetric(faultDesc, prometheus.GaugeValue, boolValue(snap.Fault))
	ch <- prometheus.MustNewConstMetric(mqttDesc, prometheus.GaugeValue, boolValue(snap.MQTTConnected))
	ch <- prometheus.MustNewConstMetric(uptimeDesc, prometheus.GaugeValue, snap.Uptime().Seconds())
}

// NewRegistry returns a registry holding the status collector and the Go
// runtime collectors.
func NewRegistry(src Source) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		NewCollector(src),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
