package history

import (
	"context"
	"fmt"
	"strconv"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/sweeney/thermoshield/internal/store"
)

// Measurement is the InfluxDB measurement duty records are written to.
const Measurement = "duty_cycle"

// InfluxConfig locates the InfluxDB bucket.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Influx writes duty records as points tagged by channel.
type Influx struct {
	client influxdb2.Client
	w      pointWriter
}

// NewInflux creates a blocking writer for the configured bucket.
func NewInflux(cfg InfluxConfig) *Influx {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Influx{
		client: client,
		w:      client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}
}

// Point converts a record. The temperature field is omitted while the sensor
// is disconnected.
func Point(r store.DutyRecord) *write.Point {
	fields := map[string]interface{}{
		"duty_percent":       r.DutyPercent,
		"toggles":            r.Toggles,
		"checkpoints_active": r.CheckpointsActive,
		"checkpoints_total":  r.CheckpointsTotal,
		"disconnected":       r.Temperature == store.Disconnected,
	}
	if r.Temperature != store.Disconnected {
		fields["temperature"] = r.Temperature
	}
	tags := map[string]string{"channel": strconv.Itoa(r.Channel + 1)}
	return influxdb2.NewPoint(Measurement, tags, fields, r.Time)
}

func (i *Influx) Record(ctx context.Context, records []store.DutyRecord) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]*write.Point, 0, len(records))
	for _, r := range records {
		points = append(points, Point(r))
	}
	if err := i.w.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("influx write: %w", err)
	}
	return nil
}

func (i *Influx) Close() error {
	if i.client != nil {
		i.client.Close()
	}
	return nil
}
