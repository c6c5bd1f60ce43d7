// Package influx writes readings and controller events to InfluxDB 2.x.
package influx

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
)

const (
	ReadingMeasurement = "light_reading"
	EventMeasurement   = "controller_event"
)

type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// pointWriter is satisfied by api.WriteAPIBlocking.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Sink implements ports.TelemetrySink with blocking writes, one point per call.
type Sink struct {
	client influxdb2.Client
	writer pointWriter
	plant  string
}

func New(cfg Config, plant string) (*Sink, error) {
	if cfg.URL == "" || cfg.Token == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, &domain.ConfigurationError{Field: "influx", Err: fmt.Errorf("url, token, org and bucket are all required")}
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Sink{
		client: client,
		writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		plant:  plant,
	}, nil
}

// NewWithWriter builds a sink on an existing writer. The caller owns the client.
func NewWithWriter(w pointWriter, plant string) *Sink {
	return &Sink{writer: w, plant: plant}
}

// ReadingPoint converts a reading to its line-protocol point.
func ReadingPoint(plant string, r *domain.LightReading) *write.Point {
	return influxdb2.NewPoint(ReadingMeasurement,
		map[string]string{"plant": plant},
		map[string]interface{}{
			"lux":           r.Lux,
			"accumulated":   r.Accumulated,
			"supplementing": r.Supplementing,
		},
		r.Timestamp,
	)
}

// EventPoint converts a controller event to its line-protocol point.
func EventPoint(plant string, e domain.Event) *write.Point {
	return influxdb2.NewPoint(EventMeasurement,
		map[string]string{
			"plant": plant,
			"kind":  string(e.Kind),
			"phase": string(e.Phase),
		},
		map[string]interface{}{
			"accumulated": e.Accumulated,
			"required":    e.Required,
			"led_on":      e.LEDOn,
		},
		e.Timestamp,
	)
}

func (s *Sink) PublishReading(ctx context.Context, r *domain.LightReading) error {
	if err := s.writer.WritePoint(ctx, ReadingPoint(s.plant, r)); err != nil {
		return fmt.Errorf("write %s: %w", ReadingMeasurement, err)
	}
	return nil
}

func (s *Sink) PublishEvent(ctx context.Context, e domain.Event) error {
	if err := s.writer.WritePoint(ctx, EventPoint(s.plant, e)); err != nil {
		return fmt.Errorf("write %s: %w", EventMeasurement, err)
	}
	return nil
}

func (s *Sink) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}
