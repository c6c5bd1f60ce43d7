package telemetry

import (
	"context"
	"errors"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
	"github.com/quentinrf/plant-monitor/services/grow-light/internal/ports"
)

// Fanout publishes to every sink in order. One sink failing does not skip
// the rest; the errors are joined.
type Fanout []ports.TelemetrySink

func (f Fanout) PublishReading(ctx context.Context, reading *domain.LightReading) error {
	var errs []error
	for _, s := range f {
		if err := s.PublishReading(ctx, reading); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) PublishEvent(ctx context.Context, event domain.Event) error {
	var errs []error
	for _, s := range f {
		if err := s.PublishEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, s := range f {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
