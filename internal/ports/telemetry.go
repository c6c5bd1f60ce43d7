package ports

import (
	"context"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
)

// TelemetrySink receives readings and controller events for observers
// outside the process (MQTT, InfluxDB).
type TelemetrySink interface {
	PublishReading(ctx context.Context, reading *domain.LightReading) error
	PublishEvent(ctx context.Context, event domain.Event) error
	Close() error
}
