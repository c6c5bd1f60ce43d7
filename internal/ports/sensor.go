package ports

import (
	"context"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
)

// LightSensor defines how to read light levels
// This is a PORT - adapters (BH1750, TSL2561, Mock) will implement it
type LightSensor interface {
	// Initialize powers the sensor on and resets its data register
	Initialize(ctx context.Context) error

	PowerOn(ctx context.Context) error
	PowerOff(ctx context.Context) error
	Reset(ctx context.Context) error

	// ReadLux returns current light level in lux. A failed read returns an
	// error and must be treated as no reading, never as zero.
	ReadLux(ctx context.Context, mode domain.MeasurementMode) (float64, error)

	// SetMeasurementTime adjusts the sensor's integration time register
	SetMeasurementTime(ctx context.Context, mt uint8) error

	// Close releases any resources
	Close() error
}
