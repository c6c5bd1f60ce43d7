package ports

import (
	"context"
	"time"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
)

// LEDController drives the supplemental grow light
// This is a PORT - adapters (NeoPixel strip, GPIO relay) will implement it
type LEDController interface {
	TurnOn(ctx context.Context, color domain.Color) error
	TurnOff(ctx context.Context) error

	// SetColor applies color to every pixel immediately, without a fade
	SetColor(ctx context.Context, color domain.Color) error

	// TransitionColor fades from start to end over roughly duration
	TransitionColor(ctx context.Context, start, end domain.Color, duration time.Duration) error
}
