// Package telemetry combines sinks and keeps a failing one from slowing the
// control loop.
package telemetry

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
	"github.com/quentinrf/plant-monitor/services/grow-light/internal/ports"
)

const (
	DefaultFailures = 3
	DefaultOpen     = 30 * time.Second
)

// BreakerSettings configures NewBreaker. Zero values select the defaults.
type BreakerSettings struct {
	// Failures is the number of consecutive errors that opens the breaker.
	Failures uint32
	// Open is how long the breaker rejects calls before probing again.
	Open time.Duration
	// Interval clears the failure counts while closed; zero never clears.
	Interval time.Duration
}

// Breaker guards a sink with a circuit breaker. While open, publishes fail
// immediately with gobreaker.ErrOpenState.
type Breaker struct {
	sink ports.TelemetrySink
	cb   *gobreaker.CircuitBreaker
}

func NewBreaker(name string, sink ports.TelemetrySink, s BreakerSettings) *Breaker {
	if s.Failures == 0 {
		s.Failures = DefaultFailures
	}
	if s.Open <= 0 {
		s.Open = DefaultOpen
	}
	fails := s.Failures

	return &Breaker{
		sink: sink,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     name,
			Interval: s.Interval,
			Timeout:  s.Open,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= fails
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().
					Str("sink", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("telemetry breaker state changed")
			},
		}),
	}
}

func (b *Breaker) PublishReading(ctx context.Context, reading *domain.LightReading) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.sink.PublishReading(ctx, reading)
	})
	return err
}

func (b *Breaker) PublishEvent(ctx context.Context, event domain.Event) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.sink.PublishEvent(ctx, event)
	})
	return err
}

// State reports the breaker state, for tests and logs.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func (b *Breaker) Close() error {
	return b.sink.Close()
}
