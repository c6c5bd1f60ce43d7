package ports

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
)

const (
	// DefaultRetention is how long readings stay in the log
	DefaultRetention = 30 * 24 * time.Hour

	pruneInterval = 24 * time.Hour
)

// Recorder stores every reading the control loop takes and forwards readings
// and events to telemetry. Its failures are logged and never reach the loop.
type Recorder struct {
	repo      domain.ReadingRepository
	sink      TelemetrySink
	retention time.Duration
	lastPrune time.Time
}

// NewRecorder creates a recorder. sink may be nil when no telemetry is configured.
func NewRecorder(repo domain.ReadingRepository, sink TelemetrySink, retention time.Duration) *Recorder {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Recorder{
		repo:      repo,
		sink:      sink,
		retention: retention,
	}
}

// Record saves reading to the repository and publishes it
func (r *Recorder) Record(ctx context.Context, reading *domain.LightReading) {
	if err := r.repo.SaveReading(ctx, reading); err != nil {
		log.Error().Err(err).Msg("failed to save reading")
	}

	if r.sink != nil {
		if err := r.sink.PublishReading(ctx, reading); err != nil {
			log.Warn().Err(err).Msg("failed to publish reading")
		}
	}

	log.Debug().
		Float64("lux", reading.Lux).
		Float64("accumulated", reading.Accumulated).
		Str("category", string(reading.Category())).
		Msg("recorded light reading")
}

// Event publishes a controller transition
func (r *Recorder) Event(ctx context.Context, event domain.Event) {
	log.Info().
		Str("kind", string(event.Kind)).
		Str("phase", string(event.Phase)).
		Float64("accumulated", event.Accumulated).
		Float64("required", event.Required).
		Bool("led_on", event.LEDOn).
		Msg("controller event")

	if r.sink == nil {
		return
	}
	if err := r.sink.PublishEvent(ctx, event); err != nil {
		log.Warn().Err(err).Str("kind", string(event.Kind)).Msg("failed to publish event")
	}
}

// Prune deletes readings older than the retention period, at most once a day
func (r *Recorder) Prune(ctx context.Context, now time.Time) {
	if !r.lastPrune.IsZero() && now.Sub(r.lastPrune) < pruneInterval {
		return
	}
	r.lastPrune = now

	if err := r.repo.DeleteOldReadings(ctx, now.Add(-r.retention)); err != nil {
		log.Error().Err(err).Msg("failed to delete old readings")
		return
	}
	log.Info().Dur("retention", r.retention).Msg("deleted old readings")
}
