// Package control runs the daily light accumulation and supplemental
// lighting cycle.
//
// Each day the loop resets the plant's exposure when the sunrise window opens,
// integrates sensor readings into lux-hours, and decides inside the mid-day
// window whether the grow light has to make up the difference. Supplemental
// light stays on until the plant's dose is met or its lights-out time passes.
package control

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
	"github.com/quentinrf/plant-monitor/services/grow-light/internal/metrics"
	"github.com/quentinrf/plant-monitor/services/grow-light/internal/ports"
)

const (
	DefaultInterval = time.Minute

	shutdownTimeout = 5 * time.Second
)

// Config tunes the loop. Zero values select the defaults.
type Config struct {
	// Interval between polls; also the duration each reading is credited for.
	Interval time.Duration
	// Window is the width of the sunrise and mid-day windows.
	Window time.Duration
	Mode   domain.MeasurementMode
	// Fade is how long the light takes to come on; zero switches instantly.
	Fade time.Duration
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Window <= 0 {
		c.Window = domain.DefaultWindow
	}
	if c.Mode == 0 {
		c.Mode = domain.ContinuousHighRes
	}
	if c.Fade < 0 {
		c.Fade = 0
	}
	return c
}

// Option configures optional collaborators.
type Option func(*Loop)

// WithMetrics mirrors loop state into c.
func WithMetrics(c *metrics.Collector) Option {
	return func(l *Loop) { l.metrics = c }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) { l.now = now }
}

// Loop is the controller. Tick and Run must only be called from one
// goroutine; Snapshot may be called from any.
type Loop struct {
	sensor   ports.LightSensor
	led      ports.LEDController
	plant    *domain.Plant
	sun      ports.SunSchedule
	recorder *ports.Recorder
	metrics  *metrics.Collector
	cfg      Config
	now      func() time.Time

	// Fields below are written only by the loop goroutine, under mu.
	mu            sync.Mutex
	started       bool
	phase         domain.Phase
	accumulated   float64
	sunTimes      domain.SunTimes
	haveSun       bool
	resetDone     bool
	ledOn         bool
	lastLux       float64
	lastReadingAt time.Time
	missed        int
}

func New(sensor ports.LightSensor, led ports.LEDController, plant *domain.Plant, sun ports.SunSchedule, recorder *ports.Recorder, cfg Config, opts ...Option) *Loop {
	l := &Loop{
		sensor:   sensor,
		led:      led,
		plant:    plant,
		sun:      sun,
		recorder: recorder,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
		phase:    domain.PhaseAwaitingSunrise,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Run ticks immediately and then every Interval until ctx is cancelled. The
// light is switched off before Run returns.
func (l *Loop) Run(ctx context.Context) {
	log.Info().
		Str("plant", l.plant.Name()).
		Float64("required", l.plant.RequiredDose()).
		Dur("interval", l.cfg.Interval).
		Str("mode", l.cfg.Mode.String()).
		Msg("starting control loop")

	defer l.shutdown()

	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	l.Tick(ctx, l.now())

	for {
		select {
		case <-ticker.C:
			l.Tick(ctx, l.now())

		case <-ctx.Done():
			log.Info().Msg("stopping control loop")
			return
		}
	}
}

// Tick runs one control cycle at now.
func (l *Loop) Tick(ctx context.Context, now time.Time) {
	if l.sunTimes.Date.IsZero() || !now.Before(l.sunTimes.Date.AddDate(0, 0, 1)) {
		l.newDay(ctx, now)
	}

	if l.haveSun {
		l.checkSunrise(ctx, now)
		l.checkMidDay(ctx, now)
	}

	l.poll(ctx, now)

	if l.phase == domain.PhaseSupplementingLight {
		l.checkSupplement(ctx, now)
	}

	l.metrics.ObserveStatus(l.Snapshot())
	l.recorder.Prune(ctx, now)
}

// Snapshot returns the current controller state.
func (l *Loop) Snapshot() domain.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return domain.Status{
		Plant:          l.plant.Name(),
		Phase:          l.phase,
		Accumulated:    l.accumulated,
		Required:       l.plant.RequiredDose(),
		Sun:            l.sunTimes,
		LEDOn:          l.ledOn,
		LastLux:        l.lastLux,
		LastReadingAt:  l.lastReadingAt,
		MissedReadings: l.missed,
	}
}

func (l *Loop) update(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn()
}

func (l *Loop) newDay(ctx context.Context, now time.Time) {
	st, err := l.sun.For(now)
	first := !l.started

	l.update(func() {
		l.started = true
		l.sunTimes = st
		l.haveSun = err == nil
		l.resetDone = false
		l.phase = domain.PhaseAwaitingSunrise
	})

	if err != nil {
		log.Error().Err(err).Msg("no sun times for today, accumulating without a schedule")
	} else {
		log.Info().
			Time("sunrise", st.Sunrise).
			Time("mid_day", st.MidDay()).
			Time("sunset", st.Sunset).
			Msg("computed sun times")
	}

	// Supplementing should have ended at lights-out; never carry light into a new day.
	if l.ledOn {
		l.lightOff(ctx)
	}

	if first && l.haveSun {
		l.place(ctx, now)
	}
}

// place positions a freshly started loop in the day without replaying
// windows that have already closed.
func (l *Loop) place(ctx context.Context, now time.Time) {
	w := l.cfg.Window
	switch {
	case domain.PastWindow(now, l.sunTimes.MidDay(), w):
		l.update(func() {
			l.resetDone = true
			l.phase = domain.PhaseDoneForDay
		})
		log.Warn().Msg("started after the mid-day window, supplementing resumes tomorrow")
		l.emit(ctx, domain.EventMissedMidDay, now)

	case domain.PastWindow(now, l.sunTimes.Sunrise, w):
		l.update(func() {
			l.resetDone = true
			l.phase = domain.PhaseAccumulating
		})
	}
}

func (l *Loop) checkSunrise(ctx context.Context, now time.Time) {
	if l.resetDone {
		return
	}
	start := l.sunTimes.Sunrise.Add(-l.cfg.Window / 2)
	if now.Before(start) {
		return
	}

	l.update(func() {
		l.accumulated = 0
		l.resetDone = true
		l.phase = domain.PhaseAccumulating
	})
	l.emit(ctx, domain.EventSunriseReset, now)
}

func (l *Loop) checkMidDay(ctx context.Context, now time.Time) {
	if l.phase != domain.PhaseAccumulating && l.phase != domain.PhaseAwaitingMidDayDecision {
		return
	}

	mid := l.sunTimes.MidDay()
	switch {
	case domain.InWindow(now, mid, l.cfg.Window):
		l.update(func() { l.phase = domain.PhaseAwaitingMidDayDecision })
		l.decide(ctx, now)

	case domain.PastWindow(now, mid, l.cfg.Window):
		l.update(func() { l.phase = domain.PhaseDoneForDay })
		log.Warn().Float64("accumulated", l.accumulated).Msg("mid-day window passed without a decision")
		l.emit(ctx, domain.EventMissedMidDay, now)
	}
}

// decide turns the light on when the morning fell short of the supplement
// threshold. Otherwise the day counts as complete.
func (l *Loop) decide(ctx context.Context, now time.Time) {
	threshold := l.plant.SupplementThreshold()

	if l.accumulated < threshold {
		if err := l.lightOn(ctx); err != nil {
			// Still AwaitingMidDayDecision: the next tick inside the window tries again.
			return
		}
		l.update(func() { l.phase = domain.PhaseSupplementingLight })
		l.metrics.ObserveDecision(true)
		log.Info().
			Float64("accumulated", l.accumulated).
			Float64("threshold", threshold).
			Msg("insufficient light by mid-day, supplementing")
		l.emit(ctx, domain.EventMidDaySupplement, now)
		return
	}

	l.lightOff(ctx)
	l.update(func() {
		if l.accumulated < l.plant.RequiredDose() {
			l.accumulated = l.plant.RequiredDose()
		}
		l.phase = domain.PhaseDoneForDay
	})
	l.metrics.ObserveDecision(false)
	log.Info().
		Float64("threshold", threshold).
		Msg("sufficient light by mid-day, no supplement needed")
	l.emit(ctx, domain.EventMidDaySufficient, now)
}

func (l *Loop) checkSupplement(ctx context.Context, now time.Time) {
	var kind domain.EventKind
	switch {
	case !l.plant.NeedsLight(l.accumulated):
		kind = domain.EventSupplementComplete
	case !now.Before(l.plant.LightsOut(l.sunTimes.Sunrise)):
		kind = domain.EventLightsOut
		log.Warn().
			Float64("accumulated", l.accumulated).
			Float64("required", l.plant.RequiredDose()).
			Msg("lights-out reached before the daily dose")
	default:
		return
	}

	if err := l.lightOff(ctx); err != nil {
		return
	}
	l.update(func() { l.phase = domain.PhaseDoneForDay })
	l.emit(ctx, kind, now)
}

// poll reads the sensor once. A failed read adds nothing.
func (l *Loop) poll(ctx context.Context, now time.Time) {
	lux, err := l.sensor.ReadLux(ctx, l.cfg.Mode)
	if err == nil {
		_, err = domain.NewLightReading(lux, now)
	}
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		kind := domain.Classify(err)
		l.update(func() { l.missed++ })
		l.metrics.ObserveSensorError(kind)
		log.Warn().Err(err).Str("kind", string(kind)).Msg("no light reading this cycle")
		return
	}

	l.update(func() {
		l.accumulated += domain.Dose(lux, l.cfg.Interval)
		l.lastLux = lux
		l.lastReadingAt = now
	})

	reading := &domain.LightReading{
		Lux:           lux,
		Accumulated:   l.accumulated,
		Supplementing: l.ledOn,
		Timestamp:     now,
	}
	l.metrics.ObserveReading(reading)
	l.recorder.Record(ctx, reading)
}

func (l *Loop) lightOn(ctx context.Context) error {
	var err error
	if l.cfg.Fade > 0 {
		err = l.led.TransitionColor(ctx, domain.Black, l.plant.Color(), l.cfg.Fade)
	} else {
		err = l.led.TurnOn(ctx, l.plant.Color())
	}
	if err != nil {
		log.Error().Err(err).Str("kind", string(domain.Classify(err))).Msg("failed to turn grow light on")
		return err
	}
	l.update(func() { l.ledOn = true })
	return nil
}

func (l *Loop) lightOff(ctx context.Context) error {
	if err := l.led.TurnOff(ctx); err != nil {
		log.Error().Err(err).Str("kind", string(domain.Classify(err))).Msg("failed to turn grow light off")
		return err
	}
	l.update(func() { l.ledOn = false })
	return nil
}

func (l *Loop) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := l.lightOff(ctx); err == nil {
		log.Info().Msg("grow light off")
	}
}

func (l *Loop) emit(ctx context.Context, kind domain.EventKind, now time.Time) {
	l.recorder.Event(ctx, domain.Event{
		Kind:        kind,
		Phase:       l.phase,
		Accumulated: l.accumulated,
		Required:    l.plant.RequiredDose(),
		LEDOn:       l.ledOn,
		Timestamp:   now,
	})
}
