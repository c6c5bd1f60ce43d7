package mock

import (
	"context"
	"math/rand"
	"sync"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
)

// FakeSensor simulates a light sensor for development
// This implements the ports.LightSensor interface
type FakeSensor struct {
	baseValue float64
	variation float64
}

// NewFakeSensor creates a sensor that returns realistic values
// baseValue: average lux (e.g., 500 for indoor lighting)
// variation: +/- range (e.g., 100 means 400-600)
func NewFakeSensor(baseValue, variation float64) *FakeSensor {
	return &FakeSensor{
		baseValue: baseValue,
		variation: variation,
	}
}

func (s *FakeSensor) Initialize(ctx context.Context) error { return nil }
func (s *FakeSensor) PowerOn(ctx context.Context) error    { return nil }
func (s *FakeSensor) PowerOff(ctx context.Context) error   { return nil }
func (s *FakeSensor) Reset(ctx context.Context) error      { return nil }

func (s *FakeSensor) SetMeasurementTime(ctx context.Context, mt uint8) error { return nil }

// ReadLux returns a simulated light reading
// Simulates realistic variance (lights flicker, clouds pass, etc.)
func (s *FakeSensor) ReadLux(ctx context.Context, mode domain.MeasurementMode) (float64, error) {
	// Random value around base ± variation
	variance := (rand.Float64() - 0.5) * 2 * s.variation
	lux := s.baseValue + variance

	// Ensure non-negative
	if lux < 0 {
		lux = 0
	}

	return lux, nil
}

// Close is a no-op for fake sensor
func (s *FakeSensor) Close() error {
	return nil
}

// Result is one scripted outcome of ScriptedSensor.ReadLux.
type Result struct {
	Lux float64
	Err error
}

// ScriptedSensor replays a fixed sequence of readings, then repeats the last one.
type ScriptedSensor struct {
	mu      sync.Mutex
	results []Result
	next    int
	Reads   int
	Modes   []domain.MeasurementMode
	Powered bool
}

func NewScriptedSensor(results ...Result) *ScriptedSensor {
	return &ScriptedSensor{results: results}
}

// Readings builds a script of successful readings.
func Readings(lux ...float64) []Result {
	out := make([]Result, len(lux))
	for i, l := range lux {
		out[i] = Result{Lux: l}
	}
	return out
}

func (s *ScriptedSensor) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Powered = true
	return nil
}

func (s *ScriptedSensor) PowerOn(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Powered = true
	return nil
}

func (s *ScriptedSensor) PowerOff(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Powered = false
	return nil
}

func (s *ScriptedSensor) Reset(ctx context.Context) error                        { return nil }
func (s *ScriptedSensor) SetMeasurementTime(ctx context.Context, mt uint8) error { return nil }
func (s *ScriptedSensor) Close() error                                           { return nil }

func (s *ScriptedSensor) ReadLux(ctx context.Context, mode domain.MeasurementMode) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Reads++
	s.Modes = append(s.Modes, mode)
	if len(s.results) == 0 {
		return 0, domain.ErrSensorUnavailable
	}
	r := s.results[s.next]
	if s.next < len(s.results)-1 {
		s.next++
	}
	return r.Lux, r.Err
}
