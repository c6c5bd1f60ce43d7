// Package tsl2561 is a placeholder for the AMS TSL2561 light-to-digital
// converter. It satisfies ports.LightSensor so the type can be selected in
// configuration, but every operation reports that it is not implemented.
package tsl2561

import (
	"context"
	"fmt"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
)

// Addr is the I2C address with the ADDR SEL pin floating.
const Addr uint16 = 0x39

type Sensor struct {
	addr uint16
}

func New(addr uint16) *Sensor {
	if addr == 0 {
		addr = Addr
	}
	return &Sensor{addr: addr}
}

func (s *Sensor) String() string {
	return fmt.Sprintf("TSL2561(0x%02x)", s.addr)
}

func (s *Sensor) Initialize(ctx context.Context) error { return s.unsupported("initialize") }
func (s *Sensor) PowerOn(ctx context.Context) error    { return s.unsupported("power_on") }
func (s *Sensor) PowerOff(ctx context.Context) error   { return s.unsupported("power_off") }
func (s *Sensor) Reset(ctx context.Context) error      { return s.unsupported("reset") }

func (s *Sensor) ReadLux(ctx context.Context, mode domain.MeasurementMode) (float64, error) {
	return 0, s.unsupported("read_lux")
}

func (s *Sensor) SetMeasurementTime(ctx context.Context, mt uint8) error {
	return s.unsupported("set_measurement_time")
}

func (s *Sensor) Close() error { return nil }

func (s *Sensor) unsupported(op string) error {
	return fmt.Errorf("%s %s: %w: %w", s, op, domain.ErrSensorUnavailable, domain.ErrNotImplemented)
}
