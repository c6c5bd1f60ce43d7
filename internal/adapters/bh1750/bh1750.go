// Package bh1750 drives the ROHM BH1750 ambient light sensor over I2C.
//
// Every operation is a self-contained transaction: the bus is opened, used
// and released before the call returns, whether it succeeded or not.
package bh1750

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
)

const (
	// Addr is the I2C address with ADDR pulled low.
	Addr uint16 = 0x23
	// AltAddr is the I2C address with ADDR pulled high.
	AltAddr uint16 = 0x5C

	cmdPowerDown byte = 0x00
	cmdPowerOn   byte = 0x01
	cmdReset     byte = 0x07
	cmdMTHigh    byte = 0x40
	cmdMTLow     byte = 0x60

	// DefaultMeasurementTime is the power-on value of the MTreg register.
	DefaultMeasurementTime uint8 = 69
	MinMeasurementTime     uint8 = 31
	MaxMeasurementTime     uint8 = 254

	// countsPerLux is the datasheet's typical measurement accuracy factor.
	countsPerLux = 1.2
)

// BusOpener acquires the I2C bus for one transaction. The returned bus is
// closed when the transaction ends.
type BusOpener func() (i2c.BusCloser, error)

// RegistryOpener opens the named bus from the periph.io registry. An empty
// name selects the first available bus.
func RegistryOpener(name string) BusOpener {
	return func() (i2c.BusCloser, error) {
		return i2creg.Open(name)
	}
}

// Opts configures a Sensor.
type Opts struct {
	Addr uint16
	// Calibration multiplies every computed lux value. Use it to correct for
	// an enclosure window; leave at 1 otherwise.
	Calibration     float64
	MeasurementTime uint8
}

// DefaultOpts matches a bare breakout board with ADDR low.
var DefaultOpts = Opts{
	Addr:            Addr,
	Calibration:     1,
	MeasurementTime: DefaultMeasurementTime,
}

// Sensor is a BH1750 reachable through a BusOpener.
type Sensor struct {
	open        BusOpener
	addr        uint16
	calibration float64
	mt          uint8
	sleep       func(time.Duration)
}

// New returns a sensor. It performs no I/O; call Initialize before reading.
func New(open BusOpener, opts *Opts) (*Sensor, error) {
	if open == nil {
		return nil, &domain.ConfigurationError{Field: "i2c_bus", Err: fmt.Errorf("no bus opener")}
	}
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Addr == 0 {
		o.Addr = Addr
	}
	if o.Addr != Addr && o.Addr != AltAddr {
		return nil, &domain.ConfigurationError{Field: "i2c_address", Value: fmt.Sprintf("0x%02x", o.Addr), Err: fmt.Errorf("bh1750 answers on 0x23 or 0x5c only")}
	}
	if o.Calibration == 0 {
		o.Calibration = 1
	}
	if o.Calibration < 0 {
		return nil, &domain.ConfigurationError{Field: "calibration", Value: fmt.Sprint(o.Calibration), Err: fmt.Errorf("must be positive")}
	}
	if o.MeasurementTime == 0 {
		o.MeasurementTime = DefaultMeasurementTime
	}
	if err := checkMeasurementTime(o.MeasurementTime); err != nil {
		return nil, err
	}
	return &Sensor{
		open:        open,
		addr:        o.Addr,
		calibration: o.Calibration,
		mt:          o.MeasurementTime,
		sleep:       time.Sleep,
	}, nil
}

func (s *Sensor) String() string {
	return fmt.Sprintf("BH1750(0x%02x)", s.addr)
}

// Initialize powers the sensor on and clears its data register. A
// measurement time other than the power-on default is written too.
func (s *Sensor) Initialize(ctx context.Context) error {
	if err := s.PowerOn(ctx); err != nil {
		return err
	}
	if err := s.Reset(ctx); err != nil {
		return err
	}
	if s.mt != DefaultMeasurementTime {
		return s.SetMeasurementTime(ctx, s.mt)
	}
	return nil
}

func (s *Sensor) PowerOn(ctx context.Context) error {
	return s.command(ctx, "power_on", cmdPowerOn)
}

func (s *Sensor) PowerOff(ctx context.Context) error {
	return s.command(ctx, "power_off", cmdPowerDown)
}

// Reset clears the data register. The sensor must be powered on.
func (s *Sensor) Reset(ctx context.Context) error {
	return s.command(ctx, "reset", cmdReset)
}

// ReadLux starts a measurement in mode, waits for it to settle and returns
// the result in lux.
func (s *Sensor) ReadLux(ctx context.Context, mode domain.MeasurementMode) (float64, error) {
	if !mode.Valid() {
		return 0, &domain.ConfigurationError{Field: "sensor_mode", Value: mode.String(), Err: fmt.Errorf("unsupported by bh1750")}
	}

	var buf [2]byte
	err := s.transaction(ctx, "read_lux", func(d *i2c.Dev) error {
		if err := d.Tx([]byte{byte(mode)}, nil); err != nil {
			return fmt.Errorf("write mode: %w", err)
		}
		s.sleep(s.settleDelay(mode))
		if err := d.Tx(nil, buf[:]); err != nil {
			return fmt.Errorf("read result: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return RawToLux(buf[0], buf[1], mode, s.mt) * s.calibration, nil
}

// SetMeasurementTime writes the MTreg register, trading sensitivity for
// conversion time. Valid values are 31 through 254.
func (s *Sensor) SetMeasurementTime(ctx context.Context, mt uint8) error {
	if err := checkMeasurementTime(mt); err != nil {
		return err
	}
	err := s.transaction(ctx, "set_measurement_time", func(d *i2c.Dev) error {
		if err := d.Tx([]byte{cmdMTHigh | mt>>5}, nil); err != nil {
			return err
		}
		return d.Tx([]byte{cmdMTLow | mt&0x1F}, nil)
	})
	if err != nil {
		return err
	}
	s.mt = mt
	return nil
}

// Close is a no-op; the bus is never held between calls.
func (s *Sensor) Close() error {
	return nil
}

// RawToLux converts the two result bytes to lux for the given mode and
// measurement time register.
func RawToLux(hi, lo byte, mode domain.MeasurementMode, mt uint8) float64 {
	lux := float64(uint16(hi)<<8|uint16(lo)) / countsPerLux
	if mt != 0 && mt != DefaultMeasurementTime {
		lux *= float64(DefaultMeasurementTime) / float64(mt)
	}
	if mode.HalfLux() {
		lux /= 2
	}
	return lux
}

func (s *Sensor) settleDelay(mode domain.MeasurementMode) time.Duration {
	return mode.MaxMeasurementTime() * time.Duration(s.mt) / time.Duration(DefaultMeasurementTime)
}

func (s *Sensor) command(ctx context.Context, op string, cmd byte) error {
	return s.transaction(ctx, op, func(d *i2c.Dev) error {
		return d.Tx([]byte{cmd}, nil)
	})
}

// transaction runs fn with the bus held and always releases it.
func (s *Sensor) transaction(ctx context.Context, op string, fn func(d *i2c.Dev) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bus, err := s.open()
	if err != nil {
		return &domain.TransportError{Op: op, Addr: s.addr, Err: fmt.Errorf("open bus: %w", err)}
	}
	defer func() {
		if err := bus.Close(); err != nil {
			log.Warn().Err(err).Str("op", op).Msg("failed to release i2c bus")
		}
	}()

	if err := fn(&i2c.Dev{Bus: bus, Addr: s.addr}); err != nil {
		return &domain.TransportError{Op: op, Addr: s.addr, Err: err}
	}
	return nil
}

func checkMeasurementTime(mt uint8) error {
	if mt < MinMeasurementTime || mt > MaxMeasurementTime {
		return &domain.ConfigurationError{
			Field: "measurement_time",
			Value: fmt.Sprint(mt),
			Err:   fmt.Errorf("must be between %d and %d", MinMeasurementTime, MaxMeasurementTime),
		}
	}
	return nil
}
