// Package sensors selects a light sensor driver by its configured name.
package sensors

import (
	"strings"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/adapters/bh1750"
	"github.com/quentinrf/plant-monitor/services/grow-light/internal/adapters/tsl2561"
	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
	"github.com/quentinrf/plant-monitor/services/grow-light/internal/ports"
)

const (
	TypeBH1750  = "BH1750"
	TypeTSL2561 = "TSL2561"
)

// Known lists the accepted sensor type names.
var Known = []string{TypeBH1750, TypeTSL2561}

// Options carries what the drivers need to reach their hardware.
type Options struct {
	Bus    bh1750.BusOpener
	BH1750 *bh1750.Opts
	// Addr overrides the TSL2561 address; the BH1750 address lives in BH1750.
	Addr uint16
}

// Create returns the driver for sensorType. Matching ignores case.
func Create(sensorType string, opts Options) (ports.LightSensor, error) {
	switch strings.ToUpper(strings.TrimSpace(sensorType)) {
	case TypeBH1750:
		s, err := bh1750.New(opts.Bus, opts.BH1750)
		if err != nil {
			return nil, err
		}
		return s, nil
	case TypeTSL2561:
		return tsl2561.New(opts.Addr), nil
	default:
		return nil, &domain.ConfigurationError{
			Field: "sensor_type",
			Value: sensorType,
			Err:   domain.ErrUnknownSensorType,
		}
	}
}
