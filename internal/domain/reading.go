package domain

import (
	"time"
)

// LightReading is one poll of the light sensor together with the controller
// state it produced.
type LightReading struct {
	ID  int64
	Lux float64
	// Accumulated is the day's exposure in lux-hours after this reading was added.
	Accumulated   float64
	Supplementing bool
	Timestamp     time.Time
}

// NewLightReading validates a sensor value taken at at.
func NewLightReading(lux float64, at time.Time) (*LightReading, error) {
	if lux < 0 {
		return nil, ErrInvalidLux
	}

	return &LightReading{
		Lux:       lux,
		Timestamp: at,
	}, nil
}

// FootCandles is the reading in the unit many grow charts use.
func (r *LightReading) FootCandles() float64 {
	return LuxToFootCandles(r.Lux)
}

func (r *LightReading) Category() LightCategory {
	return CategoryFor(r.Lux)
}

// LightCategory is a coarse human-readable brightness band.
type LightCategory string

const (
	LowLight    LightCategory = "Low Light"
	MediumLight LightCategory = "Medium Light"
	HighLight   LightCategory = "High Light"
)

// Band edges in lux. A shaded windowsill sits below mediumLightFrom; direct
// sun through glass is well above highLightFrom.
const (
	mediumLightFrom = 200
	highLightFrom   = 2500
)

func CategoryFor(lux float64) LightCategory {
	switch {
	case lux < mediumLightFrom:
		return LowLight
	case lux < highLightFrom:
		return MediumLight
	default:
		return HighLight
	}
}
