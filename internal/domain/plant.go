package domain

import (
	"fmt"
	"time"
)

// SupplementRatio is the share of the daily dose that must be reached by
// mid-day for the plant to go without supplemental light.
const SupplementRatio = 0.3

// Plant describes the daily light needs of what is being grown.
// Plants are built once from configuration and never modified.
type Plant struct {
	name              string
	requiredDose      float64
	maxSunlightLength time.Duration
	restTime          time.Duration
	color             Color
}

// NewPlant validates the plant parameters. requiredDose is in lux-hours.
func NewPlant(name string, requiredDose float64, maxSunlightLength, restTime time.Duration, color Color) (*Plant, error) {
	if requiredDose <= 0 {
		return nil, fmt.Errorf("%w: required dose must be positive, got %v", ErrInvalidPlant, requiredDose)
	}
	if maxSunlightLength < 0 || restTime < 0 {
		return nil, fmt.Errorf("%w: durations cannot be negative", ErrInvalidPlant)
	}
	if maxSunlightLength+restTime > 24*time.Hour {
		return nil, fmt.Errorf("%w: max sunlight %v plus rest %v exceeds a day", ErrInvalidPlant, maxSunlightLength, restTime)
	}
	if color == Black {
		color = White
	}
	return &Plant{
		name:              name,
		requiredDose:      requiredDose,
		maxSunlightLength: maxSunlightLength,
		restTime:          restTime,
		color:             color,
	}, nil
}

func (p *Plant) Name() string { return p.name }

// RequiredDose is the daily light dose in lux-hours.
func (p *Plant) RequiredDose() float64 { return p.requiredDose }

func (p *Plant) MaxSunlightLength() time.Duration { return p.maxSunlightLength }

func (p *Plant) RestTime() time.Duration { return p.restTime }

// Color is what the grow light shows while supplementing this plant.
func (p *Plant) Color() Color { return p.color }

// NeedsLight reports whether accumulated lux-hours fall short of the daily dose.
func (p *Plant) NeedsLight(accumulated float64) bool {
	return accumulated < p.requiredDose
}

// SupplementThreshold is the exposure that must be reached by mid-day.
func (p *Plant) SupplementThreshold() float64 {
	return p.requiredDose * SupplementRatio
}

// LightsOut is the latest time supplemental light may stay on for a day
// that started at sunrise. A zero MaxSunlightLength means no bound.
func (p *Plant) LightsOut(sunrise time.Time) time.Time {
	if p.maxSunlightLength == 0 {
		return sunrise.Add(24*time.Hour - p.restTime)
	}
	return sunrise.Add(p.maxSunlightLength)
}
