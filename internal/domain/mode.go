package domain

import (
	"fmt"
	"strings"
	"time"
)

// MeasurementMode selects resolution and continuity of a lux measurement.
// The values are the BH1750 opcodes, which double as the canonical encoding.
type MeasurementMode uint8

const (
	ContinuousHighRes  MeasurementMode = 0x10
	ContinuousHighRes2 MeasurementMode = 0x11
	ContinuousLowRes   MeasurementMode = 0x13
	OneTimeHighRes     MeasurementMode = 0x20
	OneTimeHighRes2    MeasurementMode = 0x21
	OneTimeLowRes      MeasurementMode = 0x23
)

var modeNames = map[MeasurementMode]string{
	ContinuousHighRes:  "continuous_high_res",
	ContinuousHighRes2: "continuous_high_res2",
	ContinuousLowRes:   "continuous_low_res",
	OneTimeHighRes:     "one_time_high_res",
	OneTimeHighRes2:    "one_time_high_res2",
	OneTimeLowRes:      "one_time_low_res",
}

func (m MeasurementMode) String() string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("mode(0x%02x)", uint8(m))
}

func (m MeasurementMode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// LowRes reports whether m is a 4 lx resolution mode.
func (m MeasurementMode) LowRes() bool {
	return m == ContinuousLowRes || m == OneTimeLowRes
}

// HalfLux reports whether m is a 0.5 lx resolution mode.
func (m MeasurementMode) HalfLux() bool {
	return m == ContinuousHighRes2 || m == OneTimeHighRes2
}

// MaxMeasurementTime is the worst-case conversion time at the default
// measurement time register.
func (m MeasurementMode) MaxMeasurementTime() time.Duration {
	if m.LowRes() {
		return 24 * time.Millisecond
	}
	return 180 * time.Millisecond
}

// ParseMeasurementMode accepts a mode name; empty selects ContinuousHighRes.
func ParseMeasurementMode(s string) (MeasurementMode, error) {
	if s == "" {
		return ContinuousHighRes, nil
	}
	for m, n := range modeNames {
		if strings.EqualFold(n, s) {
			return m, nil
		}
	}
	return 0, &ConfigurationError{Field: "sensor_mode", Value: s, Err: fmt.Errorf("unknown measurement mode")}
}
