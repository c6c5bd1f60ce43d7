package domain

import "time"

// LuxPerFootCandle is the illuminance of one foot-candle expressed in lux.
const LuxPerFootCandle = 10.7639

// FootCandlesToLux converts an illuminance or a dose from foot-candles to lux.
func FootCandlesToLux(fc float64) float64 {
	return fc * LuxPerFootCandle
}

// LuxToFootCandles converts an illuminance or a dose from lux to foot-candles.
func LuxToFootCandles(lux float64) float64 {
	return lux / LuxPerFootCandle
}

// Dose integrates a constant illuminance over d, in lux-hours.
func Dose(lux float64, d time.Duration) float64 {
	return lux * d.Hours()
}
