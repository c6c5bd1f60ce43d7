package domain

import "time"

// DefaultWindow is the width of the sunrise and mid-day decision windows.
const DefaultWindow = 10 * time.Minute

// SunTimes holds the daylight bounds of one local date.
type SunTimes struct {
	Date    time.Time // local midnight of the day these times belong to
	Sunrise time.Time
	Sunset  time.Time
}

// MidDay is the midpoint between sunrise and sunset.
func (s SunTimes) MidDay() time.Time {
	return s.Sunrise.Add(s.Sunset.Sub(s.Sunrise) / 2)
}

// DayLength is the time between sunrise and sunset.
func (s SunTimes) DayLength() time.Duration {
	return s.Sunset.Sub(s.Sunrise)
}

// IsDaylight reports whether at falls between sunrise and sunset.
func (s SunTimes) IsDaylight(at time.Time) bool {
	if s.Sunrise.IsZero() || s.Sunset.IsZero() {
		return false
	}
	return at.After(s.Sunrise) && at.Before(s.Sunset)
}

// InWindow reports whether at lies in the half-open interval of the given
// width centred on event.
func InWindow(at, event time.Time, width time.Duration) bool {
	half := width / 2
	return !at.Before(event.Add(-half)) && at.Before(event.Add(half))
}

// PastWindow reports whether at is at or beyond the end of the window centred on event.
func PastWindow(at, event time.Time, width time.Duration) bool {
	return !at.Before(event.Add(width / 2))
}
