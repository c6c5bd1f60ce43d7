// Package sun computes daylight bounds for a fixed location.
package sun

import (
	"errors"
	"fmt"
	"time"

	"github.com/nathan-osman/go-sunrise"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
)

// ErrNoSunrise is returned for polar days and nights.
var ErrNoSunrise = errors.New("sun does not rise and set on this date")

// Schedule computes sunrise and sunset from latitude and longitude.
type Schedule struct {
	lat, lon float64
	loc      *time.Location
}

// New validates the coordinates. loc is the zone the controller's clock runs
// in; nil means time.Local.
func New(lat, lon float64, loc *time.Location) (*Schedule, error) {
	if lat < -90 || lat > 90 {
		return nil, &domain.ConfigurationError{Field: "latitude", Value: fmt.Sprint(lat), Err: errors.New("out of range")}
	}
	if lon < -180 || lon > 180 {
		return nil, &domain.ConfigurationError{Field: "longitude", Value: fmt.Sprint(lon), Err: errors.New("out of range")}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Schedule{lat: lat, lon: lon, loc: loc}, nil
}

// For returns sun times for the local date containing day.
func (s *Schedule) For(day time.Time) (domain.SunTimes, error) {
	y, m, d := day.In(s.loc).Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, s.loc)

	rise, set := sunrise.SunriseSunset(s.lat, s.lon, y, m, d)
	if rise.IsZero() || set.IsZero() {
		return domain.SunTimes{Date: date}, fmt.Errorf("%s: %w", date.Format(time.DateOnly), ErrNoSunrise)
	}

	return domain.SunTimes{
		Date:    date,
		Sunrise: rise.In(s.loc),
		Sunset:  set.In(s.loc),
	}, nil
}
