package ports

import (
	"time"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
)

// SunSchedule provides sunrise and sunset for a calendar date at a fixed place
type SunSchedule interface {
	// For returns the sun times of the local date containing day
	For(day time.Time) (domain.SunTimes, error)
}
