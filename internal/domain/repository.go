package domain

import (
	"context"
	"time"
)

// ReadingRepository is the reading log. The controller only appends to it;
// it never restores state from it.
type ReadingRepository interface {
	// SaveReading persists a reading and assigns its ID
	SaveReading(ctx context.Context, reading *LightReading) error

	// GetReading retrieves a specific reading by ID
	GetReading(ctx context.Context, id int64) (*LightReading, error)

	// GetReadingsInRange retrieves all readings within time range.
	// Uses a half-open interval: inclusive start, exclusive end [start, end).
	GetReadingsInRange(ctx context.Context, start, end time.Time) ([]*LightReading, error)

	// GetLatestReading retrieves the most recent reading
	GetLatestReading(ctx context.Context) (*LightReading, error)

	// DeleteOldReadings removes readings taken before cutoff
	DeleteOldReadings(ctx context.Context, cutoff time.Time) error
}
