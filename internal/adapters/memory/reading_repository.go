package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
)

// ReadingRepository implements domain.ReadingRepository in memory. The log is
// lost on restart, which suits the controller's no-persistence default.
//
// Readings are kept sorted by (Timestamp, ID). The loop appends in time
// order, so saves are amortised O(1) and range queries are binary searches.
type ReadingRepository struct {
	mu       sync.RWMutex
	readings []domain.LightReading
	nextID   int64
}

func NewReadingRepository() *ReadingRepository {
	return &ReadingRepository{nextID: 1}
}

// SaveReading stores a copy of reading, assigning an ID when it has none.
// Saving an existing ID replaces that reading.
func (r *ReadingRepository) SaveReading(ctx context.Context, reading *domain.LightReading) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if reading.ID == 0 {
		reading.ID = r.nextID
		r.nextID++
	} else {
		if i := r.indexOf(reading.ID); i >= 0 {
			r.readings = append(r.readings[:i], r.readings[i+1:]...)
		}
		if reading.ID >= r.nextID {
			r.nextID = reading.ID + 1
		}
	}

	i := sort.Search(len(r.readings), func(i int) bool {
		return after(r.readings[i], *reading)
	})
	r.readings = append(r.readings, domain.LightReading{})
	copy(r.readings[i+1:], r.readings[i:])
	r.readings[i] = *reading
	return nil
}

func (r *ReadingRepository) GetReading(ctx context.Context, id int64) (*domain.LightReading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, domain.ErrReadingNotFound
	}
	reading := r.readings[i]
	return &reading, nil
}

// GetReadingsInRange returns all readings in [start, end), oldest first
func (r *ReadingRepository) GetReadingsInRange(ctx context.Context, start, end time.Time) ([]*domain.LightReading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lo := r.firstAtOrAfter(start)
	hi := r.firstAtOrAfter(end)
	if hi <= lo {
		return nil, nil
	}

	results := make([]*domain.LightReading, 0, hi-lo)
	for _, reading := range r.readings[lo:hi] {
		reading := reading
		results = append(results, &reading)
	}
	return results, nil
}

func (r *ReadingRepository) GetLatestReading(ctx context.Context) (*domain.LightReading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.readings) == 0 {
		return nil, domain.ErrReadingNotFound
	}
	latest := r.readings[len(r.readings)-1]
	return &latest, nil
}

// DeleteOldReadings removes readings taken before cutoff
func (r *ReadingRepository) DeleteOldReadings(ctx context.Context, cutoff time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.firstAtOrAfter(cutoff)
	r.readings = append(r.readings[:0], r.readings[i:]...)
	return nil
}

// Len reports how many readings are held.
func (r *ReadingRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.readings)
}

func (r *ReadingRepository) Close() error {
	return nil
}

func (r *ReadingRepository) indexOf(id int64) int {
	for i := range r.readings {
		if r.readings[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *ReadingRepository) firstAtOrAfter(t time.Time) int {
	return sort.Search(len(r.readings), func(i int) bool {
		return !r.readings[i].Timestamp.Before(t)
	})
}

// after orders readings by timestamp, then ID.
func after(a, b domain.LightReading) bool {
	if a.Timestamp.Equal(b.Timestamp) {
		return a.ID > b.ID
	}
	return a.Timestamp.After(b.Timestamp)
}
