package influx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
)

type recordingWriter struct {
	points []*write.Point
	err    error
}

func (w *recordingWriter) WritePoint(ctx context.Context, p ...*write.Point) error {
	w.points = append(w.points, p...)
	return w.err
}

func line(p *write.Point) string {
	return write.PointToLineProtocol(p, time.Nanosecond)
}

func TestSink_PublishReading(t *testing.T) {
	w := &recordingWriter{}
	s := NewWithWriter(w, "basil")
	at := time.Unix(1717243200, 0)

	require.NoError(t, s.PublishReading(context.Background(), &domain.LightReading{
		Lux: 850.5, Accumulated: 3.25, Supplementing: true, Timestamp: at,
	}))
	require.Len(t, w.points, 1)

	p := w.points[0]
	assert.Equal(t, ReadingMeasurement, p.Name())
	assert.Equal(t, at, p.Time())
	l := line(p)
	assert.Contains(t, l, "light_reading,plant=basil ")
	assert.Contains(t, l, "lux=850.5")
	assert.Contains(t, l, "accumulated=3.25")
	assert.Contains(t, l, "supplementing=true")
}

func TestSink_PublishEvent(t *testing.T) {
	w := &recordingWriter{}
	s := NewWithWriter(w, "basil")

	require.NoError(t, s.PublishEvent(context.Background(), domain.Event{
		Kind:        domain.EventLightsOut,
		Phase:       domain.PhaseDoneForDay,
		Accumulated: 8,
		Required:    10,
		Timestamp:   time.Unix(1717243200, 0),
	}))
	require.Len(t, w.points, 1)

	l := line(w.points[0])
	assert.Contains(t, l, "controller_event,")
	assert.Contains(t, l, "kind=lights_out")
	assert.Contains(t, l, "phase=done_for_day")
	assert.Contains(t, l, "required=10")
	assert.Contains(t, l, "led_on=false")
}

func TestSink_WriteError(t *testing.T) {
	s := NewWithWriter(&recordingWriter{err: errors.New("401 unauthorized")}, "basil")
	err := s.PublishReading(context.Background(), &domain.LightReading{})
	assert.ErrorContains(t, err, "write light_reading")
	assert.ErrorContains(t, err, "401 unauthorized")
	assert.NoError(t, s.Close())
}

func TestNew_RequiresFullConfig(t *testing.T) {
	_, err := New(Config{URL: "http://localhost:8086"}, "basil")
	assert.Equal(t, domain.KindConfiguration, domain.Classify(err))

	s, err := New(Config{URL: "http://localhost:8086", Token: "t", Org: "o", Bucket: "b"}, "basil")
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}
