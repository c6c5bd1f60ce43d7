package sun

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
)

func TestSchedule_For(t *testing.T) {
	loc := time.FixedZone("PDT", -7*3600)
	s, err := New(37.7749, -122.4194, loc)
	require.NoError(t, err)

	day := time.Date(2024, 6, 21, 15, 0, 0, 0, loc)
	st, err := s.For(day)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 6, 21, 0, 0, 0, 0, loc), st.Date)
	// San Francisco at the solstice: sunrise ~05:48, sunset ~20:35 local.
	assert.Equal(t, 5, st.Sunrise.Hour())
	assert.Equal(t, 20, st.Sunset.Hour())
	assert.True(t, st.Sunrise.Before(st.MidDay()))
	assert.True(t, st.MidDay().Before(st.Sunset))
	assert.InDelta(t, 14.75, st.DayLength().Hours(), 0.25)

	winter, err := s.For(time.Date(2024, 12, 21, 12, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.Less(t, winter.DayLength(), st.DayLength())
}

func TestSchedule_PolarNight(t *testing.T) {
	s, err := New(78.22, 15.65, time.UTC) // Svalbard
	require.NoError(t, err)

	_, err = s.For(time.Date(2024, 12, 21, 12, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrNoSunrise)
}

func TestNew_InvalidCoordinates(t *testing.T) {
	_, err := New(91, 0, nil)
	assert.Equal(t, domain.KindConfiguration, domain.Classify(err))

	_, err = New(0, -181, nil)
	assert.Equal(t, domain.KindConfiguration, domain.Classify(err))
}
