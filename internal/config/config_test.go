package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const catalogue = `{
	"basil":  {"lux_hours": 180000, "max_sunlight_length": 14, "rest_time": 8, "color": [255, 60, 200]},
	"fern":   {"required_light_dose": 1000, "unit": "foot-candle-hours", "max_sunlight_length": 10, "rest_time": 12},
	"cactus": {"max_sunlight_length": 12, "rest_time": 6},
	"weird":  {"lux_hours": 10, "unit": "lumens"},
	"long":   {"lux_hours": 10, "max_sunlight_length": 20, "rest_time": 6},
	"tint":   {"lux_hours": 10, "color": [0, 300, 0]}
}`

func TestLoadSettings_Defaults(t *testing.T) {
	path := writeFile(t, "settings.json", `{"sensor_type": "BH1750", "plant_type": "basil"}`)

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "BH1750", s.SensorType)
	assert.Equal(t, DefaultLatitude, *s.Latitude)
	assert.Equal(t, DefaultLongitude, *s.Longitude)
	assert.Equal(t, DriverRelay, s.LEDDriver)
	assert.Equal(t, defaultLEDCount, s.LEDCount)
	assert.Equal(t, domain.ContinuousHighRes, s.Mode())
	assert.Zero(t, s.Fade())

	loc, err := s.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoadSettings_Full(t *testing.T) {
	path := writeFile(t, "settings.json", `{
		"sensor_type": "bh1750",
		"plant_type": "fern",
		"latitude": 0,
		"longitude": 10.5,
		"timezone": "UTC",
		"sensor_mode": "one_time_high_res2",
		"measurement_time": 120,
		"calibration": 1.1,
		"led_driver": "NeoPixel",
		"led_count": 60,
		"spi_port": "/dev/spidev0.0",
		"fade_seconds": 2.5,
		"poll_interval": "30s",
		"window": 600
	}`)

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, 0.0, *s.Latitude, "explicit zero is kept")
	assert.Equal(t, 10.5, *s.Longitude)
	assert.Equal(t, domain.OneTimeHighRes2, s.Mode())
	assert.Equal(t, uint8(120), s.MeasurementTime)
	assert.Equal(t, DriverNeoPixel, s.LEDDriver)
	assert.Equal(t, 60, s.LEDCount)
	assert.Equal(t, 2500*time.Millisecond, s.Fade())
	assert.Equal(t, 30*time.Second, time.Duration(s.PollInterval))
	assert.Equal(t, 10*time.Minute, time.Duration(s.Window))

	loc, err := s.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadSettings_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing sensor", `{"plant_type": "basil"}`, "sensor_type"},
		{"missing plant", `{"sensor_type": "BH1750"}`, "plant_type"},
		{"bad mode", `{"sensor_type": "BH1750", "plant_type": "basil", "sensor_mode": "turbo"}`, "sensor_mode"},
		{"bad driver", `{"sensor_type": "BH1750", "plant_type": "basil", "led_driver": "dmx"}`, "led_driver"},
		{"negative fade", `{"sensor_type": "BH1750", "plant_type": "basil", "fade_seconds": -1}`, "fade_seconds"},
		{"bad zone", `{"sensor_type": "BH1750", "plant_type": "basil", "timezone": "Mars/Olympus"}`, "timezone"},
		{"not json", `sensor_type: BH1750`, "settings_file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSettings(writeFile(t, "settings.json", tt.body))
			var cfgErr *domain.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestLoadSettings_MissingFile(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "nope.json"))
	assert.Equal(t, domain.KindConfiguration, domain.Classify(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadPlant(t *testing.T) {
	path := writeFile(t, "plant_config.json", catalogue)

	basil, err := LoadPlant(path, "basil")
	require.NoError(t, err)
	assert.Equal(t, "basil", basil.Name())
	assert.Equal(t, 180000.0, basil.RequiredDose())
	assert.Equal(t, 14*time.Hour, basil.MaxSunlightLength())
	assert.Equal(t, 8*time.Hour, basil.RestTime())
	assert.Equal(t, domain.Color{R: 255, G: 60, B: 200}, basil.Color())

	fern, err := LoadPlant(path, "fern")
	require.NoError(t, err)
	assert.InDelta(t, 10763.9, fern.RequiredDose(), 1e-6)
	assert.Equal(t, domain.White, fern.Color())
}

func TestLoadPlant_Errors(t *testing.T) {
	path := writeFile(t, "plant_config.json", catalogue)

	_, err := LoadPlant(path, "orchid")
	assert.ErrorIs(t, err, domain.ErrUnknownPlantType)
	assert.Equal(t, domain.KindConfiguration, domain.Classify(err))

	for _, name := range []string{"cactus", "weird", "long", "tint"} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadPlant(path, name)
			assert.ErrorIs(t, err, domain.ErrInvalidPlant)
			assert.Equal(t, domain.KindConfiguration, domain.Classify(err))
		})
	}
}
