// Package config loads the controller settings and the plant catalogue.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
)

const (
	DefaultLatitude  = 37.7749
	DefaultLongitude = -122.4194

	DriverNeoPixel = "neopixel"
	DriverRelay    = "relay"

	UnitLuxHours        = "lux-hours"
	UnitFootCandleHours = "foot-candle-hours"

	defaultLEDCount = 30
)

// Duration accepts either a Go duration string ("90s") or a number of seconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	var secs float64
	if err := json.Unmarshal(b, &secs); err != nil {
		return err
	}
	*d = Duration(secs * float64(time.Second))
	return nil
}

// Settings is the contents of the settings file.
type Settings struct {
	SensorType string `json:"sensor_type"`
	PlantType  string `json:"plant_type"`

	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	// Timezone is an IANA name; empty means the host's local zone.
	Timezone string `json:"timezone"`

	SensorMode      string  `json:"sensor_mode"`
	MeasurementTime uint8   `json:"measurement_time"`
	Calibration     float64 `json:"calibration"`
	I2CBus          string  `json:"i2c_bus"`
	I2CAddress      uint16  `json:"i2c_address"`

	LEDDriver    string  `json:"led_driver"`
	LEDPin       string  `json:"led_pin"`
	LEDActiveLow bool    `json:"led_active_low"`
	LEDCount     int     `json:"led_count"`
	SPIPort      string  `json:"spi_port"`
	FadeSeconds  float64 `json:"fade_seconds"`

	PollInterval Duration `json:"poll_interval"`
	Window       Duration `json:"window"`
}

// LoadSettings reads and validates the settings file, filling defaults.
func LoadSettings(path string) (*Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ConfigurationError{Field: "settings_file", Value: path, Err: err}
	}
	var s Settings
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, &domain.ConfigurationError{Field: "settings_file", Value: path, Err: err}
	}
	if err := s.normalize(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) normalize() error {
	if strings.TrimSpace(s.SensorType) == "" {
		return &domain.ConfigurationError{Field: "sensor_type", Err: errors.New("required")}
	}
	if strings.TrimSpace(s.PlantType) == "" {
		return &domain.ConfigurationError{Field: "plant_type", Err: errors.New("required")}
	}
	if s.Latitude == nil {
		lat := DefaultLatitude
		s.Latitude = &lat
	}
	if s.Longitude == nil {
		lon := DefaultLongitude
		s.Longitude = &lon
	}
	if _, err := domain.ParseMeasurementMode(s.SensorMode); err != nil {
		return err
	}
	if s.Calibration < 0 {
		return &domain.ConfigurationError{Field: "calibration", Value: fmt.Sprint(s.Calibration), Err: errors.New("must be positive")}
	}

	s.LEDDriver = strings.ToLower(strings.TrimSpace(s.LEDDriver))
	switch s.LEDDriver {
	case "":
		s.LEDDriver = DriverRelay
	case DriverRelay, DriverNeoPixel:
	default:
		return &domain.ConfigurationError{Field: "led_driver", Value: s.LEDDriver, Err: errors.New("want neopixel or relay")}
	}
	if s.LEDCount <= 0 {
		s.LEDCount = defaultLEDCount
	}
	if s.FadeSeconds < 0 {
		return &domain.ConfigurationError{Field: "fade_seconds", Value: fmt.Sprint(s.FadeSeconds), Err: errors.New("cannot be negative")}
	}
	if s.PollInterval < 0 {
		return &domain.ConfigurationError{Field: "poll_interval", Value: time.Duration(s.PollInterval).String(), Err: errors.New("cannot be negative")}
	}
	if s.Window < 0 {
		return &domain.ConfigurationError{Field: "window", Value: time.Duration(s.Window).String(), Err: errors.New("cannot be negative")}
	}
	if _, err := s.Location(); err != nil {
		return err
	}
	return nil
}

// Mode is the parsed sensor measurement mode.
func (s *Settings) Mode() domain.MeasurementMode {
	m, _ := domain.ParseMeasurementMode(s.SensorMode)
	return m
}

func (s *Settings) Fade() time.Duration {
	return time.Duration(s.FadeSeconds * float64(time.Second))
}

// Location resolves Timezone.
func (s *Settings) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, &domain.ConfigurationError{Field: "timezone", Value: s.Timezone, Err: err}
	}
	return loc, nil
}

type plantEntry struct {
	LuxHours          *float64 `json:"lux_hours"`
	RequiredLightDose *float64 `json:"required_light_dose"`
	Unit              string   `json:"unit"`
	// Hours.
	MaxSunlightLength float64 `json:"max_sunlight_length"`
	RestTime          float64 `json:"rest_time"`
	Color             []int   `json:"color"`
}

// LoadPlant reads the plant catalogue and builds the entry named plantType.
// Doses given in foot-candle-hours are converted to lux-hours.
func LoadPlant(path, plantType string) (*domain.Plant, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ConfigurationError{Field: "plant_config_file", Value: path, Err: err}
	}
	var catalogue map[string]plantEntry
	if err := json.Unmarshal(b, &catalogue); err != nil {
		return nil, &domain.ConfigurationError{Field: "plant_config_file", Value: path, Err: err}
	}

	entry, ok := catalogue[plantType]
	if !ok {
		return nil, &domain.ConfigurationError{Field: "plant_type", Value: plantType, Err: domain.ErrUnknownPlantType}
	}
	return entry.plant(plantType)
}

func (e plantEntry) plant(name string) (*domain.Plant, error) {
	invalid := func(err error) error {
		return &domain.ConfigurationError{Field: "plant_type", Value: name, Err: err}
	}

	var dose float64
	switch {
	case e.LuxHours != nil:
		dose = *e.LuxHours
	case e.RequiredLightDose != nil:
		dose = *e.RequiredLightDose
	default:
		return nil, invalid(fmt.Errorf("%w: lux_hours or required_light_dose is required", domain.ErrInvalidPlant))
	}

	switch strings.ToLower(e.Unit) {
	case "", UnitLuxHours:
	case UnitFootCandleHours:
		dose = domain.FootCandlesToLux(dose)
	default:
		return nil, invalid(fmt.Errorf("%w: unknown unit %q", domain.ErrInvalidPlant, e.Unit))
	}

	color := domain.White
	if e.Color != nil {
		if len(e.Color) != 3 {
			return nil, invalid(fmt.Errorf("%w: color needs 3 components, got %d", domain.ErrInvalidPlant, len(e.Color)))
		}
		var c [3]uint8
		for i, v := range e.Color {
			if v < 0 || v > 255 {
				return nil, invalid(fmt.Errorf("%w: color component %s out of range", domain.ErrInvalidPlant, strconv.Itoa(v)))
			}
			c[i] = uint8(v)
		}
		color = domain.Color{R: c[0], G: c[1], B: c[2]}
	}

	p, err := domain.NewPlant(name, dose, hours(e.MaxSunlightLength), hours(e.RestTime), color)
	if err != nil {
		return nil, invalid(err)
	}
	return p, nil
}

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
