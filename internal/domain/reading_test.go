package domain

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestNewLightReading(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		lux     float64
		wantErr bool
	}{
		{name: "overcast", lux: 1500},
		{name: "night is zero, not an error", lux: 0},
		{name: "saturated sensor", lux: 54612.5},
		{name: "negative lux is rejected", lux: -10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reading, err := NewLightReading(tt.lux, at)

			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLux) {
					t.Errorf("expected ErrInvalidLux, got %v", err)
				}
				if reading != nil {
					t.Errorf("expected no reading, got %+v", reading)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if reading.Lux != tt.lux {
				t.Errorf("expected lux %v, got %v", tt.lux, reading.Lux)
			}
			if !reading.Timestamp.Equal(at) {
				t.Errorf("expected timestamp %v, got %v", at, reading.Timestamp)
			}
			if reading.Accumulated != 0 || reading.Supplementing {
				t.Errorf("controller fields should start empty, got %+v", reading)
			}
		})
	}
}

func TestCategoryFor(t *testing.T) {
	tests := []struct {
		lux  float64
		want LightCategory
	}{
		{lux: 0, want: LowLight},
		{lux: 199.9, want: LowLight},
		{lux: 200, want: MediumLight},
		{lux: 2499, want: MediumLight},
		{lux: 2500, want: HighLight},
		{lux: 100000, want: HighLight},
	}

	for _, tt := range tests {
		if got := CategoryFor(tt.lux); got != tt.want {
			t.Errorf("CategoryFor(%v) = %q, want %q", tt.lux, got, tt.want)
		}
		r := LightReading{Lux: tt.lux}
		if got := r.Category(); got != tt.want {
			t.Errorf("Category() = %q, want %q for lux %v", got, tt.want, tt.lux)
		}
	}
}

func TestLightReading_FootCandles(t *testing.T) {
	r := LightReading{Lux: 1076.39}
	if fc := r.FootCandles(); math.Abs(fc-100) > 1e-9 {
		t.Errorf("FootCandles() = %v, want 100", fc)
	}
}
