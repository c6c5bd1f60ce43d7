// Package neopixel drives an addressable WS281x (NeoPixel) LED strip as a
// grow light.
package neopixel

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/nrzled"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
)

// TransitionSteps is the number of interpolation steps in TransitionColor.
const TransitionSteps = 100

// PixelWriter accepts a full frame of packed RGB bytes. *nrzled.Dev
// satisfies it.
type PixelWriter interface {
	Write(pixels []byte) (int, error)
	Halt() error
}

// Strip is a grow light made of identical addressable pixels.
type Strip struct {
	dev       PixelWriter
	numPixels int
	frame     []byte
	current   domain.Color

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New wraps an already opened pixel device.
func New(dev PixelWriter, numPixels int) (*Strip, error) {
	if numPixels <= 0 {
		return nil, &domain.ConfigurationError{Field: "led_count", Value: fmt.Sprint(numPixels), Err: fmt.Errorf("must be positive")}
	}
	return &Strip{
		dev:       dev,
		numPixels: numPixels,
		frame:     make([]byte, numPixels*3),
		now:       time.Now,
		sleep:     sleepContext,
	}, nil
}

// NewSPI opens a WS281x strip wired to the MOSI line of an SPI port.
func NewSPI(port spi.Port, numPixels int) (*Strip, error) {
	opts := nrzled.DefaultOpts
	opts.NumPixels = numPixels
	opts.Channels = 3
	dev, err := nrzled.NewSPI(port, &opts)
	if err != nil {
		return nil, &domain.TransportError{Op: "open_strip", Err: err}
	}
	return New(dev, numPixels)
}

func (s *Strip) String() string {
	return fmt.Sprintf("NeoPixel(%d)", s.numPixels)
}

// Current is the color last written to the strip.
func (s *Strip) Current() domain.Color {
	return s.current
}

func (s *Strip) TurnOn(ctx context.Context, color domain.Color) error {
	return s.SetColor(ctx, color)
}

func (s *Strip) TurnOff(ctx context.Context) error {
	return s.SetColor(ctx, domain.Black)
}

// SetColor writes color to every pixel in one frame.
func (s *Strip) SetColor(ctx context.Context, color domain.Color) error {
	for i := 0; i < s.numPixels; i++ {
		s.frame[3*i] = color.R
		s.frame[3*i+1] = color.G
		s.frame[3*i+2] = color.B
	}
	if _, err := s.dev.Write(s.frame); err != nil {
		return &domain.TransportError{Op: "write_frame", Err: err}
	}
	s.current = color
	return nil
}

// TransitionColor interpolates linearly from start to end in TransitionSteps
// steps. Time spent writing a frame is subtracted from the following delay
// so the whole fade stays close to duration.
func (s *Strip) TransitionColor(ctx context.Context, start, end domain.Color, duration time.Duration) error {
	delay := duration / TransitionSteps

	for step := 0; step <= TransitionSteps; step++ {
		ratio := float64(step) / TransitionSteps
		color := start.Lerp(end, ratio)

		began := s.now()
		if err := s.SetColor(ctx, color); err != nil {
			return err
		}
		if step == TransitionSteps {
			break
		}

		wait := delay - s.now().Sub(began)
		if wait < 0 {
			wait = 0
		}
		if err := s.sleep(ctx, wait); err != nil {
			return err
		}
	}
	return nil
}

// Halt blanks the strip and releases the device.
func (s *Strip) Halt() error {
	return s.dev.Halt()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
