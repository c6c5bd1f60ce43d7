// Package relay switches a grow light through a relay or MOSFET on a single
// GPIO output. The light is either fully on or off, so colors collapse to
// "any light" versus black.
package relay

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
)

// DefaultPin is the BCM pin the light is usually wired to.
const DefaultPin = "GPIO18"

// Light is a binary grow light.
type Light struct {
	pin       gpio.PinOut
	activeLow bool
	on        bool
	sleep     func(ctx context.Context, d time.Duration) error
}

// Open looks up a pin by name in the periph.io registry.
func Open(name string, activeLow bool) (*Light, error) {
	if name == "" {
		name = DefaultPin
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, &domain.ConfigurationError{Field: "led_pin", Value: name, Err: fmt.Errorf("no such gpio")}
	}
	return New(p, activeLow), nil
}

// New wraps an output pin. activeLow inverts the drive level for relay
// boards that switch on a low input.
func New(pin gpio.PinOut, activeLow bool) *Light {
	return &Light{
		pin:       pin,
		activeLow: activeLow,
		sleep:     sleepContext,
	}
}

func (l *Light) String() string {
	return fmt.Sprintf("Relay(%s)", l.pin)
}

// IsOn reports the last level successfully driven.
func (l *Light) IsOn() bool {
	return l.on
}

func (l *Light) TurnOn(ctx context.Context, color domain.Color) error {
	return l.SetColor(ctx, color)
}

func (l *Light) TurnOff(ctx context.Context) error {
	return l.SetColor(ctx, domain.Black)
}

// SetColor drives the pin on for any non-black color.
func (l *Light) SetColor(ctx context.Context, color domain.Color) error {
	on := !color.IsOff()
	level := gpio.Level(on != l.activeLow)
	if err := l.pin.Out(level); err != nil {
		return &domain.TransportError{Op: "gpio_out", Err: err}
	}
	l.on = on
	return nil
}

// TransitionColor cannot fade; it holds start for duration, then applies end.
func (l *Light) TransitionColor(ctx context.Context, start, end domain.Color, duration time.Duration) error {
	if err := l.SetColor(ctx, start); err != nil {
		return err
	}
	if err := l.sleep(ctx, duration); err != nil {
		return err
	}
	return l.SetColor(ctx, end)
}

// Halt drives the light off and releases the pin.
func (l *Light) Halt() error {
	if err := l.TurnOff(context.Background()); err != nil {
		return err
	}
	return l.pin.Halt()
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
