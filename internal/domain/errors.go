package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLux indicates lux value is invalid
	ErrInvalidLux = errors.New("lux value cannot be negative")

	// ErrReadingNotFound indicates requested reading doesn't exist
	ErrReadingNotFound = errors.New("reading not found")

	// ErrSensorUnavailable indicates sensor cannot be read
	ErrSensorUnavailable = errors.New("sensor unavailable")

	// ErrNotImplemented is returned by drivers that exist only as placeholders
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnknownSensorType indicates a sensor type outside the supported set
	ErrUnknownSensorType = errors.New("unknown sensor type")

	// ErrUnknownPlantType indicates a plant missing from the plant catalogue
	ErrUnknownPlantType = errors.New("unknown plant type")

	// ErrInvalidPlant indicates plant parameters that cannot be scheduled
	ErrInvalidPlant = errors.New("invalid plant")
)

// TransportError is a failed exchange with a device (I2C transaction, LED frame write).
type TransportError struct {
	Op   string
	Addr uint16
	Err  error
}

func (e *TransportError) Error() string {
	if e.Addr != 0 {
		return fmt.Sprintf("transport: %s (addr 0x%02x): %v", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ConfigurationError reports a setting that cannot be turned into a working controller.
type ConfigurationError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("configuration: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("configuration: %s=%q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// UnspecifiedError wraps failures that fit no other category.
type UnspecifiedError struct {
	Err error
}

func (e *UnspecifiedError) Error() string { return "unspecified: " + e.Err.Error() }

func (e *UnspecifiedError) Unwrap() error { return e.Err }

// ErrorKind is the coarse category used in logs and metric labels.
type ErrorKind string

const (
	KindNone          ErrorKind = ""
	KindTransport     ErrorKind = "transport"
	KindConfiguration ErrorKind = "configuration"
	KindUnspecified   ErrorKind = "unspecified"
)

// Classify maps err onto the error taxonomy.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var te *TransportError
	if errors.As(err, &te) {
		return KindTransport
	}
	var ce *ConfigurationError
	if errors.As(err, &ce) {
		return KindConfiguration
	}
	return KindUnspecified
}
