// Package mqtt publishes readings and controller events to an MQTT broker as
// JSON.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
)

const (
	DefaultTopicPrefix = "growlight"

	connectAttempts   = 5
	connectMaxElapsed = 10 * time.Second
	disconnectQuiesce = 250 // ms
)

type Config struct {
	Broker      string // e.g. tcp://localhost:1883
	ClientID    string
	TopicPrefix string
	User        string
	Password    string
}

// client is the part of paho.Client the sink uses.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// Sink implements ports.TelemetrySink.
type Sink struct {
	client client
	plant  string
	prefix string
}

// Connect dials the broker, retrying with exponential backoff.
func Connect(cfg Config, plant string) (*Sink, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = connectMaxElapsed

	var c paho.Client
	err := backoff.Retry(func() error {
		c = paho.NewClient(opts)
		if token := c.Connect(); token.Wait() && token.Error() != nil {
			log.Warn().Err(token.Error()).Str("broker", cfg.Broker).Msg("mqtt connect failed")
			return token.Error()
		}
		return nil
	}, backoff.WithMaxRetries(bo, connectAttempts-1))
	if err != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", cfg.Broker, err)
	}

	log.Info().Str("broker", cfg.Broker).Msg("connected to mqtt broker")
	return NewSink(c, plant, cfg.TopicPrefix), nil
}

// NewSink wraps an already connected client.
func NewSink(c client, plant, prefix string) *Sink {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return &Sink{client: c, plant: plant, prefix: prefix}
}

type readingMessage struct {
	Plant         string    `json:"plant"`
	Lux           float64   `json:"lux"`
	Accumulated   float64   `json:"accumulated"`
	Supplementing bool      `json:"supplementing"`
	Category      string    `json:"category"`
	Timestamp     time.Time `json:"timestamp"`
}

type eventMessage struct {
	Plant string `json:"plant"`
	domain.Event
}

func (s *Sink) PublishReading(ctx context.Context, r *domain.LightReading) error {
	return s.publish(ctx, "reading", readingMessage{
		Plant:         s.plant,
		Lux:           r.Lux,
		Accumulated:   r.Accumulated,
		Supplementing: r.Supplementing,
		Category:      string(r.Category()),
		Timestamp:     r.Timestamp,
	})
}

func (s *Sink) PublishEvent(ctx context.Context, e domain.Event) error {
	return s.publish(ctx, "event", eventMessage{Plant: s.plant, Event: e})
}

// Topic returns the full topic for a message kind.
func (s *Sink) Topic(kind string) string {
	return s.prefix + "/" + kind
}

func (s *Sink) publish(ctx context.Context, kind string, msg interface{}) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}

	topic := s.Topic(kind)
	token := s.client.Publish(topic, 0, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

func (s *Sink) Close() error {
	if s.client.IsConnected() {
		s.client.Disconnect(disconnectQuiesce)
		log.Info().Msg("mqtt client disconnected")
	}
	return nil
}
