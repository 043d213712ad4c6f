package forward

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/model"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

var (
	ErrBrokerRequired = errors.New("forward: mqtt broker required")
	ErrInvalidQoS     = errors.New("forward: mqtt qos must be 0, 1 or 2")
	ErrPublishTimeout = errors.New("forward: mqtt publish timeout")
	ErrNotConnected   = errors.New("forward: mqtt client not connected")
	ErrConnectTimeout = errors.New("forward: mqtt connect timeout")
)

// MQTTConfig selects the broker and topic layout for forwarded readings.
type MQTTConfig struct {
	Broker         string
	ClientID       string
	TopicPrefix    string
	QoS            byte
	Username       string
	Password       string
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

func DefaultMQTTConfig() MQTTConfig {
	return MQTTConfig{
		ClientID:       "ingestd",
		TopicPrefix:    "ingest/readings",
		QoS:            1,
		ConnectTimeout: 5 * time.Second,
		PublishTimeout: 5 * time.Second,
	}
}

func (c MQTTConfig) WithDefaults() MQTTConfig {
	def := DefaultMQTTConfig()
	if strings.TrimSpace(c.ClientID) == "" {
		c.ClientID = def.ClientID
	}
	if strings.TrimSpace(c.TopicPrefix) == "" {
		c.TopicPrefix = def.TopicPrefix
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = def.PublishTimeout
	}
	return c
}

func (c MQTTConfig) Validate() error {
	if strings.TrimSpace(c.Broker) == "" {
		return ErrBrokerRequired
	}
	if c.QoS > 2 {
		return ErrInvalidQoS
	}
	return nil
}

// Message is the JSON body published for each accepted reading.
type Message struct {
	RequestID  string              `json:"request_id"`
	Source     string              `json:"source"`
	ReceivedAt string              `json:"received_at"`
	Reading    model.SensorReading `json:"reading"`
}

// MQTTForwarder publishes each accepted reading to
// <prefix>/<source>/<sensor_id>.
type MQTTForwarder struct {
	cfg    MQTTConfig
	client mqtt.Client
	logger zerolog.Logger
}

// NewMQTT connects to the broker within ConnectTimeout.
func NewMQTT(cfg MQTTConfig, logger zerolog.Logger) (*MQTTForwarder, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Warn().Err(err).Str("broker", cfg.Broker).Msg("forward.mqtt connection lost")
	}
	opts.OnConnect = func(mqtt.Client) {
		logger.Info().Str("broker", cfg.Broker).Msg("forward.mqtt connected")
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, ErrConnectTimeout
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("forward: mqtt connect %s: %w", cfg.Broker, err)
	}
	return newMQTTWithClient(cfg, client, logger), nil
}

func newMQTTWithClient(cfg MQTTConfig, client mqtt.Client, logger zerolog.Logger) *MQTTForwarder {
	return &MQTTForwarder{cfg: cfg.WithDefaults(), client: client, logger: logger}
}

// Forward publishes readings in order and stops at the first failure.
func (f *MQTTForwarder) Forward(ctx context.Context, batch Batch) error {
	if !f.client.IsConnected() {
		return ErrNotConnected
	}
	receivedAt := batch.ReceivedAt.UTC().Format(time.RFC3339Nano)
	for _, reading := range batch.Readings {
		if err := ctx.Err(); err != nil {
			return err
		}
		body, err := json.Marshal(Message{
			RequestID:  batch.RequestID,
			Source:     batch.Source,
			ReceivedAt: receivedAt,
			Reading:    reading,
		})
		if err != nil {
			return fmt.Errorf("forward: encode reading %s: %w", reading.Label(), err)
		}
		topic := Topic(f.cfg.TopicPrefix, batch.Source, reading.SensorID)
		token := f.client.Publish(topic, f.cfg.QoS, false, body)
		if !token.WaitTimeout(f.cfg.PublishTimeout) {
			return fmt.Errorf("%w: topic=%s", ErrPublishTimeout, topic)
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("forward: publish %s: %w", topic, err)
		}
	}
	f.logger.Debug().
		Str("request_id", batch.RequestID).
		Int("readings", len(batch.Readings)).
		Msg("forward.mqtt published")
	return nil
}

func (f *MQTTForwarder) Close() error {
	if f.client != nil && f.client.IsConnected() {
		f.client.Disconnect(250)
	}
	return nil
}

// Topic builds a publish topic. Wildcards and separators inside a segment
// are replaced so one reading always maps to one topic level.
func Topic(prefix, source, sensorID string) string {
	return strings.TrimSuffix(prefix, "/") + "/" + topicSegment(source) + "/" + topicSegment(sensorID)
}

func topicSegment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '+', '#', 0:
			return '_'
		}
		return r
	}, s)
}
