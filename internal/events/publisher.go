// Package events publishes segment snapshots to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"live-transcript-service/internal/models"
	"live-transcript-service/internal/observability/metrics"
)

// messageWriter is satisfied by *kafka.Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher publishes segment updates and closed segments to separate Kafka topics.
// Messages are keyed by channel so updates for one call stay in order on a partition.
type Publisher struct {
	writerUpdates messageWriter
	writerClosed  messageWriter
	principal     string
	topicUpdates  string
	topicClosed   string
	enabled       bool
	metrics       *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers      []string
	TopicUpdates string
	TopicClosed  string
	Principal    string
	Enabled      bool
}

// New creates a Kafka publisher. A nil or disabled config yields a log-only publisher.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{metrics: m}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:    cfg.Principal,
			topicUpdates: cfg.TopicUpdates,
			topicClosed:  cfg.TopicClosed,
			metrics:      m,
		}
	}

	// Longer dial timeout for DNS resolution in Kubernetes
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicUpdates", cfg.TopicUpdates).
		Str("topicClosed", cfg.TopicClosed).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerUpdates: newWriter(cfg.Brokers, cfg.TopicUpdates, transport),
		writerClosed:  newWriter(cfg.Brokers, cfg.TopicClosed, transport),
		principal:     cfg.Principal,
		topicUpdates:  cfg.TopicUpdates,
		topicClosed:   cfg.TopicClosed,
		enabled:       true,
		metrics:       m,
	}
}

func newWriter(brokers []string, topic string, transport *kafka.Transport) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}
}

// PublishSegment routes a snapshot to the closed topic once the segment is closed,
// otherwise to the updates topic.
func (p *Publisher) PublishSegment(ctx context.Context, update models.SegmentUpdate) error {
	if update.Closed {
		return p.PublishClosed(ctx, update.ChannelID, update)
	}
	return p.PublishUpdate(ctx, update.ChannelID, update)
}

// PublishUpdate publishes an open-segment snapshot to the updates topic.
func (p *Publisher) PublishUpdate(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerUpdates, p.topicUpdates, models.EventTypeSegmentUpdated, key, event)
}

// PublishClosed publishes a closed segment to the closed topic.
func (p *Publisher) PublishClosed(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerClosed, p.topicClosed, models.EventTypeSegmentClosed, key, event)
}

func (p *Publisher) publish(ctx context.Context, writer messageWriter, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var errs []error
	if p.writerUpdates != nil {
		if err := p.writerUpdates.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing updates writer")
			errs = append(errs, err)
		}
	}
	if p.writerClosed != nil {
		if err := p.writerClosed.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing closed-segment writer")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
