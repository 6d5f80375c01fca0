package events

import (
	"context"
	"encoding/json"
	"time"

	"creativerse/internal/domain/model"
	"creativerse/internal/platform/logger"
	"creativerse/internal/platform/metrics"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const publishTimeout = 5 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes domain events to one topic per event type, keyed by contest.
type KafkaPublisher struct {
	writer  messageWriter
	prefix  string
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewKafkaPublisher(brokers []string, topicPrefix string, m *metrics.Metrics) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return newKafkaPublisher(w, topicPrefix, m)
}

func newKafkaPublisher(w messageWriter, topicPrefix string, m *metrics.Metrics) *KafkaPublisher {
	return &KafkaPublisher{
		writer:  w,
		prefix:  topicPrefix,
		metrics: m,
		logger:  logger.Component("kafka"),
	}
}

func (p *KafkaPublisher) Topic(eventType string) string {
	if p.prefix == "" {
		return eventType
	}
	return p.prefix + "." + eventType
}

// Publish never fails the caller; the event has already been committed.
func (p *KafkaPublisher) Publish(ctx context.Context, evt model.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		p.logger.Error().Err(err).Str("type", evt.Type).Msg("Failed to serialize event")
		p.metrics.IncEvent("kafka", "error")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.Topic(evt.Type),
		Key:   []byte(evt.ContestID),
		Value: data,
		Time:  evt.OccurredAt,
	})
	if err != nil {
		p.logger.Error().Err(err).Str("type", evt.Type).Str("eventId", evt.ID).Msg("Failed to write event to Kafka")
		p.metrics.IncEvent("kafka", "error")
		return
	}
	p.metrics.IncEvent("kafka", "ok")
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
