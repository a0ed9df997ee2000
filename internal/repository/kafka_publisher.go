package repository

import (
	"context"

	"snowroll/internal/domain/models"
	domrepo "snowroll/internal/domain/repository"
	pkgkafka "snowroll/pkg/kafka"
)

// KafkaEventPublisher emits ingestion events keyed by symbol so per-symbol
// ordering survives partitioning.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) domrepo.EventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, event models.IngestionEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(event.Symbol), event)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopEventPublisher is used when event publishing is disabled.
type NopEventPublisher struct{}

func (NopEventPublisher) Publish(ctx context.Context, event models.IngestionEvent) error { return nil }

func (NopEventPublisher) Close() error { return nil }
