package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// KafkaWriter abstracts the kafka-go writer for testability
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DeadLetterPublisher routes undeliverable messages to the DLQ topic
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}
