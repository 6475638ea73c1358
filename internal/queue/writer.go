package queue

import (
	"time"

	"github.com/segmentio/kafka-go"
)

// NewWriter creates a Kafka writer for the deferred-processing topic. Writes
// flush per message: the webhook hot path publishes exactly one small message
// and cannot sit out a batching window.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
	}
}
