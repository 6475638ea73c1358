package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/sbilibin2017/gw-transaction-webhook/internal/logger"
	"github.com/sbilibin2017/gw-transaction-webhook/internal/models"
)

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// TaskPool runs deferred tasks in-process when the queue is unreachable.
type TaskPool interface {
	Submit(task func(ctx context.Context) error) error // Starts the task on a free worker
}

// JobProcessor executes deferred processing for one transaction.
type JobProcessor interface {
	ProcessWithRetry(ctx context.Context, transactionID string) error // Runs the bounded retry loop for the id
}

// QueueDispatcher publishes deferred-processing jobs to Kafka and falls back
// to the local worker pool when the broker is unreachable. The fallback is
// degraded-mode operation: tasks live only in this process and are lost on a
// crash; cross-process durability returns with the queue.
type QueueDispatcher struct {
	kafkaWriter    KafkaWriter
	pool           TaskPool
	processor      JobProcessor
	enqueueTimeout time.Duration
}

// NewQueueDispatcher creates a new QueueDispatcher.
func NewQueueDispatcher(
	kafkaWriter KafkaWriter,
	pool TaskPool,
	processor JobProcessor,
	enqueueTimeout time.Duration,
) *QueueDispatcher {
	return &QueueDispatcher{
		kafkaWriter:    kafkaWriter,
		pool:           pool,
		processor:      processor,
		enqueueTimeout: enqueueTimeout,
	}
}

// Dispatch schedules deferred processing for an accepted transaction. It
// never reports failure upward: every failure path here either hands the job
// to the fallback pool or logs a dropped job, leaving the record PROCESSING
// for monitoring to catch. A timed-out publish can still be delivered later
// and race the fallback task; the terminal-state no-op on transition makes
// the second completion harmless.
func (d *QueueDispatcher) Dispatch(ctx context.Context, transactionID string) {
	if d.publish(ctx, transactionID) {
		return
	}
	d.fallback(transactionID)
}

// publish attempts the Kafka write within the enqueue timeout. false means
// the job still needs a home.
func (d *QueueDispatcher) publish(ctx context.Context, transactionID string) bool {
	if d.kafkaWriter == nil {
		logger.Log.Warnw("Kafka writer not configured, skipping publishing", "transaction_id", transactionID)
		return false
	}

	data, err := json.Marshal(models.ProcessingJob{TransactionID: transactionID})
	if err != nil {
		logger.Log.Errorw("Failed to marshal processing job", "transaction_id", transactionID, "error", err)
		return false
	}

	publishCtx := ctx
	if d.enqueueTimeout > 0 {
		var cancel context.CancelFunc
		publishCtx, cancel = context.WithTimeout(ctx, d.enqueueTimeout)
		defer cancel()
	}

	msg := kafka.Message{
		Key:   []byte(transactionID),
		Value: data,
	}

	if err := d.kafkaWriter.WriteMessages(publishCtx, msg); err != nil {
		logger.Log.Errorw("Failed to publish processing job to Kafka", "transaction_id", transactionID, "error", err)
		return false
	}

	logger.Log.Infow("Processing job published to Kafka", "transaction_id", transactionID)
	return true
}

func (d *QueueDispatcher) fallback(transactionID string) {
	if d.pool == nil || d.processor == nil {
		logger.Log.Errorw("No fallback pool configured, job dropped", "transaction_id", transactionID)
		return
	}

	logger.Log.Warnw("Queue unreachable, running deferred processing on the local pool", "transaction_id", transactionID)

	err := d.pool.Submit(func(ctx context.Context) error {
		return d.processor.ProcessWithRetry(ctx, transactionID)
	})
	if err != nil {
		logger.Log.Errorw("Failed to submit fallback task, job dropped", "transaction_id", transactionID, "error", err)
	}
}
