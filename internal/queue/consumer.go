package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/sbilibin2017/gw-transaction-webhook/internal/logger"
	"github.com/sbilibin2017/gw-transaction-webhook/internal/models"
)

// commitTimeout bounds offset commits, which run on their own context so an
// already-handled job is still committed during shutdown.
const commitTimeout = 10 * time.Second

// MessageReader is the consumer-group surface of kafka.Reader used by Consumer.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)         // Blocks until the next message or ctx ends
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error // Marks messages consumed for the group
	Close() error                                                    // Closes the reader
}

// JobProcessor executes deferred processing for one transaction.
type JobProcessor interface {
	ProcessWithRetry(ctx context.Context, transactionID string) error // Runs the bounded retry loop for the id
}

// NewReader creates a consumer-group reader for the deferred-processing
// topic. Jobs are single small messages, so the reader does not wait to fill
// a batch.
func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})
}

// Consumer pulls deferred-processing jobs from the queue and runs them
// through the processor. Offsets are committed after handling, making
// delivery at-least-once; redelivered jobs land on the store's
// terminal-state no-op.
type Consumer struct {
	reader     MessageReader
	processor  JobProcessor
	jobTimeout time.Duration
}

// NewConsumer creates a new Consumer.
func NewConsumer(reader MessageReader, processor JobProcessor, jobTimeout time.Duration) *Consumer {
	return &Consumer{
		reader:     reader,
		processor:  processor,
		jobTimeout: jobTimeout,
	}
}

// Run consumes until ctx ends, returning nil on a clean shutdown. ctx only
// gates fetching: a job picked up before shutdown runs to completion on its
// own bounded context and its offset is still committed.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				logger.Log.Infow("Consumer stopping", "reason", err)
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		c.handle(msg)

		commitCtx, cancel := context.WithTimeout(context.Background(), commitTimeout)
		if err := c.reader.CommitMessages(commitCtx, msg); err != nil {
			// The job already ran; losing the commit only means a redelivery
			// that the terminal-state no-op absorbs.
			logger.Log.Errorw("Failed to commit message", "partition", msg.Partition, "offset", msg.Offset, "error", err)
		}
		cancel()
	}
}

// handle decodes and processes one message. Malformed payloads are skipped;
// their offsets still commit, so a poison message cannot wedge the partition.
// Processor errors are final here as well: the retry loop already ran inside,
// and requeueing an exhausted job would loop it forever.
func (c *Consumer) handle(msg kafka.Message) {
	var job models.ProcessingJob
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		logger.Log.Errorw("Malformed job payload, skipping", "partition", msg.Partition, "offset", msg.Offset, "error", err)
		return
	}
	if job.TransactionID == "" {
		logger.Log.Errorw("Job payload has no transaction id, skipping", "partition", msg.Partition, "offset", msg.Offset)
		return
	}

	jobCtx := context.Background()
	if c.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(jobCtx, c.jobTimeout)
		defer cancel()
	}

	if err := c.processor.ProcessWithRetry(jobCtx, job.TransactionID); err != nil {
		logger.Log.Errorw("Deferred processing failed", "transaction_id", job.TransactionID, "error", err)
	}
}
