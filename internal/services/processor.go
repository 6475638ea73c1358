package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sbilibin2017/gw-transaction-webhook/internal/logger"
	"github.com/sbilibin2017/gw-transaction-webhook/internal/models"
)

var (
	// ErrRecordMissing is returned when a dispatched job references a
	// transaction that was never stored. Dispatch only happens after a
	// durable insert, so this cannot be fixed by retrying.
	ErrRecordMissing = errors.New("transaction record missing")
)

// failMarkTimeout bounds the best-effort FAILED mark, which runs on its own
// context because the attempt's context may already be expired.
const failMarkTimeout = 5 * time.Second

// TransactionTransitioner applies status transitions.
type TransactionTransitioner interface {
	Transition(ctx context.Context, transactionID string, next models.TransactionStatus, processedAt time.Time) (bool, error) // Moves PROCESSING to a terminal status
}

// TransactionProcessor performs the deferred half of webhook handling: wait
// out the simulated processing delay, then finalize the stored record. It is
// invoked at-least-once per transaction, from queue consumers and fallback
// tasks alike, and relies on the store's terminal-state no-op to make
// repeated invocations harmless.
type TransactionProcessor struct {
	writeRepo   TransactionTransitioner
	readRepo    TransactionReader
	delay       time.Duration
	maxAttempts int
	backoff     time.Duration
}

// NewTransactionProcessor creates a new TransactionProcessor.
func NewTransactionProcessor(
	writeRepo TransactionTransitioner,
	readRepo TransactionReader,
	delay time.Duration,
	maxAttempts int,
	backoff time.Duration,
) *TransactionProcessor {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &TransactionProcessor{
		writeRepo:   writeRepo,
		readRepo:    readRepo,
		delay:       delay,
		maxAttempts: maxAttempts,
		backoff:     backoff,
	}
}

// Process runs a single processing attempt: wait the configured delay, then
// move the transaction to PROCESSED. The delay holds no store resources; the
// record is read only after the timer fires. An already-terminal record is
// left untouched and reported as success. On failure the record is marked
// FAILED best-effort and the error is returned for the retry loop.
func (p *TransactionProcessor) Process(ctx context.Context, transactionID string) error {
	logger.Log.Infow("Processing transaction", "transaction_id", transactionID, "delay", p.delay)

	if err := sleepContext(ctx, p.delay); err != nil {
		return p.fail(transactionID, fmt.Errorf("processing interrupted: %w", err))
	}

	txn, err := p.readRepo.GetByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Log.Errorw("Dispatched transaction has no stored record", "transaction_id", transactionID)
			return ErrRecordMissing
		}
		return p.fail(transactionID, err)
	}

	if txn.Status.IsTerminal() {
		logger.Log.Infow("Transaction already finalized, nothing to do", "transaction_id", transactionID, "status", txn.Status)
		return nil
	}

	applied, err := p.writeRepo.Transition(ctx, transactionID, models.StatusProcessed, time.Now().UTC())
	if err != nil {
		return p.fail(transactionID, err)
	}
	if !applied {
		logger.Log.Infow("Transaction finalized concurrently, nothing to do", "transaction_id", transactionID)
		return nil
	}

	logger.Log.Infow("Transaction processed", "transaction_id", transactionID)
	return nil
}

// ProcessWithRetry runs Process up to the configured attempt count with a
// fixed backoff between attempts. ErrRecordMissing aborts immediately; there
// is no record to fix. Exhaustion abandons the job: the record keeps whatever
// state the last successful write left it, FAILED when the best-effort mark
// landed, PROCESSING when even that failed.
func (p *TransactionProcessor) ProcessWithRetry(ctx context.Context, transactionID string) error {
	var lastErr error

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		lastErr = p.Process(ctx, transactionID)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrRecordMissing) {
			return lastErr
		}

		if attempt < p.maxAttempts {
			logger.Log.Warnw("Processing attempt failed, retrying",
				"transaction_id", transactionID,
				"attempt", attempt,
				"max_attempts", p.maxAttempts,
				"backoff", p.backoff,
				"error", lastErr,
			)
			if err := sleepContext(ctx, p.backoff); err != nil {
				logger.Log.Errorw("Retry backoff interrupted, job abandoned", "transaction_id", transactionID, "error", err)
				return lastErr
			}
		}
	}

	logger.Log.Errorw("Retries exhausted, job abandoned",
		"transaction_id", transactionID,
		"attempts", p.maxAttempts,
		"error", lastErr,
	)
	return lastErr
}

// fail marks the transaction FAILED best-effort and passes the cause through.
// Losing the mark only means the record stays PROCESSING until a retry or
// out-of-band monitoring picks it up.
func (p *TransactionProcessor) fail(transactionID string, cause error) error {
	markCtx, cancel := context.WithTimeout(context.Background(), failMarkTimeout)
	defer cancel()

	if _, err := p.writeRepo.Transition(markCtx, transactionID, models.StatusFailed, time.Now().UTC()); err != nil {
		logger.Log.Errorw("Failed to mark transaction FAILED", "transaction_id", transactionID, "error", err)
	} else {
		logger.Log.Warnw("Transaction marked FAILED", "transaction_id", transactionID, "cause", cause)
	}

	return cause
}

// sleepContext waits for d unless ctx ends first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
