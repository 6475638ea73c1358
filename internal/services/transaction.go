package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sbilibin2017/gw-transaction-webhook/internal/logger"
	"github.com/sbilibin2017/gw-transaction-webhook/internal/models"
)

var (
	// ErrTransactionNotFound is returned when the queried id was never accepted.
	ErrTransactionNotFound = errors.New("transaction not found")
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// TransactionWriter persists incoming transactions.
type TransactionWriter interface {
	Save(ctx context.Context, transactionID, sourceAccount, destinationAccount string, amount float64, currency string) (bool, error) // Inserts a transaction, reporting whether it was new
}

// TransactionReader reads stored transactions.
type TransactionReader interface {
	GetByID(ctx context.Context, transactionID string) (*models.TransactionDB, error)                      // Returns a transaction by id
	List(ctx context.Context, status *models.TransactionStatus, limit int) ([]models.TransactionDB, error) // Returns recent transactions
}

// TransactionCache short-circuits repeated deliveries of the same id.
type TransactionCache interface {
	Seen(ctx context.Context, transactionID string) (bool, error) // Reports whether the id was accepted recently
	MarkSeen(ctx context.Context, transactionID string) error     // Records the id
}

// JobDispatcher hands accepted transactions to the deferred-processing path.
type JobDispatcher interface {
	Dispatch(ctx context.Context, transactionID string) // Schedules deferred processing, never failing the caller
}

// TransactionService accepts webhook deliveries and answers queries.
type TransactionService struct {
	writeRepo    TransactionWriter
	readRepo     TransactionReader
	cacheRepo    TransactionCache
	dispatcher   JobDispatcher
	storeTimeout time.Duration
}

// NewTransactionService creates a new TransactionService. cacheRepo may be
// nil; the duplicate fast path is then skipped and every delivery hits the
// store, which remains the idempotency authority either way.
func NewTransactionService(
	writeRepo TransactionWriter,
	readRepo TransactionReader,
	cacheRepo TransactionCache,
	dispatcher JobDispatcher,
	storeTimeout time.Duration,
) *TransactionService {
	return &TransactionService{
		writeRepo:    writeRepo,
		readRepo:     readRepo,
		cacheRepo:    cacheRepo,
		dispatcher:   dispatcher,
		storeTimeout: storeTimeout,
	}
}

// Accept stores the delivery and schedules deferred processing for new ids.
// duplicate=true means the id was accepted before; the delivery is
// acknowledged the same way and no new work is scheduled. Store errors
// surface to the caller so the sender retries the webhook.
func (s *TransactionService) Accept(ctx context.Context, transactionID, sourceAccount, destinationAccount string, amount float64, currency string) (duplicate bool, err error) {
	if s.cacheRepo != nil {
		seen, err := s.cacheRepo.Seen(ctx, transactionID)
		if err != nil {
			logger.Log.Warnw("duplicate cache unavailable, falling through to store", "transaction_id", transactionID, "error", err)
		} else if seen {
			logger.Log.Infow("Duplicate webhook answered from cache", "transaction_id", transactionID)
			return true, nil
		}
	}

	saveCtx := ctx
	if s.storeTimeout > 0 {
		var cancel context.CancelFunc
		saveCtx, cancel = context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()
	}

	created, err := s.writeRepo.Save(saveCtx, transactionID, sourceAccount, destinationAccount, amount, currency)
	if err != nil {
		logger.Log.Errorw("failed to save transaction", "transaction_id", transactionID, "error", err)
		return false, err
	}

	if created {
		// The row is durable, which is all the acknowledgment promises.
		// Dispatch handles its own failures and never fails the delivery.
		s.dispatcher.Dispatch(ctx, transactionID)
	}

	s.markSeen(ctx, transactionID)

	return !created, nil
}

func (s *TransactionService) markSeen(ctx context.Context, transactionID string) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.MarkSeen(ctx, transactionID); err != nil {
		logger.Log.Warnw("failed to mark transaction as seen", "transaction_id", transactionID, "error", err)
	}
}

// GetByID returns the stored record for the given id.
func (s *TransactionService) GetByID(ctx context.Context, transactionID string) (*models.TransactionDB, error) {
	txn, err := s.readRepo.GetByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		logger.Log.Errorw("failed to get transaction", "transaction_id", transactionID, "error", err)
		return nil, err
	}
	return txn, nil
}

// List returns recent transactions, newest first, optionally filtered by
// status. A non-positive limit falls back to the default page size.
func (s *TransactionService) List(ctx context.Context, status *models.TransactionStatus, limit int) ([]models.TransactionDB, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	txns, err := s.readRepo.List(ctx, status, limit)
	if err != nil {
		logger.Log.Errorw("failed to list transactions", "error", err)
		return nil, err
	}
	return txns, nil
}
