package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-transaction-webhook/internal/logger"
	"github.com/sbilibin2017/gw-transaction-webhook/internal/models"
)

// TransactionWriterRepository handles transaction write operations
type TransactionWriterRepository struct {
	db *sqlx.DB
}

func NewTransactionWriterRepository(db *sqlx.DB) *TransactionWriterRepository {
	return &TransactionWriterRepository{db: db}
}

// Save inserts a transaction in PROCESSING status. The insert is idempotent
// on transaction_id: when a row with the same id already exists it is left
// untouched and created=false is returned. Concurrent saves of the same id
// are serialized by the primary-key constraint, so exactly one caller
// observes created=true.
func (r *TransactionWriterRepository) Save(ctx context.Context, transactionID, sourceAccount, destinationAccount string, amount float64, currency string) (bool, error) {
	query := `
		INSERT INTO transactions (transaction_id, source_account, destination_account, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, 'PROCESSING')
		ON CONFLICT (transaction_id) DO NOTHING
	`

	res, err := r.db.ExecContext(ctx, query, transactionID, sourceAccount, destinationAccount, amount, currency)

	var created bool
	if err == nil {
		var rows int64
		rows, err = res.RowsAffected()
		created = rows > 0
	}

	// Log query, args, result, error
	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{transactionID, sourceAccount, destinationAccount, amount, currency},
		"result", created,
		"error", err,
	)

	return created, err
}

// Transition moves a transaction from PROCESSING to the given terminal status,
// stamping processed_at in the same statement. The condition on the current
// status makes the update the single serialization point for concurrent
// completions: applied=false with a nil error means another caller already
// finished the transaction, sql.ErrNoRows means it was never stored.
func (r *TransactionWriterRepository) Transition(ctx context.Context, transactionID string, next models.TransactionStatus, processedAt time.Time) (bool, error) {
	if !models.StatusProcessing.CanTransitionTo(next) {
		return false, fmt.Errorf("invalid target status %q for transaction %s", next, transactionID)
	}

	query := `
		UPDATE transactions
		SET status = $2, processed_at = $3
		WHERE transaction_id = $1 AND status = 'PROCESSING'
	`

	res, err := r.db.ExecContext(ctx, query, transactionID, next, processedAt)

	var applied bool
	if err == nil {
		var rows int64
		rows, err = res.RowsAffected()
		applied = rows > 0
	}

	// Log query, args, result, error
	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{transactionID, next, processedAt},
		"result", applied,
		"error", err,
	)

	if err != nil {
		return false, err
	}
	if applied {
		return true, nil
	}

	const probe = `SELECT EXISTS (SELECT 1 FROM transactions WHERE transaction_id = $1)`

	var exists bool
	err = r.db.GetContext(ctx, &exists, probe, transactionID)

	logger.Log.Infow(
		"query", probe,
		"args", []any{transactionID},
		"result", exists,
		"error", err,
	)

	if err != nil {
		return false, err
	}
	if !exists {
		return false, sql.ErrNoRows
	}
	return false, nil
}

// TransactionReaderRepository handles transaction read operations
type TransactionReaderRepository struct {
	db *sqlx.DB
}

func NewTransactionReaderRepository(db *sqlx.DB) *TransactionReaderRepository {
	return &TransactionReaderRepository{db: db}
}

// GetByID retrieves a single transaction by its identifier. A missing row is
// reported as sql.ErrNoRows.
func (r *TransactionReaderRepository) GetByID(ctx context.Context, transactionID string) (*models.TransactionDB, error) {
	const query = `
		SELECT transaction_id, source_account, destination_account, amount, currency, status, created_at, processed_at
		FROM transactions
		WHERE transaction_id = $1
	`

	var txn models.TransactionDB
	err := r.db.GetContext(ctx, &txn, query, transactionID)

	// Log query, args, result, error
	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{transactionID},
		"result", txn,
		"error", err,
	)

	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// List returns transactions ordered newest first, optionally filtered by
// status.
func (r *TransactionReaderRepository) List(ctx context.Context, status *models.TransactionStatus, limit int) ([]models.TransactionDB, error) {
	var (
		query string
		args  []any
	)
	if status != nil {
		query = `
			SELECT transaction_id, source_account, destination_account, amount, currency, status, created_at, processed_at
			FROM transactions
			WHERE status = $1
			ORDER BY created_at DESC
			LIMIT $2
		`
		args = []any{*status, limit}
	} else {
		query = `
			SELECT transaction_id, source_account, destination_account, amount, currency, status, created_at, processed_at
			FROM transactions
			ORDER BY created_at DESC
			LIMIT $1
		`
		args = []any{limit}
	}

	txns := make([]models.TransactionDB, 0, limit)
	err := r.db.SelectContext(ctx, &txns, query, args...)

	// Log query, args, result, error
	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", args,
		"result", len(txns),
		"error", err,
	)

	return txns, err
}
