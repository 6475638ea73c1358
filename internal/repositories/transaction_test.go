package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-transaction-webhook/internal/logger"
	"github.com/sbilibin2017/gw-transaction-webhook/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// --- Setup Postgres ---
func setupPostgres(t *testing.T) (*sqlx.DB, func()) {
	logger.Initialize("debug")
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_PASSWORD": "secret", "POSTGRES_DB": "testdb", "POSTGRES_USER": "postgres"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	assert.NoError(t, err)

	host, err := container.Host(ctx)
	assert.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	assert.NoError(t, err)

	dsn := fmt.Sprintf("postgres://postgres:secret@%s:%s/testdb?sslmode=disable", host, port.Port())
	db, err := sqlx.Connect("pgx", dsn)
	assert.NoError(t, err)

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			transaction_id VARCHAR(255) PRIMARY KEY,
			source_account VARCHAR(255) NOT NULL,
			destination_account VARCHAR(255) NOT NULL,
			amount DOUBLE PRECISION NOT NULL CHECK (amount > 0),
			currency CHAR(3) NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'PROCESSING' CHECK (status IN ('PROCESSING', 'PROCESSED', 'FAILED')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			processed_at TIMESTAMPTZ,
			CHECK ((processed_at IS NULL) = (status = 'PROCESSING'))
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transaction_status ON transactions (status);`,
		`CREATE INDEX IF NOT EXISTS idx_transaction_created_at ON transactions (created_at);`,
	}

	for _, m := range migrations {
		_, err = db.Exec(m)
		assert.NoError(t, err)
	}

	return db, func() {
		db.Close()
		container.Terminate(ctx)
	}
}

// --- Helper ---
func getStatus(t *testing.T, db *sqlx.DB, transactionID string) string {
	var status string
	err := db.Get(&status, `SELECT status FROM transactions WHERE transaction_id=$1`, transactionID)
	assert.NoError(t, err)
	return status
}

// --- Save Tests ---
func TestSave(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()
	ctx := context.Background()

	writer := NewTransactionWriterRepository(db)

	created, err := writer.Save(ctx, "txn_1", "acc_100", "acc_200", 250.75, "USD")
	assert.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "PROCESSING", getStatus(t, db, "txn_1"))

	var processedAt *time.Time
	err = db.Get(&processedAt, `SELECT processed_at FROM transactions WHERE transaction_id=$1`, "txn_1")
	assert.NoError(t, err)
	assert.Nil(t, processedAt)

	// Same id again: row is untouched, no error
	created, err = writer.Save(ctx, "txn_1", "acc_999", "acc_888", 1.00, "EUR")
	assert.NoError(t, err)
	assert.False(t, created)

	var count int
	err = db.Get(&count, `SELECT COUNT(*) FROM transactions`)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	var source string
	err = db.Get(&source, `SELECT source_account FROM transactions WHERE transaction_id=$1`, "txn_1")
	assert.NoError(t, err)
	assert.Equal(t, "acc_100", source)
}

// --- Concurrency Tests ---
func TestSaveConcurrency(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()
	ctx := context.Background()

	writer := NewTransactionWriterRepository(db)

	const numGoroutines = 100
	var wg sync.WaitGroup
	var createdCount int64
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			created, err := writer.Save(ctx, "txn_concurrent", "acc_100", "acc_200", 10.0, "USD")
			assert.NoError(t, err)
			if created {
				atomic.AddInt64(&createdCount, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), createdCount)

	var count int
	err := db.Get(&count, `SELECT COUNT(*) FROM transactions WHERE transaction_id=$1`, "txn_concurrent")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

// --- Transition Tests ---
func TestTransition(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()
	ctx := context.Background()

	writer := NewTransactionWriterRepository(db)
	reader := NewTransactionReaderRepository(db)

	_, err := writer.Save(ctx, "txn_1", "acc_100", "acc_200", 250.75, "USD")
	assert.NoError(t, err)

	t.Run("Processing to terminal", func(t *testing.T) {
		applied, err := writer.Transition(ctx, "txn_1", models.StatusProcessed, time.Now().UTC())
		assert.NoError(t, err)
		assert.True(t, applied)

		txn, err := reader.GetByID(ctx, "txn_1")
		assert.NoError(t, err)
		assert.Equal(t, models.StatusProcessed, txn.Status)
		assert.NotNil(t, txn.ProcessedAt)
		assert.False(t, txn.ProcessedAt.Before(txn.CreatedAt))
	})

	t.Run("Terminal state absorbs later transitions", func(t *testing.T) {
		applied, err := writer.Transition(ctx, "txn_1", models.StatusFailed, time.Now().UTC())
		assert.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, "PROCESSED", getStatus(t, db, "txn_1"))
	})

	t.Run("Unknown id", func(t *testing.T) {
		_, err := writer.Transition(ctx, "txn_ghost", models.StatusProcessed, time.Now().UTC())
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("Non-terminal target rejected", func(t *testing.T) {
		_, err := writer.Transition(ctx, "txn_1", models.StatusProcessing, time.Now().UTC())
		assert.Error(t, err)
	})
}

func TestTransitionConcurrency(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()
	ctx := context.Background()

	writer := NewTransactionWriterRepository(db)

	_, err := writer.Save(ctx, "txn_race", "acc_100", "acc_200", 99.99, "USD")
	assert.NoError(t, err)

	const numGoroutines = 50
	var wg sync.WaitGroup
	var appliedCount int64
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		status := models.StatusProcessed
		if i%2 == 1 {
			status = models.StatusFailed
		}
		go func(next models.TransactionStatus) {
			defer wg.Done()
			applied, err := writer.Transition(ctx, "txn_race", next, time.Now().UTC())
			assert.NoError(t, err)
			if applied {
				atomic.AddInt64(&appliedCount, 1)
			}
		}(status)
	}
	wg.Wait()

	// Exactly one writer wins; the rest observe a terminal row and no-op
	assert.Equal(t, int64(1), appliedCount)
}

// --- TransactionReaderRepository Tests ---
func TestTransactionReaderRepository_GetByID(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()
	ctx := context.Background()

	writer := NewTransactionWriterRepository(db)
	reader := NewTransactionReaderRepository(db)

	_, err := writer.Save(ctx, "txn_1", "acc_100", "acc_200", 250.75, "USD")
	assert.NoError(t, err)

	t.Run("Get existing transaction", func(t *testing.T) {
		txn, err := reader.GetByID(ctx, "txn_1")
		assert.NoError(t, err)
		assert.Equal(t, "txn_1", txn.TransactionID)
		assert.Equal(t, "acc_100", txn.SourceAccount)
		assert.Equal(t, "acc_200", txn.DestinationAccount)
		assert.Equal(t, 250.75, txn.Amount)
		assert.Equal(t, "USD", txn.Currency)
		assert.Equal(t, models.StatusProcessing, txn.Status)
		assert.Nil(t, txn.ProcessedAt)
	})

	t.Run("Unknown id returns sql.ErrNoRows", func(t *testing.T) {
		txn, err := reader.GetByID(ctx, "txn_ghost")
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, txn)
	})
}

func TestTransactionReaderRepository_List(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()
	ctx := context.Background()

	reader := NewTransactionReaderRepository(db)

	seed := []struct {
		id     string
		status string
		age    string
	}{
		{"txn_old", "PROCESSED", "3 hours"},
		{"txn_mid", "PROCESSING", "2 hours"},
		{"txn_new", "FAILED", "1 hour"},
	}
	for _, s := range seed {
		var processedAt any
		if s.status != "PROCESSING" {
			processedAt = time.Now().UTC()
		}
		_, err := db.Exec(
			`INSERT INTO transactions (transaction_id, source_account, destination_account, amount, currency, status, created_at, processed_at)
			 VALUES ($1, 'acc_100', 'acc_200', 10.0, 'USD', $2, NOW() - $3::interval, $4)`,
			s.id, s.status, s.age, processedAt)
		assert.NoError(t, err)
	}

	t.Run("All statuses, newest first", func(t *testing.T) {
		txns, err := reader.List(ctx, nil, 10)
		assert.NoError(t, err)
		assert.Len(t, txns, 3)
		assert.Equal(t, "txn_new", txns[0].TransactionID)
		assert.Equal(t, "txn_mid", txns[1].TransactionID)
		assert.Equal(t, "txn_old", txns[2].TransactionID)
	})

	t.Run("Filter by status", func(t *testing.T) {
		status := models.StatusProcessing
		txns, err := reader.List(ctx, &status, 10)
		assert.NoError(t, err)
		assert.Len(t, txns, 1)
		assert.Equal(t, "txn_mid", txns[0].TransactionID)
	})

	t.Run("Limit applies after ordering", func(t *testing.T) {
		txns, err := reader.List(ctx, nil, 2)
		assert.NoError(t, err)
		assert.Len(t, txns, 2)
		assert.Equal(t, "txn_new", txns[0].TransactionID)
	})

	t.Run("No matches returns empty slice", func(t *testing.T) {
		status := models.TransactionStatus("PROCESSED")
		txns, err := reader.List(ctx, &status, 10)
		assert.NoError(t, err)
		assert.Len(t, txns, 1)

		_, err = db.Exec(`DELETE FROM transactions WHERE status = 'PROCESSED'`)
		assert.NoError(t, err)

		txns, err = reader.List(ctx, &status, 10)
		assert.NoError(t, err)
		assert.Empty(t, txns)
	})
}
