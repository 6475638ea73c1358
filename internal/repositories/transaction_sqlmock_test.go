package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/sbilibin2017/gw-transaction-webhook/internal/models"
)

// SQL-level tests for the branches that are awkward to reach with a real
// database: driver errors and the existence probe after a zero-row update.
func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestTransactionWriterRepository_Save_DriverError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionWriterRepository(db)

	mock.ExpectExec("INSERT INTO transactions").
		WithArgs("txn_1", "acc_100", "acc_200", 100.0, "USD").
		WillReturnError(sql.ErrConnDone)

	created, err := repo.Save(context.Background(), "txn_1", "acc_100", "acc_200", 100.0, "USD")
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.False(t, created)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionWriterRepository_Transition_ProbeDistinguishesMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionWriterRepository(db)
	processedAt := time.Now().UTC()

	t.Run("already terminal reports no-op", func(t *testing.T) {
		mock.ExpectExec("UPDATE transactions").
			WithArgs("txn_1", models.StatusProcessed, processedAt).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("txn_1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		applied, err := repo.Transition(context.Background(), "txn_1", models.StatusProcessed, processedAt)
		assert.NoError(t, err)
		assert.False(t, applied)
	})

	t.Run("missing record reports sql.ErrNoRows", func(t *testing.T) {
		mock.ExpectExec("UPDATE transactions").
			WithArgs("txn_ghost", models.StatusProcessed, processedAt).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("txn_ghost").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		applied, err := repo.Transition(context.Background(), "txn_ghost", models.StatusProcessed, processedAt)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.False(t, applied)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionWriterRepository_Transition_RejectsNonTerminalTarget(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewTransactionWriterRepository(db)

	// No SQL runs for an illegal target; the state machine rejects it first.
	applied, err := repo.Transition(context.Background(), "txn_1", models.StatusProcessing, time.Now().UTC())
	assert.Error(t, err)
	assert.False(t, applied)
}
