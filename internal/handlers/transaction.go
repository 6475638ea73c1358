package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sbilibin2017/gw-transaction-webhook/internal/logger"
	"github.com/sbilibin2017/gw-transaction-webhook/internal/models"
	"github.com/sbilibin2017/gw-transaction-webhook/internal/services"
)

// TransactionGetter defines the interface that the service must implement.
type TransactionGetter interface {
	GetByID(ctx context.Context, transactionID string) (*models.TransactionDB, error)
}

// TransactionResponse represents a stored transaction
// swagger:model TransactionResponse
type TransactionResponse struct {
	// Transaction identifier
	// default: txn_1
	TransactionID string `json:"transaction_id"`

	// Source account identifier
	// default: acc_100
	SourceAccount string `json:"source_account"`

	// Destination account identifier
	// default: acc_200
	DestinationAccount string `json:"destination_account"`

	// Transaction amount
	// default: 100.0
	Amount float64 `json:"amount"`

	// Three-letter currency code
	// default: USD
	Currency string `json:"currency"`

	// Current lifecycle state
	// default: PROCESSING
	Status models.TransactionStatus `json:"status"`

	// Creation timestamp
	CreatedAt time.Time `json:"created_at"`

	// Terminal-transition timestamp, null while processing
	ProcessedAt *time.Time `json:"processed_at"`
}

// TransactionErrorResponse represents an error response for transaction queries
// swagger:model TransactionErrorResponse
type TransactionErrorResponse struct {
	// Error message
	// default: Transaction not found
	Error string `json:"error"`
}

// NewGetTransactionHandler returns an HTTP handler for fetching a single
// transaction by its identifier.
// @Summary Get transaction
// @Description Returns the stored transaction record, including its current processing status
// @Tags transactions
// @Produce json
// @Param transaction_id path string true "Transaction ID"
// @Success 200 {object} handlers.TransactionResponse "Transaction record"
// @Failure 404 {object} handlers.TransactionErrorResponse "Transaction not found"
// @Failure 500 {object} handlers.TransactionErrorResponse "Internal server error"
// @Router /transactions/{transaction_id} [get]
func NewGetTransactionHandler(
	svc TransactionGetter,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		transactionID := chi.URLParam(r, "transaction_id")

		txn, err := svc.GetByID(ctx, transactionID)
		if err != nil {
			if errors.Is(err, services.ErrTransactionNotFound) {
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(TransactionErrorResponse{
					Error: fmt.Sprintf("Transaction %s not found", transactionID),
				})
				return
			}
			logger.Log.Errorw("failed to get transaction", "transaction_id", transactionID, "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Internal server error"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(toTransactionResponse(txn))
	}
}

func toTransactionResponse(txn *models.TransactionDB) TransactionResponse {
	return TransactionResponse{
		TransactionID:      txn.TransactionID,
		SourceAccount:      txn.SourceAccount,
		DestinationAccount: txn.DestinationAccount,
		Amount:             txn.Amount,
		Currency:           txn.Currency,
		Status:             txn.Status,
		CreatedAt:          txn.CreatedAt,
		ProcessedAt:        txn.ProcessedAt,
	}
}
