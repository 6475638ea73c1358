package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sbilibin2017/gw-transaction-webhook/internal/logger"
	"github.com/sbilibin2017/gw-transaction-webhook/internal/models"
)

// TransactionLister defines the interface that the service must implement.
type TransactionLister interface {
	List(ctx context.Context, status *models.TransactionStatus, limit int) ([]models.TransactionDB, error)
}

// ListTransactionsResponse represents a page of recent transactions
// swagger:model ListTransactionsResponse
type ListTransactionsResponse struct {
	// Transactions, newest first
	Transactions []TransactionResponse `json:"transactions"`
}

// ListTransactionsErrorResponse represents an error response for the listing endpoint
// swagger:model ListTransactionsErrorResponse
type ListTransactionsErrorResponse struct {
	// Error message
	// default: Invalid status filter
	Error string `json:"error"`
}

// NewListTransactionsHandler returns an HTTP handler for the operational
// listing endpoint used by monitoring to find stuck or failed transactions.
// @Summary List transactions
// @Description Returns recent transactions, newest first, optionally filtered by status
// @Tags transactions
// @Produce json
// @Param status query string false "Status filter (PROCESSING, PROCESSED, FAILED)"
// @Param limit query int false "Maximum number of records"
// @Success 200 {object} handlers.ListTransactionsResponse "Transactions"
// @Failure 400 {object} handlers.ListTransactionsErrorResponse "Invalid filter"
// @Failure 401 {object} handlers.ListTransactionsErrorResponse "Unauthorized"
// @Failure 500 {object} handlers.ListTransactionsErrorResponse "Internal server error"
// @Router /transactions [get]
// @Security BearerAuth
func NewListTransactionsHandler(
	svc TransactionLister,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var status *models.TransactionStatus
		if raw := r.URL.Query().Get("status"); raw != "" {
			s := models.TransactionStatus(raw)
			if !s.Valid() {
				logger.Log.Warnw("invalid status filter", "status", raw)
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(ListTransactionsErrorResponse{Error: "Invalid status filter"})
				return
			}
			status = &s
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				logger.Log.Warnw("invalid limit", "limit", raw)
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(ListTransactionsErrorResponse{Error: "Invalid limit"})
				return
			}
			limit = n
		}

		txns, err := svc.List(ctx, status, limit)
		if err != nil {
			logger.Log.Errorw("failed to list transactions", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(ListTransactionsErrorResponse{Error: "Internal server error"})
			return
		}

		resp := ListTransactionsResponse{
			Transactions: make([]TransactionResponse, 0, len(txns)),
		}
		for i := range txns {
			resp.Transactions = append(resp.Transactions, toTransactionResponse(&txns[i]))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}
}
