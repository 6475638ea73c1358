package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sbilibin2017/gw-transaction-webhook/internal/logger"
)

// WebhookAccepter defines the interface that the service must implement.
type WebhookAccepter interface {
	Accept(ctx context.Context, transactionID, sourceAccount, destinationAccount string, amount float64, currency string) (duplicate bool, err error)
}

// WebhookRequest represents the JSON body of a transaction webhook
// swagger:model WebhookRequest
type WebhookRequest struct {
	// Client-supplied transaction identifier, used as the idempotency key
	// required: true
	// default: txn_1
	TransactionID string `json:"transaction_id"`

	// Source account identifier
	// required: true
	// default: acc_100
	SourceAccount string `json:"source_account"`

	// Destination account identifier
	// required: true
	// default: acc_200
	DestinationAccount string `json:"destination_account"`

	// Transaction amount, must be positive
	// required: true
	// default: 100.0
	Amount float64 `json:"amount"`

	// Three-letter currency code
	// required: true
	// default: USD
	Currency string `json:"currency"`
}

// WebhookResponse represents the acknowledgment of an accepted webhook
// swagger:model WebhookResponse
type WebhookResponse struct {
	// Acknowledgment message
	// default: Webhook received
	Message string `json:"message"`

	// Echo of the transaction identifier
	// default: txn_1
	TransactionID string `json:"transaction_id"`
}

// WebhookErrorResponse represents an error response for webhook ingestion
// swagger:model WebhookErrorResponse
type WebhookErrorResponse struct {
	// Error message
	// default: Invalid request body
	Error string `json:"error"`
}

// NewWebhookHandler returns an HTTP handler for ingesting transaction webhooks.
// The acknowledgment only promises a durable record; deferred processing is
// scheduled after the insert and never waited on here.
// @Summary Ingest transaction webhook
// @Description Persists the transaction idempotently and schedules deferred processing. Duplicate submissions are acknowledged without scheduling new work.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param request body handlers.WebhookRequest true "Transaction Webhook"
// @Success 202 {object} handlers.WebhookResponse "Webhook received"
// @Failure 400 {object} handlers.WebhookErrorResponse "Invalid payload"
// @Failure 500 {object} handlers.WebhookErrorResponse "Failed to process webhook"
// @Router /webhooks/transactions [post]
func NewWebhookHandler(
	svc WebhookAccepter,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req WebhookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Log.Errorw("failed to decode webhook request", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(WebhookErrorResponse{Error: "Invalid request body"})
			return
		}

		if msg, ok := validateWebhook(req); !ok {
			logger.Log.Warnw("invalid webhook payload", "transaction_id", req.TransactionID, "reason", msg)
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(WebhookErrorResponse{Error: msg})
			return
		}

		duplicate, err := svc.Accept(ctx, req.TransactionID, req.SourceAccount, req.DestinationAccount, req.Amount, req.Currency)
		if err != nil {
			logger.Log.Errorw("failed to accept webhook", "transaction_id", req.TransactionID, "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(WebhookErrorResponse{Error: "Failed to process webhook"})
			return
		}

		message := "Webhook received"
		if duplicate {
			message = "Webhook received (duplicate)"
		}

		resp := WebhookResponse{
			Message:       message,
			TransactionID: req.TransactionID,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(resp)
	}
}

// validateWebhook checks the payload against the ingestion contract before it
// reaches the core: non-empty identifiers, positive amount, 3-letter currency.
func validateWebhook(req WebhookRequest) (string, bool) {
	if req.TransactionID == "" {
		return "Missing transaction_id", false
	}
	if req.SourceAccount == "" || req.DestinationAccount == "" {
		return "Missing source or destination account", false
	}
	if req.Amount <= 0 {
		return "Amount must be positive", false
	}
	if len(req.Currency) != 3 {
		return "Currency must be a 3-letter code", false
	}
	return "", true
}
