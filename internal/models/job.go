package models

// ProcessingJob is the work-queue payload: the transaction id and nothing
// else. Consumers re-read current state from the store, so a stale payload
// can never overwrite a newer status.
type ProcessingJob struct {
	TransactionID string `json:"transaction_id"` // Idempotency key of the transaction to process
}
