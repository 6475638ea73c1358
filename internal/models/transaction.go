package models

import (
	"time"
)

// TransactionDB represents a transaction row in the database
type TransactionDB struct {
	TransactionID      string            `json:"transaction_id" db:"transaction_id"`           // Client-supplied idempotency key
	SourceAccount      string            `json:"source_account" db:"source_account"`           // Opaque source account identifier
	DestinationAccount string            `json:"destination_account" db:"destination_account"` // Opaque destination account identifier
	Amount             float64           `json:"amount" db:"amount"`                           // Transaction amount, always positive
	Currency           string            `json:"currency" db:"currency"`                       // Three-letter currency code
	Status             TransactionStatus `json:"status" db:"status"`                           // Current lifecycle state
	CreatedAt          time.Time         `json:"created_at" db:"created_at"`                   // Set once by the database at insert
	ProcessedAt        *time.Time        `json:"processed_at" db:"processed_at"`               // Set exactly once on terminal transition
}
