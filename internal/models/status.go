package models

// TransactionStatus represents the lifecycle state of a transaction.
type TransactionStatus string

// Transaction lifecycle states.
const (
	StatusProcessing TransactionStatus = "PROCESSING" // initial state, deferred work pending
	StatusProcessed  TransactionStatus = "PROCESSED"  // terminal, deferred work succeeded
	StatusFailed     TransactionStatus = "FAILED"     // terminal, deferred work failed
)

// IsTerminal reports whether no further transition is defined out of s.
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusProcessed || s == StatusFailed
}

// Valid reports whether s is one of the known lifecycle states.
func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusProcessing, StatusProcessed, StatusFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is a legal transition.
// The only legal moves are PROCESSING -> PROCESSED and PROCESSING -> FAILED;
// terminal states never transition again.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	return s == StatusProcessing && next.IsTerminal()
}
