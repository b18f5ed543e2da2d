package domain

import "time"

// LedgerEventType names the event emitted for a committed entry.
type LedgerEventType string

const (
	EventCoinsCredited LedgerEventType = "coins.credited"
	EventCoinsDebited  LedgerEventType = "coins.debited"
)

// LedgerEvent is the message published after an entry has been committed.
type LedgerEvent struct {
	EventID    string          `json:"eventID"` // Equals the entry ID
	Type       LedgerEventType `json:"type"`
	AccountID  string          `json:"accountID"`
	Sequence   int64           `json:"sequence"`
	Amount     int64           `json:"amount"`
	Reason     string          `json:"reason"`
	Resource   *string         `json:"relatedResource,omitempty"`
	NewBalance int64           `json:"newBalance"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// NewLedgerEvent derives the event for a committed entry.
func NewLedgerEvent(e LedgerEntry) LedgerEvent {
	eventType := EventCoinsCredited
	if e.Kind == Debit {
		eventType = EventCoinsDebited
	}
	return LedgerEvent{
		EventID:    e.EntryID,
		Type:       eventType,
		AccountID:  e.AccountID,
		Sequence:   e.Sequence,
		Amount:     e.Amount,
		Reason:     e.Reason,
		Resource:   e.RelatedResource,
		NewBalance: e.ResultingBalance,
		OccurredAt: e.CreatedAt,
	}
}
