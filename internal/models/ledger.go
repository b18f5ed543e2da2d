package models

import "time"

// EntryKind indicates whether a ledger row is a DEBIT or a CREDIT.
type EntryKind string

const (
	Debit  EntryKind = "DEBIT"
	Credit EntryKind = "CREDIT"
)

// CoinAccount is a row of coin_accounts.
type CoinAccount struct {
	AccountID  string `db:"account_id"`
	Balance    int64  `db:"balance"`     // CHECK (balance >= 0)
	EntryCount int64  `db:"entry_count"` // Sequence of the last ledger_entries row
	AuditFields
}

// LedgerEntry is a row of ledger_entries. Rows are never updated or deleted.
type LedgerEntry struct {
	EntryID          string    `db:"entry_id"`
	AccountID        string    `db:"account_id"`
	Sequence         int64     `db:"sequence"`
	Kind             EntryKind `db:"kind"`
	Amount           int64     `db:"amount"`
	Reason           string    `db:"reason"`
	RelatedResource  *string   `db:"related_resource"` // Nullable
	IdempotencyKey   *string   `db:"idempotency_key"`  // Nullable
	ResultingBalance int64     `db:"resulting_balance"`
	CreatedAt        time.Time `db:"created_at"`
	CreatedBy        string    `db:"created_by"`
}
