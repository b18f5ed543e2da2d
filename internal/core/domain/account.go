package domain

// CoinAccount holds a user's coin balance.
// Balance is never negative; it only changes through ledger entries.
type CoinAccount struct {
	AccountID  string `json:"accountID"`  // Opaque user identifier
	Balance    int64  `json:"balance"`    // Cached projection of the entry log
	EntryCount int64  `json:"entryCount"` // Sequence of the most recent entry, 0 when the log is empty
	AuditFields
}
