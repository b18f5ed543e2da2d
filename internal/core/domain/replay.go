package domain

import (
	"fmt"

	"github.com/SscSPs/study_coins/internal/apperrors"
)

// Replay folds entries, in sequence order, starting from a zero balance and returns the final balance.
// It fails at the first entry that breaks the sequence, carries a non-positive amount,
// drives the balance negative or records a ResultingBalance different from the replayed one.
func Replay(entries []LedgerEntry) (int64, error) {
	var balance int64
	for i, e := range entries {
		wantSeq := int64(i + 1)
		if e.Sequence != wantSeq {
			return balance, fmt.Errorf("%w: entry %s has sequence %d, expected %d", apperrors.ErrLedgerInconsistent, e.EntryID, e.Sequence, wantSeq)
		}
		if e.Amount <= 0 {
			return balance, fmt.Errorf("%w: entry %s has non-positive amount %d", apperrors.ErrLedgerInconsistent, e.EntryID, e.Amount)
		}
		if e.Kind != Credit && e.Kind != Debit {
			return balance, fmt.Errorf("%w: entry %s has unknown kind %q", apperrors.ErrLedgerInconsistent, e.EntryID, e.Kind)
		}

		balance += e.Delta()
		if balance < 0 {
			return balance, fmt.Errorf("%w: entry %s drives balance negative (%d)", apperrors.ErrLedgerInconsistent, e.EntryID, balance)
		}
		if balance != e.ResultingBalance {
			return balance, fmt.Errorf("%w: entry %s records balance %d, replay gives %d", apperrors.ErrLedgerInconsistent, e.EntryID, e.ResultingBalance, balance)
		}
	}
	return balance, nil
}

// VerificationReport compares an account's stored balance with its replayed log.
type VerificationReport struct {
	AccountID       string `json:"accountID"`
	StoredBalance   int64  `json:"storedBalance"`
	ReplayedBalance int64  `json:"replayedBalance"`
	EntryCount      int64  `json:"entryCount"`
	Consistent      bool   `json:"consistent"`
	Problem         string `json:"problem,omitempty"`
}

// Verify replays entries and checks the result against account.
func Verify(account CoinAccount, entries []LedgerEntry) VerificationReport {
	report := VerificationReport{
		AccountID:     account.AccountID,
		StoredBalance: account.Balance,
		EntryCount:    int64(len(entries)),
	}

	replayed, err := Replay(entries)
	report.ReplayedBalance = replayed
	switch {
	case err != nil:
		report.Problem = err.Error()
	case int64(len(entries)) != account.EntryCount:
		report.Problem = fmt.Sprintf("account records %d entries, log has %d", account.EntryCount, len(entries))
	case replayed != account.Balance:
		report.Problem = fmt.Sprintf("stored balance %d differs from replayed balance %d", account.Balance, replayed)
	default:
		report.Consistent = true
	}
	return report
}
