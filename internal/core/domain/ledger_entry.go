package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/SscSPs/study_coins/internal/apperrors"
	"github.com/google/uuid"
)

// EntryKind indicates whether a ledger entry increased or decreased a balance.
type EntryKind string

const (
	Credit EntryKind = "CREDIT"
	Debit  EntryKind = "DEBIT"
)

// Well-known reason tags used by the callers in this repository.
const (
	ReasonAccountOpening = "account_opening"
	ReasonGameUnlock     = "game_unlock"
	ReasonQuizReward     = "quiz_reward"
)

// LedgerEntry is the immutable audit record of one balance mutation.
type LedgerEntry struct {
	EntryID          string    `json:"entryID"`
	AccountID        string    `json:"accountID"`
	Sequence         int64     `json:"sequence"` // 1-based, strictly increasing per account
	Kind             EntryKind `json:"kind"`
	Amount           int64     `json:"amount"` // Always positive
	Reason           string    `json:"reason"`
	RelatedResource  *string   `json:"relatedResource,omitempty"`
	IdempotencyKey   *string   `json:"idempotencyKey,omitempty"`
	ResultingBalance int64     `json:"resultingBalance"` // Balance after applying this entry
	CreatedAt        time.Time `json:"createdAt"`
	CreatedBy        string    `json:"createdBy"`
}

// Delta returns the signed change the entry applies to its account balance.
func (e LedgerEntry) Delta() int64 {
	if e.Kind == Debit {
		return -e.Amount
	}
	return e.Amount
}

// MutationRequest is the input to a credit or debit.
type MutationRequest struct {
	AccountID       string
	Amount          int64
	Reason          string
	RelatedResource *string
	IdempotencyKey  *string
}

// Field limits shared by every ledger store; they match the Postgres column widths.
const (
	MaxAccountIDLength       = 128
	MaxActorIDLength         = 255
	MaxReasonLength          = 64
	MaxRelatedResourceLength = 255
	MaxIdempotencyKeyLength  = 255
)

// ValidateAccountID rejects blank, oversized and non-printable account IDs.
func ValidateAccountID(accountID string) error {
	if strings.TrimSpace(accountID) == "" {
		return fmt.Errorf("%w: account ID is required", apperrors.ErrValidation)
	}
	return checkText("account ID", accountID, MaxAccountIDLength)
}

// ValidateActorID checks the caller ID recorded on accounts and entries.
func ValidateActorID(actorID string) error {
	return checkText("caller ID", actorID, MaxActorIDLength)
}

func checkText(field, value string, maxLen int) error {
	if n := utf8.RuneCountInString(value); n > maxLen {
		return fmt.Errorf("%w: %s is %d characters, max %d", apperrors.ErrValidation, field, n, maxLen)
	}
	for _, r := range value {
		if r == utf8.RuneError || !unicode.IsPrint(r) {
			return fmt.Errorf("%w: %s contains a non-printable character %U", apperrors.ErrValidation, field, r)
		}
	}
	return nil
}

// Validate checks the request fields that do not need the stored account.
func (r MutationRequest) Validate() error {
	if r.Amount <= 0 {
		return fmt.Errorf("%w: got %d", apperrors.ErrInvalidAmount, r.Amount)
	}
	if err := ValidateAccountID(r.AccountID); err != nil {
		return err
	}
	if strings.TrimSpace(r.Reason) == "" {
		return fmt.Errorf("%w: reason is required", apperrors.ErrValidation)
	}
	if err := checkText("reason", r.Reason, MaxReasonLength); err != nil {
		return err
	}
	if r.RelatedResource != nil {
		if err := checkText("related resource", *r.RelatedResource, MaxRelatedResourceLength); err != nil {
			return err
		}
	}
	if r.IdempotencyKey != nil {
		if strings.TrimSpace(*r.IdempotencyKey) == "" {
			return fmt.Errorf("%w: idempotency key must not be blank", apperrors.ErrValidation)
		}
		if err := checkText("idempotency key", *r.IdempotencyKey, MaxIdempotencyKeyLength); err != nil {
			return err
		}
	}
	return nil
}

// MutationResult is what a successful credit or debit returns.
type MutationResult struct {
	Entry      LedgerEntry `json:"entry"`
	NewBalance int64       `json:"newBalance"`
	Replayed   bool        `json:"replayed"` // True when an earlier entry with the same idempotency key was returned
}

// NextEntry builds the entry that applying req to account would append.
// It rejects non-positive amounts and debits larger than the current balance.
func NextEntry(account CoinAccount, kind EntryKind, req MutationRequest, now time.Time, actorID string) (LedgerEntry, error) {
	if req.Amount <= 0 {
		return LedgerEntry{}, fmt.Errorf("%w: got %d", apperrors.ErrInvalidAmount, req.Amount)
	}

	var newBalance int64
	switch kind {
	case Credit:
		newBalance = account.Balance + req.Amount
		if newBalance < account.Balance {
			return LedgerEntry{}, fmt.Errorf("%w: credit of %d overflows balance %d", apperrors.ErrInvalidAmount, req.Amount, account.Balance)
		}
	case Debit:
		if account.Balance < req.Amount {
			return LedgerEntry{}, &apperrors.InsufficientBalanceError{
				AccountID:       account.AccountID,
				CurrentBalance:  account.Balance,
				RequestedAmount: req.Amount,
			}
		}
		newBalance = account.Balance - req.Amount
	default:
		return LedgerEntry{}, fmt.Errorf("%w: unknown entry kind %q", apperrors.ErrValidation, kind)
	}

	return LedgerEntry{
		EntryID:          uuid.NewString(),
		AccountID:        account.AccountID,
		Sequence:         account.EntryCount + 1,
		Kind:             kind,
		Amount:           req.Amount,
		Reason:           req.Reason,
		RelatedResource:  req.RelatedResource,
		IdempotencyKey:   req.IdempotencyKey,
		ResultingBalance: newBalance,
		CreatedAt:        now,
		CreatedBy:        actorID,
	}, nil
}
