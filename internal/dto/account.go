package dto

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/SscSPs/study_coins/internal/apperrors"
	"github.com/SscSPs/study_coins/internal/core/domain"
)

// OpenAccountRequest defines the data needed to provision a coin account.
type OpenAccountRequest struct {
	AccountID    string `json:"accountID" binding:"required" validate:"required,max=128"`
	InitialGrant int64  `json:"initialGrant"` // Optional; written as an account_opening credit
}

// AccountResponse defines the data returned for a coin account.
type AccountResponse struct {
	AccountID     string    `json:"accountID"`
	Balance       int64     `json:"balance"`
	EntryCount    int64     `json:"entryCount"`
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// ToAccountResponse converts a domain.CoinAccount to AccountResponse DTO
func ToAccountResponse(acc *domain.CoinAccount) AccountResponse {
	return AccountResponse{
		AccountID:     acc.AccountID,
		Balance:       acc.Balance,
		EntryCount:    acc.EntryCount,
		CreatedAt:     acc.CreatedAt,
		LastUpdatedAt: acc.LastUpdatedAt,
	}
}

// MutationRequestBody is the JSON body of a credit or debit call.
// Amount is kept as a json.Number so that fractional values surface as INVALID_AMOUNT.
type MutationRequestBody struct {
	Amount          json.Number `json:"amount" binding:"required" swaggertype:"integer"`
	Reason          string      `json:"reason" binding:"required"`
	RelatedResource *string     `json:"relatedResource"`
}

// ParseAmount converts a JSON number into a coin amount.
func ParseAmount(n json.Number) (int64, error) {
	amount, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", apperrors.ErrInvalidAmount, n.String())
	}
	if amount <= 0 {
		return 0, fmt.Errorf("%w: got %d", apperrors.ErrInvalidAmount, amount)
	}
	return amount, nil
}

// ToMutationRequest builds the domain request for accountID.
func (b MutationRequestBody) ToMutationRequest(accountID string, idempotencyKey string) (domain.MutationRequest, error) {
	amount, err := ParseAmount(b.Amount)
	if err != nil {
		return domain.MutationRequest{}, err
	}
	req := domain.MutationRequest{
		AccountID:       accountID,
		Amount:          amount,
		Reason:          b.Reason,
		RelatedResource: b.RelatedResource,
	}
	if idempotencyKey != "" {
		req.IdempotencyKey = &idempotencyKey
	}
	return req, nil
}

// EntryResponse defines the data returned for a ledger entry.
type EntryResponse struct {
	EntryID          string           `json:"entryID"`
	Sequence         int64            `json:"sequence"`
	Kind             domain.EntryKind `json:"kind"`
	Amount           int64            `json:"amount"`
	Reason           string           `json:"reason"`
	RelatedResource  *string          `json:"relatedResource,omitempty"`
	ResultingBalance int64            `json:"resultingBalance"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// ToEntryResponse converts a domain.LedgerEntry to EntryResponse DTO.
func ToEntryResponse(e *domain.LedgerEntry) EntryResponse {
	return EntryResponse{
		EntryID:          e.EntryID,
		Sequence:         e.Sequence,
		Kind:             e.Kind,
		Amount:           e.Amount,
		Reason:           e.Reason,
		RelatedResource:  e.RelatedResource,
		ResultingBalance: e.ResultingBalance,
		CreatedAt:        e.CreatedAt,
	}
}

// ToEntryResponses converts a slice of domain.LedgerEntry to []EntryResponse.
func ToEntryResponses(entries []domain.LedgerEntry) []EntryResponse {
	res := make([]EntryResponse, len(entries))
	for i := range entries {
		res[i] = ToEntryResponse(&entries[i])
	}
	return res
}

// MutationResponse is returned by credit and debit calls.
type MutationResponse struct {
	AccountID  string        `json:"accountID"`
	NewBalance int64         `json:"newBalance"`
	Entry      EntryResponse `json:"entry"`
	Replayed   bool          `json:"replayed"`
}

// ToMutationResponse converts a domain.MutationResult to MutationResponse DTO.
func ToMutationResponse(r *domain.MutationResult) MutationResponse {
	return MutationResponse{
		AccountID:  r.Entry.AccountID,
		NewBalance: r.NewBalance,
		Entry:      ToEntryResponse(&r.Entry),
		Replayed:   r.Replayed,
	}
}

// ListEntriesParams defines query parameters for listing entries.
type ListEntriesParams struct {
	Limit     int     `form:"limit,default=50"`
	NextToken *string `form:"nextToken"`
}

// ListEntriesResponse wraps a page of entries.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// ErrorResponse is the structured error body for ledger failures.
type ErrorResponse struct {
	Kind            apperrors.ErrorKind `json:"kind"`
	Message         string              `json:"message"`
	CurrentBalance  *int64              `json:"currentBalance,omitempty"`
	RequestedAmount *int64              `json:"requestedAmount,omitempty"`
}
