package services

import (
	"context"

	"github.com/SscSPs/study_coins/internal/core/domain"
	"github.com/SscSPs/study_coins/internal/dto"
)

// LedgerReaderSvc defines read operations on coin accounts.
type LedgerReaderSvc interface {
	// GetAccount retrieves an account and its current balance.
	GetAccount(ctx context.Context, accountID string) (*domain.CoinAccount, error)

	// ListEntries retrieves a page of an account's entries in sequence order.
	ListEntries(ctx context.Context, accountID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
}

// LedgerWriterSvc defines the balance mutation operations.
type LedgerWriterSvc interface {
	// OpenAccount provisions an account, optionally with an initial grant written as a credit.
	OpenAccount(ctx context.Context, req dto.OpenAccountRequest, actorID string) (*domain.CoinAccount, error)

	// Credit increases an account balance and appends a CREDIT entry.
	Credit(ctx context.Context, req domain.MutationRequest, actorID string) (*domain.MutationResult, error)

	// Debit decreases an account balance and appends a DEBIT entry. It never overdraws.
	Debit(ctx context.Context, req domain.MutationRequest, actorID string) (*domain.MutationResult, error)
}

// LedgerAuditorSvc defines log verification.
type LedgerAuditorSvc interface {
	// VerifyAccount replays the account's log and compares it with the stored balance.
	VerifyAccount(ctx context.Context, accountID string) (*domain.VerificationReport, error)
}

// LedgerSvcFacade combines all ledger-related service interfaces.
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
	LedgerAuditorSvc
}
