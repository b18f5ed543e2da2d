package repositories

import (
	"context"

	"github.com/SscSPs/study_coins/internal/core/domain"
)

// LedgerReader defines read operations for coin accounts and their entry logs.
type LedgerReader interface {
	// FindAccountByID retrieves an account. Returns apperrors.ErrAccountNotFound if it does not exist.
	FindAccountByID(ctx context.Context, accountID string) (*domain.CoinAccount, error)

	// ListEntries returns up to limit entries with Sequence > afterSequence, ordered by Sequence.
	ListEntries(ctx context.Context, accountID string, afterSequence int64, limit int) ([]domain.LedgerEntry, error)

	// ListEntriesByReason returns every entry of the account tagged with reason, ordered by Sequence.
	ListEntriesByReason(ctx context.Context, accountID string, reason string) ([]domain.LedgerEntry, error)
}

// LedgerWriter defines the only write paths into the ledger.
type LedgerWriter interface {
	// CreateAccount persists a new account and, when opening is non-nil, its first entry, atomically.
	// Returns apperrors.ErrDuplicate if the account already exists.
	CreateAccount(ctx context.Context, account domain.CoinAccount, opening *domain.LedgerEntry) error

	// WithAccountLock runs fn while holding an exclusive lock on the account.
	// Changes made through LockedAccount become visible together, and only if fn returns nil.
	// The wait for the lock honours ctx; fn receives a context that is not cancelled by the caller.
	WithAccountLock(ctx context.Context, accountID string, fn func(ctx context.Context, locked LockedAccount) error) error
}

// LockedAccount is the view of an account handed to WithAccountLock callbacks.
type LockedAccount interface {
	// Account returns the account state as of lock acquisition, updated by Apply.
	Account() domain.CoinAccount

	// FindEntryByIdempotencyKey returns the entry recorded under key, or nil if none exists.
	FindEntryByIdempotencyKey(ctx context.Context, key string) (*domain.LedgerEntry, error)

	// Entries returns the full log in sequence order, read through the held lock.
	Entries(ctx context.Context) ([]domain.LedgerEntry, error)

	// Apply sets the balance to entry.ResultingBalance and appends entry to the log.
	Apply(ctx context.Context, entry domain.LedgerEntry) error
}

// LedgerRepositoryFacade combines all ledger-related repository interfaces.
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
}
