// Package memory implements the ledger ports in process memory.
// It is used for local development and as the reference store in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/SscSPs/study_coins/internal/apperrors"
	"github.com/SscSPs/study_coins/internal/core/domain"
	portsrepo "github.com/SscSPs/study_coins/internal/core/ports/repositories"
	"github.com/SscSPs/study_coins/internal/repositories/locking"
)

// LedgerStore keeps accounts and entry logs in maps.
// Mutations are serialized per account; staged changes are published under mu so
// readers never observe a half-applied mutation.
type LedgerStore struct {
	locks *locking.AccountLocks

	mu       sync.RWMutex
	accounts map[string]domain.CoinAccount
	entries  map[string][]domain.LedgerEntry
	idem     map[string]map[string]int64 // account -> idempotency key -> sequence
}

// NewLedgerStore creates an empty store.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		locks:    locking.NewAccountLocks(),
		accounts: make(map[string]domain.CoinAccount),
		entries:  make(map[string][]domain.LedgerEntry),
		idem:     make(map[string]map[string]int64),
	}
}

// Ensure LedgerStore implements portsrepo.LedgerRepositoryFacade
var _ portsrepo.LedgerRepositoryFacade = (*LedgerStore)(nil)

// FindAccountByID returns a copy of the account.
func (s *LedgerStore) FindAccountByID(_ context.Context, accountID string) (*domain.CoinAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrAccountNotFound, accountID)
	}
	return &acc, nil
}

// ListEntries returns up to limit entries after afterSequence.
func (s *LedgerStore) ListEntries(_ context.Context, accountID string, afterSequence int64, limit int) ([]domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.accounts[accountID]; !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrAccountNotFound, accountID)
	}

	log := s.entries[accountID]
	if afterSequence < 0 {
		afterSequence = 0
	}
	if afterSequence >= int64(len(log)) {
		return []domain.LedgerEntry{}, nil
	}
	end := len(log)
	if limit > 0 && int(afterSequence)+limit < end {
		end = int(afterSequence) + limit
	}

	out := make([]domain.LedgerEntry, end-int(afterSequence))
	copy(out, log[afterSequence:end])
	return out, nil
}

// ListEntriesByReason returns every entry of the account tagged with reason.
func (s *LedgerStore) ListEntriesByReason(_ context.Context, accountID string, reason string) ([]domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.accounts[accountID]; !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrAccountNotFound, accountID)
	}

	out := []domain.LedgerEntry{}
	for _, e := range s.entries[accountID] {
		if e.Reason == reason {
			out = append(out, e)
		}
	}
	return out, nil
}

// CreateAccount stores a new account and its optional opening entry.
func (s *LedgerStore) CreateAccount(_ context.Context, account domain.CoinAccount, opening *domain.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.AccountID]; exists {
		return fmt.Errorf("%w: account with ID %s already exists", apperrors.ErrDuplicate, account.AccountID)
	}

	s.accounts[account.AccountID] = account
	s.entries[account.AccountID] = nil
	s.idem[account.AccountID] = make(map[string]int64)
	if opening != nil {
		s.entries[account.AccountID] = []domain.LedgerEntry{*opening}
		if opening.IdempotencyKey != nil {
			s.idem[account.AccountID][*opening.IdempotencyKey] = opening.Sequence
		}
	}
	return nil
}

// WithAccountLock serializes fn against every other mutation of the same account.
func (s *LedgerStore) WithAccountLock(ctx context.Context, accountID string, fn func(ctx context.Context, locked portsrepo.LockedAccount) error) error {
	unlock, err := s.locks.Lock(ctx, accountID)
	if err != nil {
		return err
	}
	defer unlock()

	acc, err := s.FindAccountByID(ctx, accountID)
	if err != nil {
		return err
	}

	locked := &lockedAccount{store: s, account: *acc}
	if err := fn(context.WithoutCancel(ctx), locked); err != nil {
		return err
	}
	if len(locked.staged) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[accountID] = append(s.entries[accountID], locked.staged...)
	for _, e := range locked.staged {
		if e.IdempotencyKey != nil {
			s.idem[accountID][*e.IdempotencyKey] = e.Sequence
		}
	}
	s.accounts[accountID] = locked.account
	return nil
}

type lockedAccount struct {
	store   *LedgerStore
	account domain.CoinAccount
	staged  []domain.LedgerEntry
}

func (l *lockedAccount) Account() domain.CoinAccount {
	return l.account
}

func (l *lockedAccount) FindEntryByIdempotencyKey(_ context.Context, key string) (*domain.LedgerEntry, error) {
	for i := range l.staged {
		if k := l.staged[i].IdempotencyKey; k != nil && *k == key {
			e := l.staged[i]
			return &e, nil
		}
	}

	l.store.mu.RLock()
	defer l.store.mu.RUnlock()
	seq, ok := l.store.idem[l.account.AccountID][key]
	if !ok {
		return nil, nil
	}
	e := l.store.entries[l.account.AccountID][seq-1]
	return &e, nil
}

func (l *lockedAccount) Entries(_ context.Context) ([]domain.LedgerEntry, error) {
	l.store.mu.RLock()
	committed := l.store.entries[l.account.AccountID]
	out := make([]domain.LedgerEntry, 0, len(committed)+len(l.staged))
	out = append(out, committed...)
	l.store.mu.RUnlock()
	return append(out, l.staged...), nil
}

func (l *lockedAccount) Apply(ctx context.Context, entry domain.LedgerEntry) error {
	if err := checkApplicable(l.account, entry); err != nil {
		return err
	}
	if entry.IdempotencyKey != nil {
		existing, err := l.FindEntryByIdempotencyKey(ctx, *entry.IdempotencyKey)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: idempotency key %q already used on account %s", apperrors.ErrDuplicate, *entry.IdempotencyKey, entry.AccountID)
		}
	}

	l.staged = append(l.staged, entry)
	l.account.Balance = entry.ResultingBalance
	l.account.EntryCount = entry.Sequence
	l.account.LastUpdatedAt = entry.CreatedAt
	l.account.LastUpdatedBy = entry.CreatedBy
	return nil
}

// checkApplicable guards the store against entries that would break the log.
func checkApplicable(account domain.CoinAccount, entry domain.LedgerEntry) error {
	if entry.AccountID != account.AccountID {
		return fmt.Errorf("%w: entry for account %s applied to %s", apperrors.ErrLedgerInconsistent, entry.AccountID, account.AccountID)
	}
	if entry.Sequence != account.EntryCount+1 {
		return fmt.Errorf("%w: entry sequence %d does not follow %d", apperrors.ErrLedgerInconsistent, entry.Sequence, account.EntryCount)
	}
	if entry.ResultingBalance < 0 || entry.ResultingBalance != account.Balance+entry.Delta() {
		return fmt.Errorf("%w: entry resulting balance %d does not follow balance %d", apperrors.ErrLedgerInconsistent, entry.ResultingBalance, account.Balance)
	}
	return nil
}
