// Package badgerdb implements the ledger ports on an embedded BadgerDB.
//
// Layout:
//
//	acct/<accountID>                        -> JSON domain.CoinAccount
//	entry/<len>:<accountID>/<sequence>      -> JSON domain.LedgerEntry (sequence zero padded to 20 digits)
//	idem/<len>:<accountID>/<key>            -> sequence of the entry recorded under key
//
// <len> is the byte length of the account ID, so no account's prefix is a prefix of another's.
package badgerdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"

	"github.com/SscSPs/study_coins/internal/apperrors"
	"github.com/SscSPs/study_coins/internal/core/domain"
	portsrepo "github.com/SscSPs/study_coins/internal/core/ports/repositories"
	"github.com/SscSPs/study_coins/internal/repositories/locking"
	"github.com/dgraph-io/badger/v4"
)

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens a BadgerDB at path, or in memory when path is empty.
func Open(path string, logger *slog.Logger) (*badger.DB, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", path, err)
		}
		opts = badger.DefaultOptions(path).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1)

	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return db, nil
}

// LedgerStore persists the ledger in BadgerDB.
// Each mutation runs in one read-write transaction while the account lock is held.
type LedgerStore struct {
	db    *badger.DB
	locks *locking.AccountLocks
}

// NewLedgerStore wraps an opened database. The caller keeps ownership of db.
func NewLedgerStore(db *badger.DB) *LedgerStore {
	return &LedgerStore{db: db, locks: locking.NewAccountLocks()}
}

// Ensure LedgerStore implements portsrepo.LedgerRepositoryFacade
var _ portsrepo.LedgerRepositoryFacade = (*LedgerStore)(nil)

func accountKey(accountID string) []byte {
	return []byte("acct/" + accountID)
}

// scopedKey builds "<namespace>/<len>:<accountID>/".
func scopedKey(namespace, accountID string) []byte {
	return []byte(namespace + "/" + strconv.Itoa(len(accountID)) + ":" + accountID + "/")
}

func entryPrefix(accountID string) []byte {
	return scopedKey("entry", accountID)
}

func entryKey(accountID string, sequence int64) []byte {
	return append(entryPrefix(accountID), fmt.Sprintf("%020d", sequence)...)
}

func idemKey(accountID, key string) []byte {
	return append(scopedKey("idem", accountID), key...)
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: badger %s: %w", apperrors.ErrStorageUnavailable, op, err)
}

func getJSON(txn *badger.Txn, key []byte, out interface{}) (bool, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

func setJSON(txn *badger.Txn, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

func findAccount(txn *badger.Txn, accountID string) (*domain.CoinAccount, error) {
	var acc domain.CoinAccount
	found, err := getJSON(txn, accountKey(accountID), &acc)
	if err != nil {
		return nil, storageErr("get account", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrAccountNotFound, accountID)
	}
	return &acc, nil
}

// FindAccountByID reads an account.
func (s *LedgerStore) FindAccountByID(_ context.Context, accountID string) (*domain.CoinAccount, error) {
	var acc *domain.CoinAccount
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		acc, err = findAccount(txn, accountID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// ListEntries returns up to limit entries after afterSequence, in sequence order.
func (s *LedgerStore) ListEntries(_ context.Context, accountID string, afterSequence int64, limit int) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	err := s.db.View(func(txn *badger.Txn) error {
		if _, err := findAccount(txn, accountID); err != nil {
			return err
		}
		var err error
		entries, err = scanEntries(txn, accountID, afterSequence, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func scanEntries(txn *badger.Txn, accountID string, afterSequence int64, limit int) ([]domain.LedgerEntry, error) {
	entries := []domain.LedgerEntry{}
	if afterSequence == math.MaxInt64 {
		return entries, nil
	}

	prefix := entryPrefix(accountID)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	for it.Seek(entryKey(accountID, afterSequence+1)); it.ValidForPrefix(prefix); it.Next() {
		if limit > 0 && len(entries) >= limit {
			break
		}
		var e domain.LedgerEntry
		if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &e) }); err != nil {
			return nil, storageErr("read entry", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ListEntriesByReason scans the account log for entries tagged with reason.
func (s *LedgerStore) ListEntriesByReason(ctx context.Context, accountID string, reason string) ([]domain.LedgerEntry, error) {
	all, err := s.ListEntries(ctx, accountID, 0, 0)
	if err != nil {
		return nil, err
	}
	out := []domain.LedgerEntry{}
	for _, e := range all {
		if e.Reason == reason {
			out = append(out, e)
		}
	}
	return out, nil
}

// CreateAccount writes the account and its opening entry in one transaction.
func (s *LedgerStore) CreateAccount(ctx context.Context, account domain.CoinAccount, opening *domain.LedgerEntry) error {
	unlock, err := s.locks.Lock(ctx, account.AccountID)
	if err != nil {
		return err
	}
	defer unlock()

	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(accountKey(account.AccountID))
		if err == nil {
			return fmt.Errorf("%w: account with ID %s already exists", apperrors.ErrDuplicate, account.AccountID)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return storageErr("get account", err)
		}

		if opening != nil {
			if err := writeEntry(txn, *opening); err != nil {
				return err
			}
		}
		if err := setJSON(txn, accountKey(account.AccountID), account); err != nil {
			return storageErr("write account", err)
		}
		return nil
	})
	return err
}

// WithAccountLock runs fn inside a read-write transaction on the locked account.
func (s *LedgerStore) WithAccountLock(ctx context.Context, accountID string, fn func(ctx context.Context, locked portsrepo.LockedAccount) error) error {
	unlock, err := s.locks.Lock(ctx, accountID)
	if err != nil {
		return err
	}
	defer unlock()

	txn := s.db.NewTransaction(true)
	defer txn.Discard()

	acc, err := findAccount(txn, accountID)
	if err != nil {
		return err
	}

	locked := &lockedAccount{txn: txn, account: *acc}
	if err := fn(context.WithoutCancel(ctx), locked); err != nil {
		return err
	}
	if !locked.dirty {
		return nil
	}
	if err := txn.Commit(); err != nil {
		return storageErr("commit", err)
	}
	return nil
}

func writeEntry(txn *badger.Txn, entry domain.LedgerEntry) error {
	if err := setJSON(txn, entryKey(entry.AccountID, entry.Sequence), entry); err != nil {
		return storageErr("write entry", err)
	}
	if entry.IdempotencyKey != nil {
		seq := strconv.FormatInt(entry.Sequence, 10)
		if err := txn.Set(idemKey(entry.AccountID, *entry.IdempotencyKey), []byte(seq)); err != nil {
			return storageErr("write idempotency key", err)
		}
	}
	return nil
}

type lockedAccount struct {
	txn     *badger.Txn
	account domain.CoinAccount
	dirty   bool
}

func (l *lockedAccount) Account() domain.CoinAccount {
	return l.account
}

func (l *lockedAccount) FindEntryByIdempotencyKey(_ context.Context, key string) (*domain.LedgerEntry, error) {
	item, err := l.txn.Get(idemKey(l.account.AccountID, key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get idempotency key", err)
	}

	var seq int64
	if err := item.Value(func(val []byte) error {
		var perr error
		seq, perr = strconv.ParseInt(string(val), 10, 64)
		return perr
	}); err != nil {
		return nil, storageErr("read idempotency key", err)
	}

	var e domain.LedgerEntry
	found, err := getJSON(l.txn, entryKey(l.account.AccountID, seq), &e)
	if err != nil {
		return nil, storageErr("get entry", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: idempotency key %q points at missing entry %d", apperrors.ErrLedgerInconsistent, key, seq)
	}
	return &e, nil
}

func (l *lockedAccount) Entries(_ context.Context) ([]domain.LedgerEntry, error) {
	return scanEntries(l.txn, l.account.AccountID, 0, 0)
}

func (l *lockedAccount) Apply(ctx context.Context, entry domain.LedgerEntry) error {
	if entry.AccountID != l.account.AccountID || entry.Sequence != l.account.EntryCount+1 ||
		entry.ResultingBalance < 0 || entry.ResultingBalance != l.account.Balance+entry.Delta() {
		return fmt.Errorf("%w: entry %d does not follow account %s at sequence %d",
			apperrors.ErrLedgerInconsistent, entry.Sequence, l.account.AccountID, l.account.EntryCount)
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

	next := l.account
	next.Balance = entry.ResultingBalance
	next.EntryCount = entry.Sequence
	next.LastUpdatedAt = entry.CreatedAt
	next.LastUpdatedBy = entry.CreatedBy

	if err := writeEntry(l.txn, entry); err != nil {
		return err
	}
	if err := setJSON(l.txn, accountKey(next.AccountID), next); err != nil {
		return storageErr("write account", err)
	}
	l.account = next
	l.dirty = true
	return nil
}
