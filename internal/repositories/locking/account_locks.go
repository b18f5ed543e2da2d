// Package locking provides per-account mutual exclusion for the in-process ledger stores.
package locking

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/SscSPs/study_coins/internal/apperrors"
	"golang.org/x/sync/semaphore"
)

type accountLock struct {
	sem  *semaphore.Weighted
	refs int
}

// AccountLocks hands out one exclusive lock per account ID.
// Locks for different accounts never block each other. Entries are dropped when unused.
type AccountLocks struct {
	mu    sync.Mutex
	locks map[string]*accountLock
}

// NewAccountLocks creates an empty lock table.
func NewAccountLocks() *AccountLocks {
	return &AccountLocks{locks: make(map[string]*accountLock)}
}

// Lock blocks until the account lock is held or ctx is done.
// A context error is reported as apperrors.ErrStorageUnavailable. The returned func releases the lock.
func (l *AccountLocks) Lock(ctx context.Context, accountID string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[accountID]
	if !ok {
		lock = &accountLock{sem: semaphore.NewWeighted(1)}
		l.locks[accountID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	if err := lock.sem.Acquire(ctx, 1); err != nil {
		l.release(accountID, lock, false)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: timed out waiting for lock on account %s: %w", apperrors.ErrStorageUnavailable, accountID, err)
		}
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(accountID, lock, true) })
	}, nil
}

func (l *AccountLocks) release(accountID string, lock *accountLock, held bool) {
	if held {
		lock.sem.Release(1)
	}
	l.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, accountID)
	}
	l.mu.Unlock()
}

// Len reports how many accounts currently have a lock entry.
func (l *AccountLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
