package ports

import (
	"context"
	"time"

	"github.com/SscSPs/study_coins/internal/core/domain"
)

// LedgerEventPublisher announces committed ledger entries to other systems.
// Publishing happens after commit; a failure never undoes the entry.
type LedgerEventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event domain.LedgerEvent) error
	Close() error
}

// LedgerMetrics records the outcome of ledger operations.
type LedgerMetrics interface {
	// ObserveMutation records one credit or debit attempt. outcome is "ok", "replayed" or an error kind.
	ObserveMutation(kind domain.EntryKind, outcome string, elapsed time.Duration)

	// ObserveLockWait records how long a mutation waited for the account lock.
	ObserveLockWait(elapsed time.Duration)
}
