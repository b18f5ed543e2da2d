package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/study_coins/internal/apperrors"
	"github.com/SscSPs/study_coins/internal/core/domain"
	portsrepo "github.com/SscSPs/study_coins/internal/core/ports/repositories"
	"github.com/SscSPs/study_coins/internal/models"
	"github.com/SscSPs/study_coins/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	accountColumns = `account_id, balance, entry_count, created_at, created_by, last_updated_at, last_updated_by`
	entryColumns   = `entry_id, account_id, sequence, kind, amount, reason, related_resource, idempotency_key, resulting_balance, created_at, created_by`
)

// LedgerOptions tunes how mutations hold row locks.
type LedgerOptions struct {
	// LockTimeout bounds the server-side wait for an account row lock. Zero keeps the server default.
	LockTimeout time.Duration
	// MutationTimeout bounds the work done while the row lock is held. Zero means no bound.
	MutationTimeout time.Duration
}

// PgxLedgerRepository stores coin accounts and ledger entries in PostgreSQL.
type PgxLedgerRepository struct {
	BaseRepository
	opts LedgerOptions
}

// newPgxLedgerRepository creates a new repository for ledger data.
func newPgxLedgerRepository(pool *pgxpool.Pool, opts LedgerOptions) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}, opts: opts}
}

// Ensure PgxLedgerRepository implements portsrepo.LedgerRepositoryFacade
var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

func scanAccount(row pgx.Row) (*domain.CoinAccount, error) {
	var m models.CoinAccount
	err := row.Scan(
		&m.AccountID,
		&m.Balance,
		&m.EntryCount,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	acc := mapping.ToDomainCoinAccount(m)
	return &acc, nil
}

func scanEntry(row pgx.Row) (domain.LedgerEntry, error) {
	var m models.LedgerEntry
	err := row.Scan(
		&m.EntryID,
		&m.AccountID,
		&m.Sequence,
		&m.Kind,
		&m.Amount,
		&m.Reason,
		&m.RelatedResource,
		&m.IdempotencyKey,
		&m.ResultingBalance,
		&m.CreatedAt,
		&m.CreatedBy,
	)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	return mapping.ToDomainLedgerEntry(m), nil
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

func queryEntries(ctx context.Context, q querier, query string, args ...interface{}) ([]domain.LedgerEntry, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError("failed to query ledger entries", err)
	}
	defer rows.Close()

	entries := []domain.LedgerEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, mapPgError("failed to scan ledger entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError("error iterating ledger entries", err)
	}
	return entries, nil
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxLedgerRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.CoinAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM coin_accounts WHERE account_id = $1;`

	acc, err := scanAccount(r.Pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrAccountNotFound, accountID)
		}
		return nil, mapPgError("failed to find account "+accountID, err)
	}
	return acc, nil
}

// ListEntries returns up to limit entries after afterSequence. A limit of 0 returns the rest of the log.
func (r *PgxLedgerRepository) ListEntries(ctx context.Context, accountID string, afterSequence int64, limit int) ([]domain.LedgerEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE account_id = $1 AND sequence > $2
		ORDER BY sequence
		LIMIT NULLIF($3::int, 0);
	`
	entries, err := queryEntries(ctx, r.Pool, query, accountID, afterSequence, limit)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		// Distinguish an exhausted log from an unknown account.
		if _, err := r.FindAccountByID(ctx, accountID); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// ListEntriesByReason returns every entry of the account tagged with reason.
func (r *PgxLedgerRepository) ListEntriesByReason(ctx context.Context, accountID string, reason string) ([]domain.LedgerEntry, error) {
	if _, err := r.FindAccountByID(ctx, accountID); err != nil {
		return nil, err
	}
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE account_id = $1 AND reason = $2
		ORDER BY sequence;
	`
	return queryEntries(ctx, r.Pool, query, accountID, reason)
}

// CreateAccount inserts the account and its opening entry in one transaction.
func (r *PgxLedgerRepository) CreateAccount(ctx context.Context, account domain.CoinAccount, opening *domain.LedgerEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(context.WithoutCancel(ctx), tx) // Will be ignored if transaction is committed successfully

	m := mapping.ToModelCoinAccount(account)
	query := `
		INSERT INTO coin_accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err = tx.Exec(ctx, query, m.AccountID, m.Balance, m.EntryCount, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy)
	if err != nil {
		mapped := mapPgError("failed to save account "+m.AccountID, err)
		if errors.Is(mapped, apperrors.ErrDuplicate) {
			return fmt.Errorf("%w: account with ID %s already exists", apperrors.ErrDuplicate, m.AccountID)
		}
		return mapped
	}

	if opening != nil {
		if err := insertEntry(ctx, tx, *opening); err != nil {
			return err
		}
	}
	return r.Commit(ctx, tx)
}

// WithAccountLock runs fn in a transaction holding the account row lock (SELECT ... FOR UPDATE).
func (r *PgxLedgerRepository) WithAccountLock(ctx context.Context, accountID string, fn func(ctx context.Context, locked portsrepo.LockedAccount) error) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(context.WithoutCancel(ctx), tx)

	if r.opts.LockTimeout > 0 {
		// SET does not accept bind parameters.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.opts.LockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return mapPgError("failed to set lock timeout", err)
		}
	}

	query := `SELECT ` + accountColumns + ` FROM coin_accounts WHERE account_id = $1 FOR UPDATE;`
	acc, err := scanAccount(tx.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", apperrors.ErrAccountNotFound, accountID)
		}
		return mapPgError("failed to lock account "+accountID, err)
	}

	work := context.WithoutCancel(ctx)
	if r.opts.MutationTimeout > 0 {
		var cancel context.CancelFunc
		work, cancel = context.WithTimeout(work, r.opts.MutationTimeout)
		defer cancel()
	}

	locked := &pgxLockedAccount{tx: tx, account: *acc}
	if err := fn(work, locked); err != nil {
		return err
	}
	return r.Commit(work, tx)
}

func insertEntry(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry) error {
	m := mapping.ToModelLedgerEntry(entry)
	query := `
		INSERT INTO ledger_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := tx.Exec(ctx, query,
		m.EntryID,
		m.AccountID,
		m.Sequence,
		m.Kind,
		m.Amount,
		m.Reason,
		m.RelatedResource,
		m.IdempotencyKey,
		m.ResultingBalance,
		m.CreatedAt,
		m.CreatedBy,
	)
	if err != nil {
		return mapPgError("failed to insert ledger entry "+m.EntryID, err)
	}
	return nil
}

type pgxLockedAccount struct {
	tx      pgx.Tx
	account domain.CoinAccount
}

func (l *pgxLockedAccount) Account() domain.CoinAccount {
	return l.account
}

func (l *pgxLockedAccount) FindEntryByIdempotencyKey(ctx context.Context, key string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE account_id = $1 AND idempotency_key = $2;`
	e, err := scanEntry(l.tx.QueryRow(ctx, query, l.account.AccountID, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapPgError("failed to look up idempotency key", err)
	}
	return &e, nil
}

func (l *pgxLockedAccount) Entries(ctx context.Context) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE account_id = $1 ORDER BY sequence ASC;`
	return queryEntries(ctx, l.tx, query, l.account.AccountID)
}

func (l *pgxLockedAccount) Apply(ctx context.Context, entry domain.LedgerEntry) error {
	if entry.AccountID != l.account.AccountID || entry.Sequence != l.account.EntryCount+1 ||
		entry.ResultingBalance != l.account.Balance+entry.Delta() {
		return fmt.Errorf("%w: entry %d does not follow account %s at sequence %d",
			apperrors.ErrLedgerInconsistent, entry.Sequence, l.account.AccountID, l.account.EntryCount)
	}

	query := `
		UPDATE coin_accounts
		SET balance = $2, entry_count = $3, last_updated_at = $4, last_updated_by = $5
		WHERE account_id = $1 AND entry_count = $6;
	`
	tag, err := l.tx.Exec(ctx, query, entry.AccountID, entry.ResultingBalance, entry.Sequence, entry.CreatedAt, entry.CreatedBy, l.account.EntryCount)
	if err != nil {
		return mapPgError("failed to update balance for account "+entry.AccountID, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("%w: account %s moved while locked", apperrors.ErrLedgerInconsistent, entry.AccountID)
	}

	if err := insertEntry(ctx, l.tx, entry); err != nil {
		return err
	}

	l.account.Balance = entry.ResultingBalance
	l.account.EntryCount = entry.Sequence
	l.account.LastUpdatedAt = entry.CreatedAt
	l.account.LastUpdatedBy = entry.CreatedBy
	return nil
}
