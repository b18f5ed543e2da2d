package pgsql

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/SscSPs/study_coins/internal/apperrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres error codes the ledger reacts to.
const (
	pgUniqueViolation  = "23505"
	pgCheckViolation   = "23514"
	pgLockNotAvailable = "55P03"

	// Class 22 covers bad values such as over-long strings; retrying cannot help.
	pgDataExceptionClass = "22"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	Pool *pgxpool.Pool
}

// Begin starts a new database transaction
func (r *BaseRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, unavailable("failed to begin transaction", err)
	}
	return tx, nil
}

// Commit commits a transaction
func (r *BaseRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		return mapPgError("failed to commit transaction", err)
	}
	return nil
}

// Rollback rolls back a transaction
func (r *BaseRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return unavailable("failed to rollback transaction", err)
	}
	return nil
}

func unavailable(message string, err error) error {
	return apperrors.NewAppError(http.StatusServiceUnavailable, message, fmt.Errorf("%w: %w", apperrors.ErrStorageUnavailable, err))
}

// mapPgError classifies a database failure. Constraint violations and data exceptions keep
// their meaning; everything else the database reports is treated as the store being unavailable.
func mapPgError(message string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s: %s", apperrors.ErrDuplicate, message, pgErr.ConstraintName)
		case pgCheckViolation:
			return fmt.Errorf("%w: %s: %s", apperrors.ErrLedgerInconsistent, message, pgErr.ConstraintName)
		case pgLockNotAvailable:
			return unavailable("timed out waiting for account lock", err)
		}
		if strings.HasPrefix(pgErr.Code, pgDataExceptionClass) {
			return fmt.Errorf("%w: %s: %s", apperrors.ErrValidation, message, pgErr.Message)
		}
	}
	return unavailable(message, err)
}
