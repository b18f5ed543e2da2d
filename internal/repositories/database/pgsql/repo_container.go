package pgsql

import (
	portsrepo "github.com/SscSPs/study_coins/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires the Postgres-backed repositories. The pool is owned by the caller.
func NewRepositoryProvider(dbPool *pgxpool.Pool, opts LedgerOptions) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		LedgerRepo: newPgxLedgerRepository(dbPool, opts),
	}
}
