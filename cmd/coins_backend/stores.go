package main

import (
	"context"
	"fmt"
	"log/slog"

	portsrepo "github.com/SscSPs/study_coins/internal/core/ports/repositories"
	"github.com/SscSPs/study_coins/internal/platform/config"
	"github.com/SscSPs/study_coins/internal/repositories/badgerdb"
	"github.com/SscSPs/study_coins/internal/repositories/database/pgsql"
	"github.com/SscSPs/study_coins/internal/repositories/memory"
	"github.com/SscSPs/study_coins/pkg/database"
)

// openRepositories builds the ledger store selected by cfg.LedgerStore.
// The returned cleanup func releases the store and is safe to call once.
func openRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrateUp bool) (portsrepo.RepositoryProvider, func(), error) {
	logger = logger.With(slog.String("ledger_store", cfg.LedgerStore))

	switch cfg.LedgerStore {
	case config.StorePostgres:
		if migrateUp {
			if err := runMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
				return portsrepo.RepositoryProvider{}, nil, err
			}
		}
		dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			return portsrepo.RepositoryProvider{}, nil, fmt.Errorf("failed to initialize database pool: %w", err)
		}
		logger.Info("Database connection pool established.")
		repos := pgsql.NewRepositoryProvider(dbPool, pgsql.LedgerOptions{
			LockTimeout:     cfg.LedgerLockTimeout,
			MutationTimeout: cfg.LedgerMutationTimeout,
		})
		return repos, func() { database.ClosePgxPool(dbPool) }, nil

	case config.StoreBadger:
		db, err := badgerdb.Open(cfg.BadgerPath, logger)
		if err != nil {
			return portsrepo.RepositoryProvider{}, nil, err
		}
		logger.Info("Badger ledger store opened", slog.String("path", cfg.BadgerPath))
		repos := portsrepo.RepositoryProvider{LedgerRepo: badgerdb.NewLedgerStore(db)}
		return repos, func() {
			if err := db.Close(); err != nil {
				logger.Error("Failed to close badger store", slog.String("error", err.Error()))
			}
		}, nil

	case config.StoreMemory:
		logger.Warn("Using the in-memory ledger store. Balances are lost on restart.")
		return portsrepo.RepositoryProvider{LedgerRepo: memory.NewLedgerStore()}, func() {}, nil
	}

	return portsrepo.RepositoryProvider{}, nil, fmt.Errorf("unsupported ledger store %q", cfg.LedgerStore)
}
