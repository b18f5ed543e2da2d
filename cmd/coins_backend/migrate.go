package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/study_coins/internal/platform/config"
	"github.com/spf13/cobra"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func newMigrateCommand(logger *slog.Logger) *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres ledger migrations",
		Long: `Apply every pending migration from MIGRATIONS_PATH to PGSQL_URL.

Example:
  coins_backend migrate
  coins_backend migrate --down`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.LedgerStore != config.StorePostgres {
				return fmt.Errorf("migrations only apply to LEDGER_STORE=%s, got %s", config.StorePostgres, cfg.LedgerStore)
			}
			if down {
				return rollbackMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger)
			}
			return runMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger)
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "roll back every migration instead of applying them")
	return cmd
}

// newMigrator opens a temporary standard sql.DB connection for migrations.
// It uses the pgx/v5/stdlib driver to stay compatible with the main pool.
func newMigrator(databaseURL string, migrationsPath string) (*migrate.Migrate, error) {
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection for migrations: %w", err)
	}
	if err := migrationDB.Ping(); err != nil {
		_ = migrationDB.Close()
		return nil, fmt.Errorf("failed to ping database for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		_ = migrationDB.Close()
		return nil, fmt.Errorf("could not create postgres driver instance for migrations: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(migrationsPath, "postgres", driver)
	if err != nil {
		_ = migrationDB.Close()
		return nil, fmt.Errorf("could not create migrate instance: %w", err)
	}
	return m, nil
}

func runMigrations(databaseURL string, migrationsPath string, logger *slog.Logger) error {
	logger.Info("Running database migrations...", slog.String("source", migrationsPath))
	m, err := newMigrator(databaseURL, migrationsPath)
	if err != nil {
		return err
	}

	upErr := m.Up()
	if err := closeMigrator(m); err != nil {
		return err
	}
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", upErr)
	}

	if errors.Is(upErr, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

func rollbackMigrations(databaseURL string, migrationsPath string, logger *slog.Logger) error {
	logger.Warn("Rolling back database migrations", slog.String("source", migrationsPath))
	m, err := newMigrator(databaseURL, migrationsPath)
	if err != nil {
		return err
	}

	downErr := m.Down()
	if err := closeMigrator(m); err != nil {
		return err
	}
	if downErr != nil && !errors.Is(downErr, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", downErr)
	}
	logger.Info("Database migrations rolled back.")
	return nil
}

func closeMigrator(m *migrate.Migrate) error {
	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return fmt.Errorf("migration source error: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("migration database error: %w", dbErr)
	}
	return nil
}
