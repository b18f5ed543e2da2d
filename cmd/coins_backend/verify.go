package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/SscSPs/study_coins/internal/core/services"
	"github.com/SscSPs/study_coins/internal/platform/config"
	"github.com/spf13/cobra"
)

func newVerifyCommand(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <accountID>...",
		Short: "Replay account ledgers and compare them with stored balances",
		Long: `Replay the full entry log of each account and report whether it
matches the stored balance. Exits non-zero if any account is inconsistent.

Example:
  coins_backend verify student-42 student-43`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx := cmd.Context()
			repos, cleanup, err := openRepositories(ctx, cfg, logger, false)
			if err != nil {
				return err
			}
			defer cleanup()

			ledger := services.NewLedgerService(repos.LedgerRepo, services.WithLockTimeout(cfg.LedgerLockTimeout))
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			inconsistent := 0
			for _, accountID := range args {
				report, err := ledger.VerifyAccount(ctx, accountID)
				if err != nil {
					return fmt.Errorf("verify %s: %w", accountID, err)
				}
				if !report.Consistent {
					inconsistent++
				}
				if err := enc.Encode(report); err != nil {
					return err
				}
			}

			if inconsistent > 0 {
				return fmt.Errorf("%d of %d accounts are inconsistent", inconsistent, len(args))
			}
			return nil
		},
	}
}
