package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// @title Study Coins Ledger API
// @version 1.0
// @description Coin accounts, credits, debits and the audit log behind game unlocks and quiz rewards.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := newRootCommand(logger).ExecuteContext(context.Background()); err != nil {
		logger.Error("Command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCommand(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "coins_backend",
		Short:         "Study Coins ledger service",
		Long:          "Runs the coin ledger API and its maintenance tasks. Configuration is read from the environment and .env.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newServeCommand(logger))
	cmd.AddCommand(newMigrateCommand(logger))
	cmd.AddCommand(newVerifyCommand(logger))

	return cmd
}
