package services

import (
	"github.com/SscSPs/study_coins/internal/core/ports"
	portsrepo "github.com/SscSPs/study_coins/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/study_coins/internal/core/ports/services"
	"github.com/SscSPs/study_coins/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, catalog portsrepo.GameCatalogReader, publisher ports.LedgerEventPublisher, metrics ports.LedgerMetrics) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Ledger = NewLedgerService(
		repos.LedgerRepo,
		WithEventPublisher(publisher),
		WithLedgerMetrics(metrics),
		WithLockTimeout(cfg.LedgerLockTimeout),
	)

	// Game unlocks and quiz rewards only move coins through the ledger service.
	container.GameUnlock = NewGameUnlockService(container.Ledger, repos.LedgerRepo, catalog)
	container.QuizReward = NewQuizRewardService(container.Ledger, QuizRewardPolicy{
		CoinsPerCorrectAnswer: cfg.CoinsPerCorrectAnswer,
		PerfectScoreBonus:     cfg.PerfectScoreBonus,
	})

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.LedgerSvcFacade = (*ledgerService)(nil)
	_ portssvc.GameUnlockSvc   = (*gameUnlockService)(nil)
	_ portssvc.QuizRewardSvc   = (*quizRewardService)(nil)
)
