package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/study_coins/internal/core/domain"
	portsrepo "github.com/SscSPs/study_coins/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/study_coins/internal/core/ports/services"
)

const gameUnlockKeyPrefix = "game-unlock:"

type gameUnlockService struct {
	BaseService
	ledger       portssvc.LedgerSvcFacade
	ledgerReader portsrepo.LedgerReader
	catalog      portsrepo.GameCatalogReader
}

// NewGameUnlockService creates the service that spends coins on games.
// Unlocks are recorded only as game_unlock debits; ledgerReader is used to read them back.
func NewGameUnlockService(ledger portssvc.LedgerSvcFacade, ledgerReader portsrepo.LedgerReader, catalog portsrepo.GameCatalogReader) portssvc.GameUnlockSvc {
	return &gameUnlockService{
		ledger:       ledger,
		ledgerReader: ledgerReader,
		catalog:      catalog,
	}
}

var _ portssvc.GameUnlockSvc = (*gameUnlockService)(nil)

func (s *gameUnlockService) ListGames(_ context.Context) []domain.Game {
	return s.catalog.ListGames()
}

func (s *gameUnlockService) ListUnlockedGames(ctx context.Context, accountID string) ([]domain.Game, error) {
	entries, err := s.ledgerReader.ListEntriesByReason(ctx, accountID, domain.ReasonGameUnlock)
	if err != nil {
		return nil, err
	}

	paid := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.Kind == domain.Debit && e.RelatedResource != nil {
			paid[*e.RelatedResource] = struct{}{}
		}
	}

	unlocked := []domain.Game{}
	for _, g := range s.catalog.ListGames() {
		if _, ok := paid[g.GameID]; ok || g.IsFree() {
			unlocked = append(unlocked, g)
		}
	}
	return unlocked, nil
}

func (s *gameUnlockService) UnlockGame(ctx context.Context, accountID string, gameID string, actorID string) (*domain.UnlockResult, error) {
	game, err := s.catalog.FindGame(gameID)
	if err != nil {
		s.LogWarn(ctx, err, "Unknown game", slog.String("game_id", gameID))
		return nil, err
	}

	if game.IsFree() {
		acc, err := s.ledger.GetAccount(ctx, accountID)
		if err != nil {
			return nil, err
		}
		return &domain.UnlockResult{Game: *game, NewBalance: acc.Balance, AlreadyUnlocked: true}, nil
	}

	resource := game.GameID
	key := gameUnlockKeyPrefix + game.GameID
	res, err := s.ledger.Debit(ctx, domain.MutationRequest{
		AccountID:       accountID,
		Amount:          game.Price,
		Reason:          domain.ReasonGameUnlock,
		RelatedResource: &resource,
		IdempotencyKey:  &key,
	}, actorID)
	if err != nil {
		return nil, err
	}

	if !res.Replayed {
		s.LogInfo(ctx, "Game unlocked",
			slog.String("account_id", accountID),
			slog.String("game_id", game.GameID),
			slog.Int64("price", game.Price))
	}
	return &domain.UnlockResult{Game: *game, NewBalance: res.NewBalance, AlreadyUnlocked: res.Replayed}, nil
}
