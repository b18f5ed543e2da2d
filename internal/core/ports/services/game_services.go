package services

import (
	"context"

	"github.com/SscSPs/study_coins/internal/core/domain"
)

// GameUnlockSvc spends coins to unlock games from the catalog.
type GameUnlockSvc interface {
	// ListGames returns the catalog.
	ListGames(ctx context.Context) []domain.Game

	// ListUnlockedGames returns the free games plus every game the account has paid for.
	ListUnlockedGames(ctx context.Context, accountID string) ([]domain.Game, error)

	// UnlockGame debits the game's price once; unlocking again is a no-op that reports AlreadyUnlocked.
	UnlockGame(ctx context.Context, accountID string, gameID string, actorID string) (*domain.UnlockResult, error)
}

// QuizRewardSvc pays coins for completed quizzes.
type QuizRewardSvc interface {
	// RewardQuiz credits the reward for attempt. Each attempt is paid at most once.
	RewardQuiz(ctx context.Context, accountID string, attempt domain.QuizAttempt, actorID string) (*domain.QuizRewardResult, error)
}
