package repositories

import "github.com/SscSPs/study_coins/internal/core/domain"

// GameCatalogReader exposes the games that can be unlocked with coins.
type GameCatalogReader interface {
	// ListGames returns every game in catalog order.
	ListGames() []domain.Game

	// FindGame returns the game with gameID. Returns apperrors.ErrNotFound if it does not exist.
	FindGame(gameID string) (*domain.Game, error)
}
