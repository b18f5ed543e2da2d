// Package catalog loads the games that can be unlocked with coins.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/SscSPs/study_coins/internal/apperrors"
	"github.com/SscSPs/study_coins/internal/core/domain"
	portsrepo "github.com/SscSPs/study_coins/internal/core/ports/repositories"
	"gopkg.in/yaml.v3"
)

// defaultCatalog is served when no catalog file is configured.
const defaultCatalog = `
games:
  - id: word-sprint
    title: Word Sprint
    price: 0
  - id: flashcard-duel
    title: Flashcard Duel
    price: 100
  - id: epic-era-battles
    title: Epic Era Battles
    price: 200
  - id: periodic-table-quest
    title: Periodic Table Quest
    price: 350
`

type catalogFile struct {
	Games []domain.Game `yaml:"games"`
}

// Catalog is an immutable, ordered set of games.
type Catalog struct {
	games []domain.Game
	byID  map[string]int
}

var _ portsrepo.GameCatalogReader = (*Catalog)(nil)

// Load reads the catalog at path, or the built-in catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse([]byte(defaultCatalog))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read game catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("game catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML catalog. Game IDs must be unique and non-empty; prices must not be negative.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: invalid catalog yaml: %w", apperrors.ErrValidation, err)
	}

	c := &Catalog{games: make([]domain.Game, 0, len(file.Games)), byID: make(map[string]int, len(file.Games))}
	for i, g := range file.Games {
		g.GameID = strings.TrimSpace(g.GameID)
		if g.GameID == "" {
			return nil, fmt.Errorf("%w: game #%d has no id", apperrors.ErrValidation, i+1)
		}
		if g.Price < 0 {
			return nil, fmt.Errorf("%w: game %s has negative price %d", apperrors.ErrValidation, g.GameID, g.Price)
		}
		if _, dup := c.byID[g.GameID]; dup {
			return nil, fmt.Errorf("%w: game %s is listed twice", apperrors.ErrValidation, g.GameID)
		}
		if g.Title == "" {
			g.Title = g.GameID
		}
		c.byID[g.GameID] = len(c.games)
		c.games = append(c.games, g)
	}
	return c, nil
}

// ListGames returns a copy of the games in file order.
func (c *Catalog) ListGames() []domain.Game {
	out := make([]domain.Game, len(c.games))
	copy(out, c.games)
	return out
}

// FindGame looks a game up by ID.
func (c *Catalog) FindGame(gameID string) (*domain.Game, error) {
	i, ok := c.byID[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: game %s", apperrors.ErrNotFound, gameID)
	}
	g := c.games[i]
	return &g, nil
}
