package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/study_coins/internal/core/ports/services"
	"github.com/SscSPs/study_coins/internal/dto"
	"github.com/SscSPs/study_coins/internal/middleware"
	"github.com/gin-gonic/gin"
)

type gameHandler struct {
	gameService portssvc.GameUnlockSvc
}

// RegisterGameRoutes registers the catalog and unlock routes.
func RegisterGameRoutes(rg *gin.RouterGroup, gameService portssvc.GameUnlockSvc) {
	h := &gameHandler{gameService: gameService}

	rg.GET("/games", h.listGames)
	rg.GET("/accounts/:accountID/games", h.listUnlockedGames)
	rg.POST("/accounts/:accountID/games/:gameID/unlock", h.unlockGame)
}

// listGames godoc
// @Summary List games
// @Description Returns the game catalog with prices
// @Tags games
// @Produce  json
// @Success 200 {object} dto.ListGamesResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /games [get]
func (h *gameHandler) listGames(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ListGamesResponse{Games: h.gameService.ListGames(c.Request.Context())})
}

// listUnlockedGames godoc
// @Summary List unlocked games
// @Description Returns the free games plus the games the account has unlocked
// @Tags games
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Success 200 {object} dto.ListGamesResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Security BearerAuth
// @Router /accounts/{accountID}/games [get]
func (h *gameHandler) listUnlockedGames(c *gin.Context) {
	accountID := c.Param("accountID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", accountID))

	games, err := h.gameService.ListUnlockedGames(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, logger, err, "list unlocked games")
		return
	}
	c.JSON(http.StatusOK, dto.ListGamesResponse{Games: games})
}

// unlockGame godoc
// @Summary Unlock a game
// @Description Debits the game's price once. Unlocking an owned or free game reports alreadyUnlocked.
// @Tags games
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Param   gameID path string true "Game ID"
// @Success 200 {object} domain.UnlockResult
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Account or game not found"
// @Failure 409 {object} dto.ErrorResponse "INSUFFICIENT_BALANCE"
// @Failure 503 {object} dto.ErrorResponse "STORAGE_UNAVAILABLE"
// @Security BearerAuth
// @Router /accounts/{accountID}/games/{gameID}/unlock [post]
func (h *gameHandler) unlockGame(c *gin.Context) {
	accountID := c.Param("accountID")
	gameID := c.Param("gameID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(
		slog.String("account_id", accountID),
		slog.String("game_id", gameID),
	)

	actorID, ok := callerID(c, logger)
	if !ok {
		return
	}

	result, err := h.gameService.UnlockGame(c.Request.Context(), accountID, gameID, actorID)
	if err != nil {
		respondError(c, logger, err, "unlock game")
		return
	}

	if !result.AlreadyUnlocked {
		logger.Info("Game unlocked", slog.Int64("price", result.Game.Price), slog.Int64("new_balance", result.NewBalance))
	}
	c.JSON(http.StatusOK, result)
}
