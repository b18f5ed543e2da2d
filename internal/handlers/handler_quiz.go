package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/study_coins/internal/core/ports/services"
	"github.com/SscSPs/study_coins/internal/dto"
	"github.com/SscSPs/study_coins/internal/middleware"
	"github.com/gin-gonic/gin"
)

type quizHandler struct {
	quizService portssvc.QuizRewardSvc
}

// RegisterQuizRoutes registers the quiz reward route.
func RegisterQuizRoutes(rg *gin.RouterGroup, quizService portssvc.QuizRewardSvc) {
	h := &quizHandler{quizService: quizService}
	rg.POST("/accounts/:accountID/quiz-rewards", h.rewardQuiz)
}

// rewardQuiz godoc
// @Summary Reward a quiz attempt
// @Description Credits coins for a completed quiz. Resubmitting an attempt replays the original reward.
// @Tags quizzes
// @Accept  json
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Param   attempt body dto.QuizRewardRequest true "Quiz attempt"
// @Success 200 {object} domain.QuizRewardResult
// @Failure 400 {object} dto.ErrorResponse "Invalid attempt"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Failure 503 {object} dto.ErrorResponse "STORAGE_UNAVAILABLE"
// @Security BearerAuth
// @Router /accounts/{accountID}/quiz-rewards [post]
func (h *quizHandler) rewardQuiz(c *gin.Context) {
	accountID := c.Param("accountID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", accountID))

	var req dto.QuizRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}

	actorID, ok := callerID(c, logger)
	if !ok {
		return
	}

	result, err := h.quizService.RewardQuiz(c.Request.Context(), accountID, req.ToQuizAttempt(), actorID)
	if err != nil {
		respondError(c, logger, err, "reward quiz")
		return
	}
	c.JSON(http.StatusOK, result)
}
