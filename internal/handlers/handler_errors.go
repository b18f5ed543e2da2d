package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/study_coins/internal/apperrors"
	"github.com/SscSPs/study_coins/internal/dto"
	"github.com/SscSPs/study_coins/internal/middleware"
	"github.com/gin-gonic/gin"
)

// statusForKind maps an error kind to its HTTP status.
func statusForKind(kind apperrors.ErrorKind) int {
	switch kind {
	case apperrors.KindInvalidAmount, apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindAccountNotFound, apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindInsufficientBalance, apperrors.KindDuplicate:
		return http.StatusConflict
	case apperrors.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the structured error body for err.
// Storage, internal and not-found failures get a generic message so no internals leak.
func respondError(c *gin.Context, logger *slog.Logger, err error, action string) {
	kind := apperrors.KindOf(err)
	status := statusForKind(kind)
	body := dto.ErrorResponse{Kind: kind, Message: err.Error()}

	switch kind {
	case apperrors.KindAccountNotFound:
		body.Message = "Account not found"
	case apperrors.KindNotFound:
		body.Message = "Resource not found"
	case apperrors.KindStorageUnavailable:
		body.Message = "Ledger storage is temporarily unavailable, please retry"
	case apperrors.KindInternal:
		body.Message = "Failed to " + action
	case apperrors.KindInsufficientBalance:
		var insufficient *apperrors.InsufficientBalanceError
		if errors.As(err, &insufficient) {
			body.CurrentBalance = &insufficient.CurrentBalance
			body.RequestedAmount = &insufficient.RequestedAmount
		}
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Failed to "+action, slog.String("error", err.Error()), slog.String("kind", string(kind)))
	} else {
		logger.Warn("Request rejected: "+action, slog.String("error", err.Error()), slog.String("kind", string(kind)))
	}
	c.JSON(status, body)
}

// respondBindError reports a malformed request body or query.
func respondBindError(c *gin.Context, logger *slog.Logger, err error) {
	logger.Warn("Failed to bind request", slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Kind:    apperrors.KindValidation,
		Message: "Invalid request format: " + err.Error(),
	})
}

// callerID returns the authenticated caller, writing 401 when it is missing.
func callerID(c *gin.Context, logger *slog.Logger) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Caller ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}
