package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SscSPs/study_coins/internal/core/domain"
	portssvc "github.com/SscSPs/study_coins/internal/core/ports/services"
	"github.com/SscSPs/study_coins/internal/dto"
	"github.com/SscSPs/study_coins/internal/middleware"
	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader carries the optional idempotency key of a credit or debit.
const IdempotencyKeyHeader = "Idempotency-Key"

// ledgerHandler handles HTTP requests for coin accounts and their ledgers.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newLedgerHandler(ls portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{ledgerService: ls}
}

// RegisterLedgerRoutes registers routes for coin accounts, credits, debits and audits.
func RegisterLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.openAccount)
		accounts.GET("/:accountID", h.getAccount)
		accounts.POST("/:accountID/credit", h.credit)
		accounts.POST("/:accountID/debit", h.debit)
		accounts.GET("/:accountID/entries", h.listEntries)
		accounts.GET("/:accountID/verify", h.verifyAccount)
	}
}

// openAccount godoc
// @Summary Open a coin account
// @Description Provisions a coin account at balance 0. A positive initialGrant is recorded as an account_opening credit.
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   account body dto.OpenAccountRequest true "Account details"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input or negative grant"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} dto.ErrorResponse "Account already exists"
// @Failure 503 {object} dto.ErrorResponse "Storage unavailable"
// @Security BearerAuth
// @Router /accounts [post]
func (h *ledgerHandler) openAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.OpenAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}

	actorID, ok := callerID(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("account_id", req.AccountID))
	account, err := h.ledgerService.OpenAccount(c.Request.Context(), req, actorID)
	if err != nil {
		respondError(c, logger, err, "open account")
		return
	}

	logger.Info("Account opened successfully", slog.Int64("balance", account.Balance))
	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

// getAccount godoc
// @Summary Get a coin account
// @Description Returns the current balance of an account
// @Tags accounts
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Failure 503 {object} dto.ErrorResponse "Storage unavailable"
// @Security BearerAuth
// @Router /accounts/{accountID} [get]
func (h *ledgerHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", c.Param("accountID")))

	account, err := h.ledgerService.GetAccount(c.Request.Context(), c.Param("accountID"))
	if err != nil {
		respondError(c, logger, err, "retrieve account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// credit godoc
// @Summary Credit coins
// @Description Adds coins to an account and appends a CREDIT entry
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Param   Idempotency-Key header string false "Replays the original entry when reused"
// @Param   mutation body dto.MutationRequestBody true "Amount and reason"
// @Success 200 {object} dto.MutationResponse
// @Failure 400 {object} dto.ErrorResponse "INVALID_AMOUNT or VALIDATION"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "ACCOUNT_NOT_FOUND"
// @Failure 503 {object} dto.ErrorResponse "STORAGE_UNAVAILABLE"
// @Security BearerAuth
// @Router /accounts/{accountID}/credit [post]
func (h *ledgerHandler) credit(c *gin.Context) {
	h.mutate(c, "credit", h.ledgerService.Credit)
}

// debit godoc
// @Summary Debit coins
// @Description Removes coins from an account and appends a DEBIT entry. Never overdraws.
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Param   Idempotency-Key header string false "Replays the original entry when reused"
// @Param   mutation body dto.MutationRequestBody true "Amount, reason and related resource"
// @Success 200 {object} dto.MutationResponse
// @Failure 400 {object} dto.ErrorResponse "INVALID_AMOUNT or VALIDATION"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "ACCOUNT_NOT_FOUND"
// @Failure 409 {object} dto.ErrorResponse "INSUFFICIENT_BALANCE"
// @Failure 503 {object} dto.ErrorResponse "STORAGE_UNAVAILABLE"
// @Security BearerAuth
// @Router /accounts/{accountID}/debit [post]
func (h *ledgerHandler) debit(c *gin.Context) {
	h.mutate(c, "debit", h.ledgerService.Debit)
}

func (h *ledgerHandler) mutate(c *gin.Context, action string, apply mutationFunc) {
	accountID := c.Param("accountID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", accountID))

	var body dto.MutationRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, logger, err)
		return
	}

	actorID, ok := callerID(c, logger)
	if !ok {
		return
	}

	req, err := body.ToMutationRequest(accountID, c.GetHeader(IdempotencyKeyHeader))
	if err != nil {
		respondError(c, logger, err, action)
		return
	}

	result, err := apply(c.Request.Context(), req, actorID)
	if err != nil {
		respondError(c, logger, err, action)
		return
	}
	c.JSON(http.StatusOK, dto.ToMutationResponse(result))
}

// listEntries godoc
// @Summary List ledger entries
// @Description Returns an account's entries in sequence order, paginated with nextToken
// @Tags ledger
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Param   limit query int false "Page size (default 50, max 200)"
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListEntriesResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid token"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Security BearerAuth
// @Router /accounts/{accountID}/entries [get]
func (h *ledgerHandler) listEntries(c *gin.Context) {
	accountID := c.Param("accountID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", accountID))

	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, logger, err)
		return
	}

	resp, err := h.ledgerService.ListEntries(c.Request.Context(), accountID, params)
	if err != nil {
		respondError(c, logger, err, "list entries")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// verifyAccount godoc
// @Summary Verify an account's ledger
// @Description Replays the full entry log and compares it with the stored balance
// @Tags ledger
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Success 200 {object} domain.VerificationReport
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Failure 503 {object} dto.ErrorResponse "Storage unavailable"
// @Security BearerAuth
// @Router /accounts/{accountID}/verify [get]
func (h *ledgerHandler) verifyAccount(c *gin.Context) {
	accountID := c.Param("accountID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", accountID))

	report, err := h.ledgerService.VerifyAccount(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, logger, err, "verify account")
		return
	}
	c.JSON(http.StatusOK, report)
}

type mutationFunc func(ctx context.Context, req domain.MutationRequest, actorID string) (*domain.MutationResult, error)
