package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/study_coins/internal/apperrors"
	"github.com/SscSPs/study_coins/internal/core/domain"
	portssvc "github.com/SscSPs/study_coins/internal/core/ports/services"
	"github.com/SscSPs/study_coins/internal/dto"
	"github.com/SscSPs/study_coins/internal/handlers"
	"github.com/SscSPs/study_coins/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetAccount(ctx context.Context, accountID string) (*domain.CoinAccount, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CoinAccount), args.Error(1)
}
func (m *MockLedgerService) ListEntries(ctx context.Context, accountID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	args := m.Called(ctx, accountID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListEntriesResponse), args.Error(1)
}
func (m *MockLedgerService) OpenAccount(ctx context.Context, req dto.OpenAccountRequest, actorID string) (*domain.CoinAccount, error) {
	args := m.Called(ctx, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CoinAccount), args.Error(1)
}
func (m *MockLedgerService) Credit(ctx context.Context, req domain.MutationRequest, actorID string) (*domain.MutationResult, error) {
	args := m.Called(ctx, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MutationResult), args.Error(1)
}
func (m *MockLedgerService) Debit(ctx context.Context, req domain.MutationRequest, actorID string) (*domain.MutationResult, error) {
	args := m.Called(ctx, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MutationResult), args.Error(1)
}
func (m *MockLedgerService) VerifyAccount(ctx context.Context, accountID string) (*domain.VerificationReport, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationReport), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)

// --- Mock GameUnlockService ---
type MockGameUnlockService struct {
	mock.Mock
}

func (m *MockGameUnlockService) ListGames(ctx context.Context) []domain.Game {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Game)
}
func (m *MockGameUnlockService) ListUnlockedGames(ctx context.Context, accountID string) ([]domain.Game, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Game), args.Error(1)
}
func (m *MockGameUnlockService) UnlockGame(ctx context.Context, accountID string, gameID string, actorID string) (*domain.UnlockResult, error) {
	args := m.Called(ctx, accountID, gameID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UnlockResult), args.Error(1)
}

var _ portssvc.GameUnlockSvc = (*MockGameUnlockService)(nil)

// --- Mock QuizRewardService ---
type MockQuizRewardService struct {
	mock.Mock
}

func (m *MockQuizRewardService) RewardQuiz(ctx context.Context, accountID string, attempt domain.QuizAttempt, actorID string) (*domain.QuizRewardResult, error) {
	args := m.Called(ctx, accountID, attempt, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuizRewardResult), args.Error(1)
}

var _ portssvc.QuizRewardSvc = (*MockQuizRewardService)(nil)

// --- Test Suite Setup ---
type LedgerHandlerTestSuite struct {
	suite.Suite
	router          *gin.Engine
	mockLedger      *MockLedgerService
	mockGames       *MockGameUnlockService
	mockQuiz        *MockQuizRewardService
	jwtSecret       string
	callerID        string
	callerAuthToken string
}

func (suite *LedgerHandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(suite.jwtSecret))
	suite.Require().NoError(err)
	return signedToken
}

func (suite *LedgerHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.jwtSecret = "test-secret-for-handlers"
	suite.mockLedger = new(MockLedgerService)
	suite.mockGames = new(MockGameUnlockService)
	suite.mockQuiz = new(MockQuizRewardService)
	suite.callerID = "quiz-service-" + uuid.NewString()[:8]
	suite.callerAuthToken = suite.generateTestToken(suite.callerID)

	suite.router = gin.New()
	v1 := suite.router.Group("/api/v1", middleware.AuthMiddleware(suite.jwtSecret, ""))
	handlers.RegisterLedgerRoutes(v1, suite.mockLedger)
	handlers.RegisterGameRoutes(v1, suite.mockGames)
	handlers.RegisterQuizRoutes(v1, suite.mockQuiz)
}

func (suite *LedgerHandlerTestSuite) do(method, url string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, url, reader)
	req.Header.Set("Authorization", "Bearer "+suite.callerAuthToken)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *LedgerHandlerTestSuite) decodeError(w *httptest.ResponseRecorder) dto.ErrorResponse {
	var resp dto.ErrorResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func sampleResult(accountID string, kind domain.EntryKind, amount, balance int64, replayed bool) *domain.MutationResult {
	return &domain.MutationResult{
		Entry: domain.LedgerEntry{
			EntryID:          uuid.NewString(),
			AccountID:        accountID,
			Sequence:         2,
			Kind:             kind,
			Amount:           amount,
			Reason:           "test",
			ResultingBalance: balance,
			CreatedAt:        time.Now(),
		},
		NewBalance: balance,
		Replayed:   replayed,
	}
}

// --- Test Cases ---

func (suite *LedgerHandlerTestSuite) TestOpenAccount_Success() {
	req := dto.OpenAccountRequest{AccountID: "student-1", InitialGrant: 500}
	suite.mockLedger.On("OpenAccount", mock.Anything, req, suite.callerID).
		Return(&domain.CoinAccount{AccountID: "student-1", Balance: 500, EntryCount: 1}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/accounts", req, nil)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.AccountResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(int64(500), resp.Balance)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *LedgerHandlerTestSuite) TestOpenAccount_Duplicate() {
	req := dto.OpenAccountRequest{AccountID: "student-1"}
	suite.mockLedger.On("OpenAccount", mock.Anything, req, suite.callerID).
		Return(nil, fmt.Errorf("open: %w", apperrors.ErrDuplicate)).Once()

	w := suite.do(http.MethodPost, "/api/v1/accounts", req, nil)

	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal(apperrors.KindDuplicate, suite.decodeError(w).Kind)
}

func (suite *LedgerHandlerTestSuite) TestGetAccount_NotFound() {
	suite.mockLedger.On("GetAccount", mock.Anything, "ghost-id").
		Return(nil, fmt.Errorf("get: %w", apperrors.ErrAccountNotFound)).Once()

	w := suite.do(http.MethodGet, "/api/v1/accounts/ghost-id", nil, nil)

	suite.Equal(http.StatusNotFound, w.Code)
	resp := suite.decodeError(w)
	suite.Equal(apperrors.KindAccountNotFound, resp.Kind)
	suite.Equal("Account not found", resp.Message)
}

func (suite *LedgerHandlerTestSuite) TestCredit_PassesIdempotencyKey() {
	accountID := "student-1"
	suite.mockLedger.On("Credit", mock.Anything, mock.MatchedBy(func(r domain.MutationRequest) bool {
		return r.AccountID == accountID && r.Amount == 50 && r.Reason == "quiz_reward" &&
			r.IdempotencyKey != nil && *r.IdempotencyKey == "attempt-9"
	}), suite.callerID).Return(sampleResult(accountID, domain.Credit, 50, 350, false), nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/accounts/student-1/credit",
		map[string]any{"amount": 50, "reason": "quiz_reward"},
		map[string]string{handlers.IdempotencyKeyHeader: "attempt-9"})

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.MutationResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(int64(350), resp.NewBalance)
	suite.Equal(domain.Credit, resp.Entry.Kind)
	suite.False(resp.Replayed)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *LedgerHandlerTestSuite) TestMutation_InvalidAmounts() {
	for _, amount := range []any{0, -5, 12.5, "ten"} {
		w := suite.do(http.MethodPost, "/api/v1/accounts/student-1/debit",
			map[string]any{"amount": amount, "reason": "game_unlock"}, nil)
		suite.Equal(http.StatusBadRequest, w.Code, "amount %v", amount)
	}
	suite.mockLedger.AssertNotCalled(suite.T(), "Debit")
}

func (suite *LedgerHandlerTestSuite) TestMutation_MissingReason() {
	w := suite.do(http.MethodPost, "/api/v1/accounts/student-1/credit", map[string]any{"amount": 5}, nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apperrors.KindValidation, suite.decodeError(w).Kind)
	suite.mockLedger.AssertNotCalled(suite.T(), "Credit")
}

func (suite *LedgerHandlerTestSuite) TestDebit_InsufficientBalance() {
	suite.mockLedger.On("Debit", mock.Anything, mock.AnythingOfType("domain.MutationRequest"), suite.callerID).
		Return(nil, &apperrors.InsufficientBalanceError{AccountID: "student-1", CurrentBalance: 300, RequestedAmount: 1000}).Once()

	w := suite.do(http.MethodPost, "/api/v1/accounts/student-1/debit",
		map[string]any{"amount": 1000, "reason": "game_unlock"}, nil)

	suite.Equal(http.StatusConflict, w.Code)
	resp := suite.decodeError(w)
	suite.Equal(apperrors.KindInsufficientBalance, resp.Kind)
	suite.Require().NotNil(resp.CurrentBalance)
	suite.Require().NotNil(resp.RequestedAmount)
	suite.Equal(int64(300), *resp.CurrentBalance)
	suite.Equal(int64(1000), *resp.RequestedAmount)
}

func (suite *LedgerHandlerTestSuite) TestDebit_StorageUnavailable() {
	suite.mockLedger.On("Debit", mock.Anything, mock.AnythingOfType("domain.MutationRequest"), suite.callerID).
		Return(nil, apperrors.NewAppError(503, "failed to lock account", fmt.Errorf("%w: lock timeout", apperrors.ErrStorageUnavailable))).Once()

	w := suite.do(http.MethodPost, "/api/v1/accounts/student-1/debit",
		map[string]any{"amount": 10, "reason": "game_unlock"}, nil)

	suite.Equal(http.StatusServiceUnavailable, w.Code)
	resp := suite.decodeError(w)
	suite.Equal(apperrors.KindStorageUnavailable, resp.Kind)
	suite.NotContains(resp.Message, "lock timeout")
}

func (suite *LedgerHandlerTestSuite) TestListEntries_PassesParams() {
	token := "abc"
	suite.mockLedger.On("ListEntries", mock.Anything, "student-1", mock.MatchedBy(func(p dto.ListEntriesParams) bool {
		return p.Limit == 2 && p.NextToken != nil && *p.NextToken == token
	})).Return(&dto.ListEntriesResponse{Entries: []dto.EntryResponse{{Sequence: 3}, {Sequence: 4}}}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/accounts/student-1/entries?limit=2&nextToken="+token, nil, nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ListEntriesResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Entries, 2)
	suite.Nil(resp.NextToken)
}

func (suite *LedgerHandlerTestSuite) TestVerifyAccount() {
	report := &domain.VerificationReport{AccountID: "student-1", StoredBalance: 350, ReplayedBalance: 350, EntryCount: 3, Consistent: true}
	suite.mockLedger.On("VerifyAccount", mock.Anything, "student-1").Return(report, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/accounts/student-1/verify", nil, nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp domain.VerificationReport
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.True(resp.Consistent)
}

func (suite *LedgerHandlerTestSuite) TestRequiresAuthentication() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/accounts/student-1", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockLedger.AssertNotCalled(suite.T(), "GetAccount")
}

func (suite *LedgerHandlerTestSuite) TestUnlockGame() {
	result := &domain.UnlockResult{Game: domain.Game{GameID: "epic-era-battles", Price: 200}, NewBalance: 300}
	suite.mockGames.On("UnlockGame", mock.Anything, "student-1", "epic-era-battles", suite.callerID).Return(result, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/accounts/student-1/games/epic-era-battles/unlock", nil, nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp domain.UnlockResult
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(int64(300), resp.NewBalance)
	suite.False(resp.AlreadyUnlocked)
}

func (suite *LedgerHandlerTestSuite) TestUnlockGame_UnknownGame() {
	suite.mockGames.On("UnlockGame", mock.Anything, "student-1", "nope", suite.callerID).
		Return(nil, fmt.Errorf("game nope: %w", apperrors.ErrNotFound)).Once()

	w := suite.do(http.MethodPost, "/api/v1/accounts/student-1/games/nope/unlock", nil, nil)

	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal(apperrors.KindNotFound, suite.decodeError(w).Kind)
}

func (suite *LedgerHandlerTestSuite) TestListGames() {
	games := []domain.Game{{GameID: "word-sprint"}, {GameID: "flashcard-duel", Price: 100}}
	suite.mockGames.On("ListGames", mock.Anything).Return(games).Once()

	w := suite.do(http.MethodGet, "/api/v1/games", nil, nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ListGamesResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(games, resp.Games)
}

func (suite *LedgerHandlerTestSuite) TestRewardQuiz() {
	body := dto.QuizRewardRequest{QuizID: "algebra-1", AttemptID: "att-7", CorrectAnswers: 8, TotalQuestions: 10}
	suite.mockQuiz.On("RewardQuiz", mock.Anything, "student-1", body.ToQuizAttempt(), suite.callerID).
		Return(&domain.QuizRewardResult{QuizID: "algebra-1", AttemptID: "att-7", Awarded: 80, NewBalance: 80}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/accounts/student-1/quiz-rewards", body, nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp domain.QuizRewardResult
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(int64(80), resp.Awarded)
	suite.mockQuiz.AssertExpectations(suite.T())
}

// --- Run Test Suite ---
func TestLedgerHandler(t *testing.T) {
	suite.Run(t, new(LedgerHandlerTestSuite))
}
