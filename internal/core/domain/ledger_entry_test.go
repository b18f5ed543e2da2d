package domain_test

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/study_coins/internal/apperrors"
	"github.com/SscSPs/study_coins/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutationRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     domain.MutationRequest
		wantErr error
	}{
		{
			name: "valid request",
			req:  domain.MutationRequest{AccountID: "acct", Amount: 10, Reason: domain.ReasonQuizReward},
		},
		{
			name:    "negative amount",
			req:     domain.MutationRequest{AccountID: "acct", Amount: -5, Reason: "x"},
			wantErr: apperrors.ErrInvalidAmount,
		},
		{
			name:    "zero amount",
			req:     domain.MutationRequest{AccountID: "acct", Amount: 0, Reason: "x"},
			wantErr: apperrors.ErrInvalidAmount,
		},
		{
			name:    "missing reason",
			req:     domain.MutationRequest{AccountID: "acct", Amount: 1, Reason: "  "},
			wantErr: apperrors.ErrValidation,
		},
		{
			name:    "missing account",
			req:     domain.MutationRequest{Amount: 1, Reason: "x"},
			wantErr: apperrors.ErrValidation,
		},
		{
			name:    "account ID with NUL byte",
			req:     domain.MutationRequest{AccountID: "a\x00x", Amount: 1, Reason: "x"},
			wantErr: apperrors.ErrValidation,
		},
		{
			name:    "account ID too long",
			req:     domain.MutationRequest{AccountID: strings.Repeat("a", domain.MaxAccountIDLength+1), Amount: 1, Reason: "x"},
			wantErr: apperrors.ErrValidation,
		},
		{
			name: "account ID at the limit",
			req:  domain.MutationRequest{AccountID: strings.Repeat("a", domain.MaxAccountIDLength), Amount: 1, Reason: "x"},
		},
		{
			name:    "reason too long",
			req:     domain.MutationRequest{AccountID: "acct", Amount: 1, Reason: strings.Repeat("r", domain.MaxReasonLength+1)},
			wantErr: apperrors.ErrValidation,
		},
		{
			name: "multibyte reason at the limit",
			req:  domain.MutationRequest{AccountID: "acct", Amount: 1, Reason: strings.Repeat("é", domain.MaxReasonLength)},
		},
		{
			name:    "related resource too long",
			req:     domain.MutationRequest{AccountID: "acct", Amount: 1, Reason: "x", RelatedResource: stringPtr(strings.Repeat("g", domain.MaxRelatedResourceLength+1))},
			wantErr: apperrors.ErrValidation,
		},
		{
			name:    "idempotency key too long",
			req:     domain.MutationRequest{AccountID: "acct", Amount: 1, Reason: "x", IdempotencyKey: stringPtr(strings.Repeat("k", domain.MaxIdempotencyKeyLength+1))},
			wantErr: apperrors.ErrValidation,
		},
		{
			name:    "idempotency key with control character",
			req:     domain.MutationRequest{AccountID: "acct", Amount: 1, Reason: "x", IdempotencyKey: stringPtr("key\n")},
			wantErr: apperrors.ErrValidation,
		},
		{
			name:    "blank idempotency key",
			req:     domain.MutationRequest{AccountID: "acct", Amount: 1, Reason: "x", IdempotencyKey: stringPtr("")},
			wantErr: apperrors.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNextEntry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	account := domain.CoinAccount{AccountID: "acct-1", Balance: 500, EntryCount: 1}

	t.Run("debit within balance", func(t *testing.T) {
		entry, err := domain.NextEntry(account, domain.Debit, domain.MutationRequest{
			AccountID:       "acct-1",
			Amount:          200,
			Reason:          domain.ReasonGameUnlock,
			RelatedResource: stringPtr("epic-era-battles"),
		}, now, "svc-games")
		require.NoError(t, err)
		assert.Equal(t, domain.Debit, entry.Kind)
		assert.Equal(t, int64(300), entry.ResultingBalance)
		assert.Equal(t, int64(2), entry.Sequence)
		assert.Equal(t, "epic-era-battles", *entry.RelatedResource)
		assert.Equal(t, now, entry.CreatedAt)
		assert.Equal(t, "svc-games", entry.CreatedBy)
		assert.NotEmpty(t, entry.EntryID)
	})

	t.Run("debit of the whole balance", func(t *testing.T) {
		entry, err := domain.NextEntry(account, domain.Debit, domain.MutationRequest{AccountID: "acct-1", Amount: 500, Reason: "x"}, now, "")
		require.NoError(t, err)
		assert.Equal(t, int64(0), entry.ResultingBalance)
	})

	t.Run("over-debit is rejected, not clamped", func(t *testing.T) {
		_, err := domain.NextEntry(account, domain.Debit, domain.MutationRequest{AccountID: "acct-1", Amount: 501, Reason: "x"}, now, "")
		require.ErrorIs(t, err, apperrors.ErrInsufficientBalance)

		var ibe *apperrors.InsufficientBalanceError
		require.ErrorAs(t, err, &ibe)
		assert.Equal(t, int64(500), ibe.CurrentBalance)
		assert.Equal(t, int64(501), ibe.RequestedAmount)
	})

	t.Run("credit", func(t *testing.T) {
		entry, err := domain.NextEntry(account, domain.Credit, domain.MutationRequest{AccountID: "acct-1", Amount: 50, Reason: domain.ReasonQuizReward}, now, "")
		require.NoError(t, err)
		assert.Equal(t, int64(550), entry.ResultingBalance)
		assert.Equal(t, int64(50), entry.Delta())
	})

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := domain.NextEntry(account, domain.Credit, domain.MutationRequest{AccountID: "acct-1", Amount: 0, Reason: "x"}, now, "")
		assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
	})
}

func TestReplay_RandomSequencesStayNonNegativeAndSelfConsistent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	now := time.Now().UTC()

	for run := 0; run < 50; run++ {
		account := domain.CoinAccount{AccountID: "acct"}
		var entries []domain.LedgerEntry

		for step := 0; step < 200; step++ {
			kind := domain.Credit
			if rng.Intn(2) == 0 {
				kind = domain.Debit
			}
			amount := int64(rng.Intn(100) + 1)

			entry, err := domain.NextEntry(account, kind, domain.MutationRequest{AccountID: "acct", Amount: amount, Reason: "r"}, now, "")
			if err != nil {
				require.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
				require.Equal(t, domain.Debit, kind)
				require.Less(t, account.Balance, amount)
				continue
			}
			require.GreaterOrEqual(t, entry.ResultingBalance, int64(0))

			entries = append(entries, entry)
			account.Balance = entry.ResultingBalance
			account.EntryCount = entry.Sequence
		}

		replayed, err := domain.Replay(entries)
		require.NoError(t, err)
		assert.Equal(t, account.Balance, replayed)
		assert.True(t, domain.Verify(account, entries).Consistent)
	}
}

func TestReplay_DebitThenCreditRestoresBalance(t *testing.T) {
	now := time.Now().UTC()
	account := domain.CoinAccount{AccountID: "acct", Balance: 120, EntryCount: 0}

	debit, err := domain.NextEntry(account, domain.Debit, domain.MutationRequest{AccountID: "acct", Amount: 70, Reason: "x"}, now, "")
	require.NoError(t, err)
	account.Balance, account.EntryCount = debit.ResultingBalance, debit.Sequence

	credit, err := domain.NextEntry(account, domain.Credit, domain.MutationRequest{AccountID: "acct", Amount: 70, Reason: "x"}, now, "")
	require.NoError(t, err)
	assert.Equal(t, int64(120), credit.ResultingBalance)
}

func TestReplay_DetectsTampering(t *testing.T) {
	base := []domain.LedgerEntry{
		{EntryID: "e1", Sequence: 1, Kind: domain.Credit, Amount: 500, ResultingBalance: 500},
		{EntryID: "e2", Sequence: 2, Kind: domain.Debit, Amount: 200, ResultingBalance: 300},
		{EntryID: "e3", Sequence: 3, Kind: domain.Credit, Amount: 50, ResultingBalance: 350},
	}

	balance, err := domain.Replay(base)
	require.NoError(t, err)
	assert.Equal(t, int64(350), balance)

	tests := []struct {
		name   string
		mutate func(entries []domain.LedgerEntry)
	}{
		{name: "wrong resulting balance", mutate: func(e []domain.LedgerEntry) { e[1].ResultingBalance = 301 }},
		{name: "sequence gap", mutate: func(e []domain.LedgerEntry) { e[2].Sequence = 4 }},
		{name: "non-positive amount", mutate: func(e []domain.LedgerEntry) { e[0].Amount = 0 }},
		{name: "debit below zero", mutate: func(e []domain.LedgerEntry) { e[1].Amount = 900; e[1].ResultingBalance = -400 }},
		{name: "unknown kind", mutate: func(e []domain.LedgerEntry) { e[2].Kind = "REFUND" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := append([]domain.LedgerEntry(nil), base...)
			tt.mutate(entries)
			_, err := domain.Replay(entries)
			assert.ErrorIs(t, err, apperrors.ErrLedgerInconsistent)
		})
	}
}

func TestVerify(t *testing.T) {
	entries := []domain.LedgerEntry{
		{EntryID: "e1", Sequence: 1, Kind: domain.Credit, Amount: 500, ResultingBalance: 500},
		{EntryID: "e2", Sequence: 2, Kind: domain.Debit, Amount: 200, ResultingBalance: 300},
	}

	ok := domain.Verify(domain.CoinAccount{AccountID: "a", Balance: 300, EntryCount: 2}, entries)
	assert.True(t, ok.Consistent)
	assert.Empty(t, ok.Problem)

	drifted := domain.Verify(domain.CoinAccount{AccountID: "a", Balance: 999, EntryCount: 2}, entries)
	assert.False(t, drifted.Consistent)
	assert.Equal(t, int64(300), drifted.ReplayedBalance)
	assert.Contains(t, drifted.Problem, "differs")

	missing := domain.Verify(domain.CoinAccount{AccountID: "a", Balance: 300, EntryCount: 3}, entries)
	assert.False(t, missing.Consistent)
}

func TestQuizAttempt_IsPerfect(t *testing.T) {
	assert.True(t, domain.QuizAttempt{CorrectAnswers: 5, TotalQuestions: 5}.IsPerfect())
	assert.False(t, domain.QuizAttempt{CorrectAnswers: 4, TotalQuestions: 5}.IsPerfect())
	assert.False(t, domain.QuizAttempt{}.IsPerfect())
}

func stringPtr(s string) *string {
	return &s
}

func TestValidateActorID(t *testing.T) {
	assert.NoError(t, domain.ValidateActorID("quiz-service"))
	assert.ErrorIs(t, domain.ValidateActorID(strings.Repeat("x", domain.MaxActorIDLength+1)), apperrors.ErrValidation)
	assert.ErrorIs(t, domain.ValidateActorID("bad\x7f"), apperrors.ErrValidation)
}
