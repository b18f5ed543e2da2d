package apperrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/SscSPs/study_coins/internal/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperrors.ErrorKind
	}{
		{name: "nil", err: nil, want: ""},
		{name: "invalid amount", err: fmt.Errorf("debit: %w", apperrors.ErrInvalidAmount), want: apperrors.KindInvalidAmount},
		{name: "account not found", err: fmt.Errorf("lock: %w", apperrors.ErrAccountNotFound), want: apperrors.KindAccountNotFound},
		{name: "plain not found", err: apperrors.ErrNotFound, want: apperrors.KindNotFound},
		{
			name: "insufficient balance",
			err:  &apperrors.InsufficientBalanceError{AccountID: "a", CurrentBalance: 10, RequestedAmount: 20},
			want: apperrors.KindInsufficientBalance,
		},
		{
			name: "storage unavailable inside app error",
			err:  apperrors.NewAppError(503, "failed to begin transaction", fmt.Errorf("%w: conn refused", apperrors.ErrStorageUnavailable)),
			want: apperrors.KindStorageUnavailable,
		},
		{name: "validation", err: fmt.Errorf("%w: reason is required", apperrors.ErrValidation), want: apperrors.KindValidation},
		{name: "duplicate", err: apperrors.ErrDuplicate, want: apperrors.KindDuplicate},
		{name: "anything else", err: errors.New("boom"), want: apperrors.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperrors.KindOf(tt.err))
		})
	}
}

func TestAccountNotFoundMatchesNotFound(t *testing.T) {
	err := fmt.Errorf("debit ghost-id: %w", apperrors.ErrAccountNotFound)
	assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NotErrorIs(t, apperrors.ErrNotFound, apperrors.ErrAccountNotFound)
}

func TestInsufficientBalanceError(t *testing.T) {
	var err error = fmt.Errorf("debit: %w", &apperrors.InsufficientBalanceError{
		AccountID:       "acct-1",
		CurrentBalance:  100,
		RequestedAmount: 250,
	})

	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)

	var ibe *apperrors.InsufficientBalanceError
	if assert.ErrorAs(t, err, &ibe) {
		assert.Equal(t, int64(100), ibe.CurrentBalance)
		assert.Equal(t, int64(250), ibe.RequestedAmount)
	}
	assert.Contains(t, err.Error(), "current balance 100, requested 250")
}
