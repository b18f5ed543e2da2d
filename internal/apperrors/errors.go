package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// Ledger failures. These are reported to callers unmodified (wrapped, never replaced).
var (
	// ErrInvalidAmount is returned when an amount is not a strictly positive integer.
	ErrInvalidAmount = errors.New("amount must be a positive integer")

	// ErrAccountNotFound is returned when a ledger operation targets an unknown account.
	// It also matches ErrNotFound.
	ErrAccountNotFound = &kindedError{msg: "account not found", parent: ErrNotFound}

	// ErrInsufficientBalance is matched by *InsufficientBalanceError.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrStorageUnavailable marks a transient failure of the account or log store.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrLedgerInconsistent is returned when a replayed log disagrees with itself or the stored balance.
	ErrLedgerInconsistent = errors.New("ledger is inconsistent")
)

type kindedError struct {
	msg    string
	parent error
}

func (e *kindedError) Error() string { return e.msg }

func (e *kindedError) Is(target error) bool { return target == e.parent }

// InsufficientBalanceError carries the diagnostics a UI needs to explain a rejected debit.
type InsufficientBalanceError struct {
	AccountID       string
	CurrentBalance  int64
	RequestedAmount int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for account %s: current balance %d, requested %d",
		e.AccountID, e.CurrentBalance, e.RequestedAmount)
}

// Is reports whether target is ErrInsufficientBalance.
func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// AppError wraps an infrastructure failure with a suggested HTTP status code.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error { return e.Err }

// ErrorKind is the stable, client-facing classification of an error.
type ErrorKind string

const (
	KindInvalidAmount       ErrorKind = "INVALID_AMOUNT"
	KindAccountNotFound     ErrorKind = "ACCOUNT_NOT_FOUND"
	KindInsufficientBalance ErrorKind = "INSUFFICIENT_BALANCE"
	KindStorageUnavailable  ErrorKind = "STORAGE_UNAVAILABLE"
	KindValidation          ErrorKind = "VALIDATION"
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindDuplicate           ErrorKind = "DUPLICATE"
	KindInternal            ErrorKind = "INTERNAL"
)

// KindOf classifies err. More specific kinds win over the generic ones they also match.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidAmount):
		return KindInvalidAmount
	case errors.Is(err, ErrAccountNotFound):
		return KindAccountNotFound
	case errors.Is(err, ErrInsufficientBalance):
		return KindInsufficientBalance
	case errors.Is(err, ErrStorageUnavailable):
		return KindStorageUnavailable
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrDuplicate):
		return KindDuplicate
	default:
		return KindInternal
	}
}
