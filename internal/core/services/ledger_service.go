package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/study_coins/internal/apperrors"
	"github.com/SscSPs/study_coins/internal/core/domain"
	"github.com/SscSPs/study_coins/internal/core/ports"
	portsrepo "github.com/SscSPs/study_coins/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/study_coins/internal/core/ports/services"
	"github.com/SscSPs/study_coins/internal/dto"
	"github.com/SscSPs/study_coins/internal/utils/pagination"
)

const (
	defaultEntriesPageSize = 50
	maxEntriesPageSize     = 200
)

// ledgerService implements the CoinLedger on top of a LedgerRepositoryFacade.
type ledgerService struct {
	BaseService
	ledgerRepo  portsrepo.LedgerRepositoryFacade
	publisher   ports.LedgerEventPublisher
	metrics     ports.LedgerMetrics
	lockTimeout time.Duration
	now         func() time.Time
}

// LedgerServiceOption is a functional option for configuring the ledger service
type LedgerServiceOption func(*ledgerService)

// WithEventPublisher publishes an event for every committed entry.
func WithEventPublisher(p ports.LedgerEventPublisher) LedgerServiceOption {
	return func(s *ledgerService) {
		s.publisher = p
	}
}

// WithLedgerMetrics records mutation outcomes and lock waits.
func WithLedgerMetrics(m ports.LedgerMetrics) LedgerServiceOption {
	return func(s *ledgerService) {
		s.metrics = m
	}
}

// WithLockTimeout bounds how long a mutation waits for the account lock.
func WithLockTimeout(d time.Duration) LedgerServiceOption {
	return func(s *ledgerService) {
		s.lockTimeout = d
	}
}

// WithClock overrides the time source used for entry timestamps.
func WithClock(now func() time.Time) LedgerServiceOption {
	return func(s *ledgerService) {
		s.now = now
	}
}

// NewLedgerService creates the ledger service.
func NewLedgerService(repo portsrepo.LedgerRepositoryFacade, options ...LedgerServiceOption) portssvc.LedgerSvcFacade {
	svc := &ledgerService{
		ledgerRepo: repo,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Ensure ledgerService implements the LedgerSvcFacade interface
var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

func (s *ledgerService) OpenAccount(ctx context.Context, req dto.OpenAccountRequest, actorID string) (*domain.CoinAccount, error) {
	if err := validateStruct(req); err != nil {
		s.LogWarn(ctx, err, "Invalid open account request")
		return nil, err
	}
	if req.InitialGrant < 0 {
		return nil, fmt.Errorf("%w: initial grant %d", apperrors.ErrInvalidAmount, req.InitialGrant)
	}
	if err := domain.ValidateAccountID(req.AccountID); err != nil {
		s.LogWarn(ctx, err, "Invalid open account request")
		return nil, err
	}
	if err := domain.ValidateActorID(actorID); err != nil {
		s.LogWarn(ctx, err, "Invalid open account request")
		return nil, err
	}

	now := s.now()
	account := domain.CoinAccount{
		AccountID: req.AccountID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	var opening *domain.LedgerEntry
	if req.InitialGrant > 0 {
		entry, err := domain.NextEntry(account, domain.Credit, domain.MutationRequest{
			AccountID: req.AccountID,
			Amount:    req.InitialGrant,
			Reason:    domain.ReasonAccountOpening,
		}, now, actorID)
		if err != nil {
			return nil, err
		}
		opening = &entry
		account.Balance = entry.ResultingBalance
		account.EntryCount = entry.Sequence
	}

	if err := s.ledgerRepo.CreateAccount(ctx, account, opening); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			s.LogWarn(ctx, err, "Account already exists", slog.String("account_id", req.AccountID))
		} else {
			s.LogError(ctx, err, "Failed to create account", slog.String("account_id", req.AccountID))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Coin account opened",
		slog.String("account_id", account.AccountID),
		slog.Int64("initial_grant", req.InitialGrant))
	if opening != nil {
		s.publish(ctx, *opening)
	}
	return &account, nil
}

func (s *ledgerService) Credit(ctx context.Context, req domain.MutationRequest, actorID string) (*domain.MutationResult, error) {
	return s.mutate(ctx, domain.Credit, req, actorID)
}

func (s *ledgerService) Debit(ctx context.Context, req domain.MutationRequest, actorID string) (*domain.MutationResult, error) {
	return s.mutate(ctx, domain.Debit, req, actorID)
}

// mutate applies one credit or debit. The account lock is awaited under ctx (bounded by
// lockTimeout); once held, the read, compute, persist and log step completes as a unit.
func (s *ledgerService) mutate(ctx context.Context, kind domain.EntryKind, req domain.MutationRequest, actorID string) (*domain.MutationResult, error) {
	start := time.Now()
	logAttrs := []any{
		slog.String("account_id", req.AccountID),
		slog.String("kind", string(kind)),
		slog.Int64("amount", req.Amount),
		slog.String("reason", req.Reason),
	}

	err := req.Validate()
	if err == nil {
		err = domain.ValidateActorID(actorID)
	}
	if err != nil {
		s.observe(kind, err, false, start)
		s.LogWarn(ctx, err, "Ledger mutation rejected", logAttrs...)
		return nil, err
	}

	lockCtx := ctx
	if s.lockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, s.lockTimeout)
		defer cancel()
	}

	var result *domain.MutationResult
	err = s.ledgerRepo.WithAccountLock(lockCtx, req.AccountID, func(ctx context.Context, locked portsrepo.LockedAccount) error {
		if s.metrics != nil {
			s.metrics.ObserveLockWait(time.Since(start))
		}

		if req.IdempotencyKey != nil {
			existing, err := locked.FindEntryByIdempotencyKey(ctx, *req.IdempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				if existing.Kind != kind {
					return fmt.Errorf("%w: idempotency key %q was used for a %s", apperrors.ErrDuplicate, *req.IdempotencyKey, existing.Kind)
				}
				result = &domain.MutationResult{Entry: *existing, NewBalance: locked.Account().Balance, Replayed: true}
				return nil
			}
		}

		entry, err := domain.NextEntry(locked.Account(), kind, req, s.now(), actorID)
		if err != nil {
			return err
		}
		if err := locked.Apply(ctx, entry); err != nil {
			return err
		}
		result = &domain.MutationResult{Entry: entry, NewBalance: entry.ResultingBalance}
		return nil
	})
	if err != nil {
		s.observe(kind, err, false, start)
		switch apperrors.KindOf(err) {
		case apperrors.KindStorageUnavailable, apperrors.KindInternal:
			s.LogError(ctx, err, "Ledger mutation failed", logAttrs...)
		default:
			s.LogWarn(ctx, err, "Ledger mutation rejected", logAttrs...)
		}
		return nil, err
	}

	s.observe(kind, nil, result.Replayed, start)
	if result.Replayed {
		s.LogInfo(ctx, "Ledger mutation replayed", append(logAttrs,
			slog.String("entry_id", result.Entry.EntryID),
			slog.Int64("new_balance", result.NewBalance))...)
		return result, nil
	}

	s.LogInfo(ctx, "Ledger mutation committed", append(logAttrs,
		slog.String("entry_id", result.Entry.EntryID),
		slog.Int64("sequence", result.Entry.Sequence),
		slog.Int64("new_balance", result.NewBalance))...)
	s.publish(ctx, result.Entry)
	return result, nil
}

func (s *ledgerService) observe(kind domain.EntryKind, err error, replayed bool, start time.Time) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	switch {
	case err != nil:
		outcome = string(apperrors.KindOf(err))
	case replayed:
		outcome = "replayed"
	}
	s.metrics.ObserveMutation(kind, outcome, time.Since(start))
}

// publish announces a committed entry. Failures are logged only; the entry stands.
func (s *ledgerService) publish(ctx context.Context, entry domain.LedgerEntry) {
	if s.publisher == nil {
		return
	}
	event := domain.NewLedgerEvent(entry)
	if err := s.publisher.PublishLedgerEvent(context.WithoutCancel(ctx), event); err != nil {
		s.LogError(ctx, err, "Failed to publish ledger event",
			slog.String("entry_id", entry.EntryID),
			slog.String("event_type", string(event.Type)))
	}
}

func (s *ledgerService) GetAccount(ctx context.Context, accountID string) (*domain.CoinAccount, error) {
	acc, err := s.ledgerRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to get account", slog.String("account_id", accountID))
		}
		return nil, err
	}
	return acc, nil
}

func (s *ledgerService) ListEntries(ctx context.Context, accountID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultEntriesPageSize
	}
	if limit > maxEntriesPageSize {
		limit = maxEntriesPageSize
	}

	var after int64
	if params.NextToken != nil && *params.NextToken != "" {
		seq, err := pagination.DecodeSequenceToken(*params.NextToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
		}
		after = seq
	}

	// Fetch one extra entry to learn whether another page exists.
	entries, err := s.ledgerRepo.ListEntries(ctx, accountID, after, limit+1)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to list entries", slog.String("account_id", accountID))
		}
		return nil, err
	}

	resp := &dto.ListEntriesResponse{}
	if len(entries) > limit {
		entries = entries[:limit]
		token := pagination.EncodeSequenceToken(entries[len(entries)-1].Sequence)
		resp.NextToken = &token
	}
	resp.Entries = dto.ToEntryResponses(entries)
	return resp, nil
}

// VerifyAccount replays the log while holding the account lock, so no mutation interleaves.
func (s *ledgerService) VerifyAccount(ctx context.Context, accountID string) (*domain.VerificationReport, error) {
	lockCtx := ctx
	if s.lockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, s.lockTimeout)
		defer cancel()
	}

	var report domain.VerificationReport
	err := s.ledgerRepo.WithAccountLock(lockCtx, accountID, func(ctx context.Context, locked portsrepo.LockedAccount) error {
		entries, err := locked.Entries(ctx)
		if err != nil {
			return err
		}
		report = domain.Verify(locked.Account(), entries)
		return nil
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to verify account", slog.String("account_id", accountID))
		}
		return nil, err
	}

	if !report.Consistent {
		s.LogError(ctx, apperrors.ErrLedgerInconsistent, "Ledger verification failed",
			slog.String("account_id", accountID),
			slog.String("problem", report.Problem))
	} else {
		s.LogDebug(ctx, "Ledger verification passed",
			slog.String("account_id", accountID),
			slog.Int64("entry_count", report.EntryCount))
	}
	return &report, nil
}
