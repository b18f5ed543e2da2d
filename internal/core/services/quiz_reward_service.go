package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/study_coins/internal/core/domain"
	portssvc "github.com/SscSPs/study_coins/internal/core/ports/services"
)

const quizAttemptKeyPrefix = "quiz-attempt:"

// QuizRewardPolicy sets how many coins a quiz attempt earns.
type QuizRewardPolicy struct {
	CoinsPerCorrectAnswer int64
	PerfectScoreBonus     int64
}

// Reward returns the coins earned by attempt.
func (p QuizRewardPolicy) Reward(attempt domain.QuizAttempt) int64 {
	reward := p.CoinsPerCorrectAnswer * int64(attempt.CorrectAnswers)
	if attempt.IsPerfect() {
		reward += p.PerfectScoreBonus
	}
	return reward
}

type quizRewardService struct {
	BaseService
	ledger portssvc.LedgerSvcFacade
	policy QuizRewardPolicy
}

// NewQuizRewardService creates the service that pays coins for quiz attempts.
func NewQuizRewardService(ledger portssvc.LedgerSvcFacade, policy QuizRewardPolicy) portssvc.QuizRewardSvc {
	return &quizRewardService{ledger: ledger, policy: policy}
}

var _ portssvc.QuizRewardSvc = (*quizRewardService)(nil)

func (s *quizRewardService) RewardQuiz(ctx context.Context, accountID string, attempt domain.QuizAttempt, actorID string) (*domain.QuizRewardResult, error) {
	if err := validateStruct(attempt); err != nil {
		s.LogWarn(ctx, err, "Invalid quiz attempt",
			slog.String("account_id", accountID),
			slog.String("attempt_id", attempt.AttemptID))
		return nil, err
	}

	result := &domain.QuizRewardResult{QuizID: attempt.QuizID, AttemptID: attempt.AttemptID}

	reward := s.policy.Reward(attempt)
	if reward <= 0 {
		acc, err := s.ledger.GetAccount(ctx, accountID)
		if err != nil {
			return nil, err
		}
		result.NewBalance = acc.Balance
		return result, nil
	}

	resource := attempt.QuizID
	key := quizAttemptKeyPrefix + attempt.AttemptID
	res, err := s.ledger.Credit(ctx, domain.MutationRequest{
		AccountID:       accountID,
		Amount:          reward,
		Reason:          domain.ReasonQuizReward,
		RelatedResource: &resource,
		IdempotencyKey:  &key,
	}, actorID)
	if err != nil {
		return nil, err
	}

	result.Awarded = res.Entry.Amount
	result.NewBalance = res.NewBalance
	result.Replayed = res.Replayed
	return result, nil
}
