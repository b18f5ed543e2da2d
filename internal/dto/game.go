package dto

import "github.com/SscSPs/study_coins/internal/core/domain"

// ListGamesResponse wraps the game catalog.
type ListGamesResponse struct {
	Games []domain.Game `json:"games"`
}

// QuizRewardRequest is the JSON body of a quiz reward call.
type QuizRewardRequest struct {
	QuizID         string `json:"quizID" binding:"required"`
	AttemptID      string `json:"attemptID" binding:"required"`
	CorrectAnswers int    `json:"correctAnswers"`
	TotalQuestions int    `json:"totalQuestions" binding:"required"`
}

// ToQuizAttempt converts the request into a domain.QuizAttempt.
func (r QuizRewardRequest) ToQuizAttempt() domain.QuizAttempt {
	return domain.QuizAttempt{
		QuizID:         r.QuizID,
		AttemptID:      r.AttemptID,
		CorrectAnswers: r.CorrectAnswers,
		TotalQuestions: r.TotalQuestions,
	}
}
