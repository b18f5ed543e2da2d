package domain

// Game is an unlockable item in the game catalog.
// A zero price means the game is free and never touches the ledger.
type Game struct {
	GameID string `json:"gameID" yaml:"id"`
	Title  string `json:"title" yaml:"title"`
	Price  int64  `json:"price" yaml:"price"`
}

// IsFree reports whether the game can be played without unlocking.
func (g Game) IsFree() bool {
	return g.Price == 0
}

// UnlockResult is returned by a game unlock.
type UnlockResult struct {
	Game            Game  `json:"game"`
	NewBalance      int64 `json:"newBalance"`
	AlreadyUnlocked bool  `json:"alreadyUnlocked"`
}

// QuizAttempt describes one completed quiz submission.
type QuizAttempt struct {
	QuizID         string `json:"quizID" validate:"required,max=255"`
	AttemptID      string `json:"attemptID" validate:"required,max=200"`
	CorrectAnswers int    `json:"correctAnswers" validate:"gte=0,ltefield=TotalQuestions"`
	TotalQuestions int    `json:"totalQuestions" validate:"gt=0"`
}

// IsPerfect reports whether every question was answered correctly.
func (a QuizAttempt) IsPerfect() bool {
	return a.TotalQuestions > 0 && a.CorrectAnswers == a.TotalQuestions
}

// QuizRewardResult is returned by a quiz reward.
type QuizRewardResult struct {
	QuizID     string `json:"quizID"`
	AttemptID  string `json:"attemptID"`
	Awarded    int64  `json:"awarded"`
	NewBalance int64  `json:"newBalance"`
	Replayed   bool   `json:"replayed"`
}
