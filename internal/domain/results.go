package domain

// ValidationResult is the outcome of checking one answer against a question.
type ValidationResult struct {
	Correct       bool   `json:"correct"`
	CorrectOption int    `json:"correctOption"`
	Explanation   string `json:"explanation,omitempty"`
}

// AnswerOutcome classifies how a single question was graded.
type AnswerOutcome string

const (
	// AnswerCorrect: the learner picked the canonical correct option.
	AnswerCorrect AnswerOutcome = "correct"
	// AnswerWrong: a valid selection of a wrong option.
	AnswerWrong AnswerOutcome = "wrong"
	// AnswerInvalid: the selector was missing, out of range, or not an
	// integer. Scored as incorrect but reported distinctly.
	AnswerInvalid AnswerOutcome = "invalid"
	// AnswerMalformed: the question itself violates the single-correctness
	// invariant; grading it was impossible.
	AnswerMalformed AnswerOutcome = "malformed"
)

// AnswerDetail is the per-question line of an AttemptResult.
type AnswerDetail struct {
	QuestionID    string        `json:"questionId"`
	Outcome       AnswerOutcome `json:"outcome"`
	Correct       bool          `json:"correct"`
	CorrectOption int           `json:"correctOption"` // -1 when the question is malformed
	Explanation   string        `json:"explanation,omitempty"`
}

// AttemptResult is the ephemeral grade for one full submission. The caller
// decides which subset to persist on the learner record.
type AttemptResult struct {
	QuizID      string         `json:"quizId"`
	Score       int            `json:"score"`
	Total       int            `json:"total"`
	Percentage  float64        `json:"percentage"`
	BasePoints  int            `json:"basePoints"`
	Bonus       int            `json:"bonus"`
	TotalPoints int            `json:"totalPoints"`
	Passed      bool           `json:"passed"`
	Details     []AnswerDetail `json:"details"`
}

// LevelTransition reports one step of the progression state machine.
type LevelTransition struct {
	Changed bool  `json:"changed"`
	From    Level `json:"from"`
	To      Level `json:"to"`
}

// StreakUpdate reports the effect of one activity on the day-streak and
// weekly-goal counters.
type StreakUpdate struct {
	Streak         int  `json:"streak"`
	LongestStreak  int  `json:"longestStreak"`
	Extended       bool `json:"extended"` // streak grew by one
	Reset          bool `json:"reset"`    // gap of 2+ days started a new streak
	WeeklyProgress int  `json:"weeklyProgress"`
	WeeklyReset    bool `json:"weeklyReset"`
	Bonus          int  `json:"bonus"` // streak-tier bonus points
}

// Achievement is a one-time reward unlocked when a learner's state first
// satisfies a named condition.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Points      int    `json:"points"`
}
