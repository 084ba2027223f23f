package domain

import "time"

// Difficulty tags a question for content authors; it does not affect scoring.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Level is a learner's progression stage. Advanced is terminal.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Rank orders levels for monotonicity checks. Unknown levels rank lowest.
func (l Level) Rank() int {
	switch l {
	case LevelBeginner:
		return 0
	case LevelIntermediate:
		return 1
	case LevelAdvanced:
		return 2
	}
	return -1
}

// QuizType distinguishes how a quiz is surfaced to learners.
type QuizType string

const (
	QuizTypeModule         QuizType = "module"
	QuizTypeDailyChallenge QuizType = "daily-challenge"
	QuizTypePractice       QuizType = "practice"
	QuizTypeAssessment     QuizType = "assessment"
)

// DefaultQuestionPoints applies when a question's point value is unset.
const DefaultQuestionPoints = 10

// DefaultPassingScore is the percentage threshold used when a quiz omits one.
const DefaultPassingScore = 70

// DefaultMaxAttempts applies when a quiz omits an attempt cap.
const DefaultMaxAttempts = 3

// Option is one selectable answer to a question. The explanation, when
// present, is shown after the learner answers.
type Option struct {
	ID          string `json:"id" validate:"required"`
	Text        string `json:"text" validate:"required"`
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation,omitempty"`
}

// Question models an MCQ question with exactly one correct option. The
// single-correctness invariant is enforced at ingestion (content package)
// and re-checked by the validator at grading time.
type Question struct {
	ID          string     `json:"id" validate:"required"`
	Prompt      string     `json:"prompt" validate:"required"`
	Options     []Option   `json:"options" validate:"min=2,dive"`
	Difficulty  Difficulty `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Points      int        `json:"points" validate:"gte=0"` // defaults to 10 if zero
	Explanation string     `json:"explanation,omitempty"`
}

// PointValue returns the question's points, applying the default.
func (q Question) PointValue() int {
	if q.Points <= 0 {
		return DefaultQuestionPoints
	}
	return q.Points
}

// Quiz is an ordered collection of questions owned by a content module.
// Quizzes are immutable during grading; only content tooling mutates them.
type Quiz struct {
	ID           string     `json:"id" validate:"required"`
	Title        string     `json:"title" validate:"required"`
	Description  string     `json:"description,omitempty"`
	ModuleID     string     `json:"moduleId" validate:"required"`
	Questions    []Question `json:"questions" validate:"min=1,dive"`
	TimeLimitSec int        `json:"timeLimitSec" validate:"gte=0"`
	PassingScore int        `json:"passingScore" validate:"gte=0,lte=100"` // defaults to 70 if zero
	MaxAttempts  int        `json:"maxAttempts" validate:"gte=0"`          // defaults to 3 if zero
	Level        Level      `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Type         QuizType   `json:"type" validate:"omitempty,oneof=module daily-challenge practice assessment"`
}

// PassingThreshold returns the quiz's passing percentage, applying the default.
func (q Quiz) PassingThreshold() int {
	if q.PassingScore <= 0 {
		return DefaultPassingScore
	}
	return q.PassingScore
}

// AttemptLimit returns the quiz's attempt cap, applying the default.
func (q Quiz) AttemptLimit() int {
	if q.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return q.MaxAttempts
}

// ModuleCompletion records when a learner finished a content module.
type ModuleCompletion struct {
	ModuleID    string    `json:"moduleId"`
	CompletedAt time.Time `json:"completedAt"`
}

// QuizAttempt is the persisted trace of one graded submission.
type QuizAttempt struct {
	ID          string    `json:"id"`
	QuizID      string    `json:"quizId"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	Percentage  float64   `json:"percentage"`
	Passed      bool      `json:"passed"`
	CompletedAt time.Time `json:"completedAt"`
}

// Learner is the engine's snapshot of a learner record. The engine never
// mutates a Learner in place; it derives results the caller persists, and
// Version carries the optimistic-concurrency token for that write.
type Learner struct {
	ID               string             `json:"id"`
	DisplayName      string             `json:"displayName"`
	Level            Level              `json:"level"`
	TotalPoints      int                `json:"totalPoints"`
	Streak           int                `json:"streak"`
	LongestStreak    int                `json:"longestStreak"`
	LastActivityAt   time.Time          `json:"lastActivityAt"`
	WeeklyProgress   int                `json:"weeklyProgress"`
	WeeklyGoal       int                `json:"weeklyGoal"`
	CompletedModules []ModuleCompletion `json:"completedModules"`
	QuizAttempts     []QuizAttempt      `json:"quizAttempts"`
	Achievements     []string           `json:"achievements"` // unlocked achievement IDs
	Version          int64              `json:"version"`
}

// HasCompletedModule reports whether the module is already on record.
func (l Learner) HasCompletedModule(moduleID string) bool {
	for _, m := range l.CompletedModules {
		if m.ModuleID == moduleID {
			return true
		}
	}
	return false
}

// HasAchievement reports whether the achievement ID is already unlocked.
func (l Learner) HasAchievement(id string) bool {
	for _, a := range l.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// Clone deep-copies the snapshot so retries never alias a stale slice.
func (l Learner) Clone() Learner {
	out := l
	out.CompletedModules = append([]ModuleCompletion(nil), l.CompletedModules...)
	out.QuizAttempts = append([]QuizAttempt(nil), l.QuizAttempts...)
	out.Achievements = append([]string(nil), l.Achievements...)
	return out
}
