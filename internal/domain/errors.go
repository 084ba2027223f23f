package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrLearnerNotFound indicates the learner record does not exist.
	ErrLearnerNotFound = errors.New("learner not found")
	// ErrVersionConflict is returned when an optimistic write lost the race;
	// the caller should re-read the snapshot and retry.
	ErrVersionConflict = errors.New("learner version conflict")
	// ErrAttemptLimit is returned when a learner has used up a quiz's
	// attempt allowance.
	ErrAttemptLimit = errors.New("quiz attempt limit reached")
)

// MalformedQuestionError reports a question that violates the
// single-correctness invariant: zero or more than one option flagged
// correct. This is a content-authoring defect; grading never guesses.
type MalformedQuestionError struct {
	QuestionID   string
	CorrectCount int
}

func (e *MalformedQuestionError) Error() string {
	return fmt.Sprintf("question %s has %d correct options, want exactly 1", e.QuestionID, e.CorrectCount)
}

// InvalidSelectorError reports a submitted answer index that is out of range
// or not coercible to an integer. The question is scored as incorrect, but
// the condition is surfaced distinctly from a genuine wrong answer.
type InvalidSelectorError struct {
	Raw    any
	Reason string
}

func (e *InvalidSelectorError) Error() string {
	return fmt.Sprintf("invalid answer selector %v: %s", e.Raw, e.Reason)
}

// InvariantViolationError reports learner state the progression machine could
// never have produced (e.g. a downgraded level). Its appearance is a caller
// bug, not a condition the engine recovers from.
type InvariantViolationError struct {
	LearnerID string
	Detail    string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("learner %s: progression invariant violated: %s", e.LearnerID, e.Detail)
}
