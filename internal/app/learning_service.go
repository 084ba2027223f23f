package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"solfege-learning-service/internal/domain"
	"solfege-learning-service/internal/engine"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// LearnerRepository persists learner snapshots with optimistic concurrency:
// Save must reject a snapshot whose Version no longer matches the stored row
// with domain.ErrVersionConflict, and return the snapshot with its bumped
// version on success.
type LearnerRepository interface {
	GetLearner(ctx context.Context, learnerID string) (domain.Learner, error)
	SaveLearner(ctx context.Context, learner domain.Learner) (domain.Learner, error)
}

// saveRetries bounds the re-read/re-apply loop on version conflicts. The
// engine being pure makes each retry safe.
const saveRetries = 3

// SubmissionOutcome bundles everything a single quiz submission produced.
type SubmissionOutcome struct {
	Result       domain.AttemptResult   `json:"result"`
	Streak       domain.StreakUpdate    `json:"streak"`
	Level        domain.LevelTransition `json:"level"`
	Achievements []domain.Achievement   `json:"achievements"`
	Learner      domain.Learner         `json:"learner"`
}

// CompletionOutcome bundles the effects of finishing a content module.
type CompletionOutcome struct {
	AlreadyCompleted bool                   `json:"alreadyCompleted"`
	Streak           domain.StreakUpdate    `json:"streak"`
	Level            domain.LevelTransition `json:"level"`
	Achievements     []domain.Achievement   `json:"achievements"`
	Learner          domain.Learner         `json:"learner"`
}

// LearningService wires the assessment engine to quiz content and learner
// persistence. The service itself holds no learner state; every operation
// reads a snapshot, runs the pure engine over it, and writes the result
// back under optimistic concurrency.
type LearningService struct {
	quizzes    QuizRepository
	learners   LearnerRepository
	thresholds engine.Thresholds
	now        func() time.Time
	hub        *progressHub
}

func NewLearningService(quizzes QuizRepository, learners LearnerRepository, thresholds engine.Thresholds) *LearningService {
	return &LearningService{
		quizzes:    quizzes,
		learners:   learners,
		thresholds: thresholds,
		now:        time.Now,
		hub:        newProgressHub(),
	}
}

// NewLearningServiceWithClock is test-only for deterministic timestamps.
func NewLearningServiceWithClock(quizzes QuizRepository, learners LearnerRepository, thresholds engine.Thresholds, now func() time.Time) *LearningService {
	s := NewLearningService(quizzes, learners, thresholds)
	s.now = now
	return s
}

// GetQuiz returns quiz content for presentation. Callers that expose it to
// learners must strip the correctness flags first (transport handles that).
func (s *LearningService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

// Progress returns the learner's current snapshot after checking the
// progression invariant; a violation means something other than this service
// wrote the level.
func (s *LearningService) Progress(ctx context.Context, learnerID string) (domain.Learner, error) {
	learner, err := s.learners.GetLearner(ctx, learnerID)
	if err != nil {
		return domain.Learner{}, err
	}
	if err := s.thresholds.CheckLevelInvariant(learner); err != nil {
		return domain.Learner{}, err
	}
	return learner, nil
}

// SubmitQuiz grades a submission and applies its effects to the learner:
// attempt history, points (score + streak bonus + achievement rewards),
// streak and weekly counters, level progression, and achievement unlocks.
// On a version conflict the snapshot is re-read and the engine re-applied.
func (s *LearningService) SubmitQuiz(ctx context.Context, learnerID, quizID string, answers []any) (SubmissionOutcome, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return SubmissionOutcome{}, err
	}

	var outcome SubmissionOutcome
	saved, err := s.withRetry(ctx, learnerID, func(learner domain.Learner) (domain.Learner, error) {
		if countAttempts(learner, quiz.ID) >= quiz.AttemptLimit() {
			return learner, domain.ErrAttemptLimit
		}

		now := s.now()
		result := engine.Score(quiz, answers)
		streak := engine.UpdateStreak(learner, now, 1)

		updated := learner.Clone()
		updated.Streak = streak.Streak
		updated.LongestStreak = streak.LongestStreak
		updated.WeeklyProgress = streak.WeeklyProgress
		updated.LastActivityAt = now
		updated.TotalPoints += result.TotalPoints + streak.Bonus
		updated.QuizAttempts = append(updated.QuizAttempts, domain.QuizAttempt{
			ID:          uuid.NewString(),
			QuizID:      quiz.ID,
			Score:       result.Score,
			Total:       result.Total,
			Percentage:  result.Percentage,
			Passed:      result.Passed,
			CompletedAt: now,
		})

		transition := s.thresholds.AdvanceFully(updated.Level, len(updated.CompletedModules), updated.TotalPoints)
		updated.Level = transition.To

		achievements := engine.Unlock(updated)
		for _, a := range achievements {
			updated.Achievements = append(updated.Achievements, a.ID)
			updated.TotalPoints += a.Points
		}

		// Achievement rewards count toward the point thresholds too.
		if reward := s.thresholds.AdvanceFully(updated.Level, len(updated.CompletedModules), updated.TotalPoints); reward.Changed {
			updated.Level = reward.To
			transition.Changed = true
			transition.To = reward.To
		}

		outcome = SubmissionOutcome{
			Result:       result,
			Streak:       streak,
			Level:        transition,
			Achievements: achievements,
		}
		return updated, nil
	})
	if err != nil {
		return SubmissionOutcome{}, err
	}
	outcome.Learner = saved

	s.publish(saved, outcome.Level, outcome.Achievements)
	return outcome, nil
}

// CompleteModule records a finished content module. Completing the same
// module twice is a no-op beyond returning the current snapshot, so clients
// can safely retry.
func (s *LearningService) CompleteModule(ctx context.Context, learnerID, moduleID string) (CompletionOutcome, error) {
	var outcome CompletionOutcome
	saved, err := s.withRetry(ctx, learnerID, func(learner domain.Learner) (domain.Learner, error) {
		if learner.HasCompletedModule(moduleID) {
			outcome = CompletionOutcome{AlreadyCompleted: true}
			return learner, errNoChange
		}

		now := s.now()
		streak := engine.UpdateStreak(learner, now, 1)

		updated := learner.Clone()
		updated.Streak = streak.Streak
		updated.LongestStreak = streak.LongestStreak
		updated.WeeklyProgress = streak.WeeklyProgress
		updated.LastActivityAt = now
		updated.TotalPoints += streak.Bonus
		updated.CompletedModules = append(updated.CompletedModules, domain.ModuleCompletion{
			ModuleID:    moduleID,
			CompletedAt: now,
		})

		transition := s.thresholds.AdvanceFully(updated.Level, len(updated.CompletedModules), updated.TotalPoints)
		updated.Level = transition.To

		achievements := engine.Unlock(updated)
		for _, a := range achievements {
			updated.Achievements = append(updated.Achievements, a.ID)
			updated.TotalPoints += a.Points
		}

		// Achievement rewards count toward the point thresholds too.
		if reward := s.thresholds.AdvanceFully(updated.Level, len(updated.CompletedModules), updated.TotalPoints); reward.Changed {
			updated.Level = reward.To
			transition.Changed = true
			transition.To = reward.To
		}

		outcome = CompletionOutcome{
			Streak:       streak,
			Level:        transition,
			Achievements: achievements,
		}
		return updated, nil
	})
	if errors.Is(err, errNoChange) {
		learner, gerr := s.learners.GetLearner(ctx, learnerID)
		if gerr != nil {
			return CompletionOutcome{}, gerr
		}
		outcome.Learner = learner
		return outcome, nil
	}
	if err != nil {
		return CompletionOutcome{}, err
	}
	outcome.Learner = saved

	s.publish(saved, outcome.Level, outcome.Achievements)
	return outcome, nil
}

// errNoChange short-circuits the retry loop when an operation decides the
// snapshot needs no write.
var errNoChange = errors.New("no change")

// withRetry runs apply over a fresh snapshot and saves the result, retrying
// on write conflicts. Returns the persisted snapshot with its new version.
func (s *LearningService) withRetry(ctx context.Context, learnerID string, apply func(domain.Learner) (domain.Learner, error)) (domain.Learner, error) {
	var lastErr error
	for attempt := 0; attempt < saveRetries; attempt++ {
		learner, err := s.learners.GetLearner(ctx, learnerID)
		if err != nil {
			return domain.Learner{}, err
		}
		updated, err := apply(learner)
		if err != nil {
			return domain.Learner{}, err
		}
		saved, err := s.learners.SaveLearner(ctx, updated)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return domain.Learner{}, err
		}
		lastErr = err
	}
	return domain.Learner{}, lastErr
}

func countAttempts(l domain.Learner, quizID string) int {
	n := 0
	for _, a := range l.QuizAttempts {
		if a.QuizID == quizID {
			n++
		}
	}
	return n
}
