package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"solfege-learning-service/internal/app"
	"solfege-learning-service/internal/domain"
	"solfege-learning-service/internal/engine"
	"solfege-learning-service/internal/infra/memory"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func chordQuiz() domain.Quiz {
	questions := make([]domain.Question, 5)
	for i := range questions {
		questions[i] = domain.Question{
			ID:     string(rune('a' + i)),
			Prompt: "Identify the chord quality",
			Options: []domain.Option{
				{ID: "o0", Text: "minor"},
				{ID: "o1", Text: "major", Correct: true},
				{ID: "o2", Text: "diminished"},
			},
			Points: 10,
		}
	}
	return domain.Quiz{
		ID:        "quiz-chords",
		Title:     "Chord Qualities",
		ModuleID:  "mod-chords",
		Questions: questions,
	}
}

func newTestService(t *testing.T, learner domain.Learner) (*app.LearningService, *memory.LearnerStore) {
	t.Helper()
	learners := memory.NewLearnerStore()
	learners.Seed(learner)
	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-chords": chordQuiz(),
	}), 5*time.Minute)
	service := app.NewLearningServiceWithClock(quizzes, learners, engine.DefaultThresholds(), fixedClock)
	return service, learners
}

func allCorrect() []any { return []any{1, 1, 1, 1, 1} }

func TestSubmitQuizAwardsPoints(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, domain.Learner{ID: "l1", Level: domain.LevelBeginner})

	outcome, err := service.SubmitQuiz(ctx, "l1", "quiz-chords", allCorrect())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if outcome.Result.Score != 5 || outcome.Result.Percentage != 100 {
		t.Fatalf("expected a perfect run, got %+v", outcome.Result)
	}
	if outcome.Result.TotalPoints != 60 { // 50 base + 10 bonus
		t.Fatalf("expected 60 quiz points, got %d", outcome.Result.TotalPoints)
	}
	// 60 quiz points + 50 for the perfect-quiz achievement; day one, no streak bonus.
	if outcome.Learner.TotalPoints != 110 {
		t.Fatalf("expected 110 total points, got %d", outcome.Learner.TotalPoints)
	}
	if outcome.Learner.Streak != 1 {
		t.Fatalf("first activity should start a streak of 1, got %d", outcome.Learner.Streak)
	}
	if len(outcome.Learner.QuizAttempts) != 1 || outcome.Learner.QuizAttempts[0].ID == "" {
		t.Fatalf("expected one recorded attempt with an ID, got %+v", outcome.Learner.QuizAttempts)
	}
	if len(outcome.Achievements) != 1 || outcome.Achievements[0].ID != engine.AchPerfectQuiz {
		t.Fatalf("expected the perfect-quiz achievement, got %+v", outcome.Achievements)
	}
}

func TestSubmitQuizLevelsUpOnPoints(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, domain.Learner{
		ID:          "l1",
		Level:       domain.LevelBeginner,
		TotalPoints: 140,
		Achievements: []string{
			engine.AchPerfectQuiz, // keep achievement points out of this arithmetic
		},
	})

	outcome, err := service.SubmitQuiz(ctx, "l1", "quiz-chords", allCorrect())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !outcome.Level.Changed || outcome.Level.To != domain.LevelIntermediate {
		t.Fatalf("200 points should reach intermediate, got %+v", outcome.Level)
	}

	// Re-submitting the same totals must not re-transition.
	outcome, err = service.SubmitQuiz(ctx, "l1", "quiz-chords", []any{0, 0, 0, 0, 0})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if outcome.Level.Changed {
		t.Fatalf("no threshold crossed, yet level changed: %+v", outcome.Level)
	}
	if outcome.Learner.Level != domain.LevelIntermediate {
		t.Fatalf("level must never regress, got %s", outcome.Learner.Level)
	}
}

func TestSubmitQuizLevelsUpOnAchievementPoints(t *testing.T) {
	ctx := context.Background()
	// 45 + 60 quiz points stays below 150; the 50-point perfect-quiz reward
	// crosses the threshold in the same submission.
	service, _ := newTestService(t, domain.Learner{ID: "l1", Level: domain.LevelBeginner, TotalPoints: 45})

	outcome, err := service.SubmitQuiz(ctx, "l1", "quiz-chords", allCorrect())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.Learner.TotalPoints != 155 {
		t.Fatalf("expected 155 total points, got %d", outcome.Learner.TotalPoints)
	}
	if !outcome.Level.Changed || outcome.Level.To != domain.LevelIntermediate {
		t.Fatalf("achievement reward should have reached intermediate, got %+v", outcome.Level)
	}
	if outcome.Learner.Level != domain.LevelIntermediate {
		t.Fatalf("persisted level lags the transition: %s", outcome.Learner.Level)
	}
}

func TestSubmitQuizAttemptLimit(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, domain.Learner{ID: "l1", Level: domain.LevelBeginner})

	for i := 0; i < domain.DefaultMaxAttempts; i++ {
		if _, err := service.SubmitQuiz(ctx, "l1", "quiz-chords", []any{0, 0, 0, 0, 0}); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	if _, err := service.SubmitQuiz(ctx, "l1", "quiz-chords", allCorrect()); !errors.Is(err, domain.ErrAttemptLimit) {
		t.Fatalf("expected attempt limit error, got %v", err)
	}
}

func TestCompleteModuleIdempotent(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, domain.Learner{ID: "l1", Level: domain.LevelBeginner, WeeklyGoal: 5})

	outcome, err := service.CompleteModule(ctx, "l1", "mod-chords")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if outcome.AlreadyCompleted {
		t.Fatalf("first completion flagged as duplicate")
	}
	if len(outcome.Achievements) != 1 || outcome.Achievements[0].ID != engine.AchFirstModule {
		t.Fatalf("expected first-module achievement, got %+v", outcome.Achievements)
	}
	if outcome.Learner.WeeklyProgress != 1 {
		t.Fatalf("expected weekly progress 1, got %d", outcome.Learner.WeeklyProgress)
	}

	repeat, err := service.CompleteModule(ctx, "l1", "mod-chords")
	if err != nil {
		t.Fatalf("repeat complete: %v", err)
	}
	if !repeat.AlreadyCompleted {
		t.Fatalf("repeat completion not flagged")
	}
	if len(repeat.Learner.CompletedModules) != 1 {
		t.Fatalf("module recorded twice: %+v", repeat.Learner.CompletedModules)
	}
}

func TestCompleteModulesReachIntermediate(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, domain.Learner{ID: "l1", Level: domain.LevelBeginner})

	first, err := service.CompleteModule(ctx, "l1", "mod-notes")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if first.Level.Changed {
		t.Fatalf("one module must not level up, got %+v", first.Level)
	}

	second, err := service.CompleteModule(ctx, "l1", "mod-chords")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !second.Level.Changed || second.Level.To != domain.LevelIntermediate {
		t.Fatalf("two modules should reach intermediate, got %+v", second.Level)
	}
}

func TestSubmitQuizRetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	learners := memory.NewLearnerStore()
	learners.Seed(domain.Learner{ID: "l1", Level: domain.LevelBeginner})
	conflicting := &conflictOnce{LearnerRepository: learners}

	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-chords": chordQuiz(),
	}), 5*time.Minute)
	service := app.NewLearningServiceWithClock(quizzes, conflicting, engine.DefaultThresholds(), fixedClock)

	outcome, err := service.SubmitQuiz(ctx, "l1", "quiz-chords", allCorrect())
	if err != nil {
		t.Fatalf("submit should survive one conflict: %v", err)
	}
	if conflicting.saves != 2 {
		t.Fatalf("expected a retried save, got %d saves", conflicting.saves)
	}
	if len(outcome.Learner.QuizAttempts) != 1 {
		t.Fatalf("retry must not double-apply the attempt, got %d", len(outcome.Learner.QuizAttempts))
	}
}

func TestProgressChecksInvariant(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, domain.Learner{ID: "l1", Level: domain.LevelAdvanced, TotalPoints: 10})

	_, err := service.Progress(ctx, "l1")
	var violation *domain.InvariantViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
}

func TestSubscribeProgressReceivesEvents(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, domain.Learner{ID: "l1", Level: domain.LevelBeginner})

	events, cancel := service.SubscribeProgress("l1")
	defer cancel()

	if _, err := service.SubmitQuiz(ctx, "l1", "quiz-chords", allCorrect()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	select {
	case event := <-events:
		if event.LearnerID != "l1" || event.TotalPoints != 110 {
			t.Fatalf("unexpected event %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatalf("no progress event received")
	}
}

// conflictOnce fails the first save with a version conflict to exercise the
// service's re-read path.
type conflictOnce struct {
	app.LearnerRepository
	saves int
}

func (c *conflictOnce) SaveLearner(ctx context.Context, learner domain.Learner) (domain.Learner, error) {
	c.saves++
	if c.saves == 1 {
		return domain.Learner{}, domain.ErrVersionConflict
	}
	return c.LearnerRepository.SaveLearner(ctx, learner)
}
