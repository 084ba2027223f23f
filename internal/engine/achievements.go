package engine

import "solfege-learning-service/internal/domain"

// Achievement IDs. These are persisted on learner records; never renumber.
const (
	AchFirstModule = "first_module"
	AchTenModules  = "ten_modules"
	AchStreak7     = "streak_7"
	AchStreak30    = "streak_30"
	AchPerfectQuiz = "perfect_quiz"
	AchWeeklyGoal  = "weekly_goal"
)

// Catalog lists every achievement the evaluator can unlock, in display order.
func Catalog() []domain.Achievement {
	return []domain.Achievement{
		{ID: AchFirstModule, Title: "First Steps", Description: "Complete your first module", Points: 25},
		{ID: AchStreak7, Title: "Week of Practice", Description: "Practice 7 days in a row", Points: 50},
		{ID: AchStreak30, Title: "Dedicated Musician", Description: "Practice 30 days in a row", Points: 200},
		{ID: AchTenModules, Title: "Theory Scholar", Description: "Complete 10 modules", Points: 100},
		{ID: AchPerfectQuiz, Title: "Perfect Pitch", Description: "Score 100% on a quiz", Points: 50},
		{ID: AchWeeklyGoal, Title: "Goal Getter", Description: "Reach your weekly goal", Points: 30},
	}
}

// Unlock returns the achievements the learner's current state newly earns.
// Triggers are exact-match where the underlying counter only grows (module
// counts, streaks), so each fires on the single event that crosses it; the
// remaining two consult the learner's recorded unlock set. Callers must
// append the returned IDs to learner.Achievements before the next
// evaluation; Unlock itself never mutates the snapshot.
func Unlock(l domain.Learner) []domain.Achievement {
	var unlocked []domain.Achievement
	for _, a := range Catalog() {
		if l.HasAchievement(a.ID) {
			continue
		}
		if triggered(a.ID, l) {
			unlocked = append(unlocked, a)
		}
	}
	return unlocked
}

func triggered(id string, l domain.Learner) bool {
	switch id {
	case AchFirstModule:
		return len(l.CompletedModules) == 1
	case AchTenModules:
		return len(l.CompletedModules) == 10
	case AchStreak7:
		return l.Streak == 7
	case AchStreak30:
		return l.Streak == 30
	case AchPerfectQuiz:
		return hasPerfectAttempt(l)
	case AchWeeklyGoal:
		return l.WeeklyGoal > 0 && l.WeeklyProgress >= l.WeeklyGoal
	}
	return false
}

func hasPerfectAttempt(l domain.Learner) bool {
	for _, a := range l.QuizAttempts {
		if a.Percentage >= 100 {
			return true
		}
	}
	return false
}
