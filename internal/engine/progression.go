package engine

import (
	"fmt"

	"solfege-learning-service/internal/domain"
)

// Thresholds configures the two level transitions. Either condition (module
// count or point total) is sufficient.
type Thresholds struct {
	IntermediateModules int `yaml:"intermediateModules"`
	IntermediatePoints  int `yaml:"intermediatePoints"`
	AdvancedModules     int `yaml:"advancedModules"`
	AdvancedPoints      int `yaml:"advancedPoints"`
}

// DefaultThresholds returns the product's shipped progression rules.
func DefaultThresholds() Thresholds {
	return Thresholds{
		IntermediateModules: 2,
		IntermediatePoints:  150,
		AdvancedModules:     4,
		AdvancedPoints:      300,
	}
}

// Advance evaluates at most one level-step for the given state. It is
// monotonic (never returns a lower level) and idempotent: re-invoking with
// the same inputs after a transition reports Changed == false for that step.
// Callers that may cross two thresholds in a single event loop until Changed
// is false.
func (t Thresholds) Advance(level domain.Level, modulesCompleted, totalPoints int) domain.LevelTransition {
	next := level
	switch level {
	case domain.LevelBeginner:
		if modulesCompleted >= t.IntermediateModules || totalPoints >= t.IntermediatePoints {
			next = domain.LevelIntermediate
		}
	case domain.LevelIntermediate:
		if modulesCompleted >= t.AdvancedModules || totalPoints >= t.AdvancedPoints {
			next = domain.LevelAdvanced
		}
	}
	return domain.LevelTransition{Changed: next != level, From: level, To: next}
}

// AdvanceFully loops Advance until no further transition applies, for events
// that cross multiple thresholds at once. Each inner step is independently
// idempotent.
func (t Thresholds) AdvanceFully(level domain.Level, modulesCompleted, totalPoints int) domain.LevelTransition {
	first := level
	current := level
	for {
		step := t.Advance(current, modulesCompleted, totalPoints)
		if !step.Changed {
			break
		}
		current = step.To
	}
	return domain.LevelTransition{Changed: current != first, From: first, To: current}
}

// CheckLevelInvariant detects learner state the state machine could never
// have produced: a recorded level above anything the thresholds justify.
// This only happens when something other than the engine wrote the level.
func (t Thresholds) CheckLevelInvariant(l domain.Learner) error {
	earned := t.AdvanceFully(domain.LevelBeginner, len(l.CompletedModules), l.TotalPoints).To
	if l.Level.Rank() > earned.Rank() {
		return &domain.InvariantViolationError{
			LearnerID: l.ID,
			Detail: fmt.Sprintf("level %s recorded but state only supports %s (%d modules, %d points)",
				l.Level, earned, len(l.CompletedModules), l.TotalPoints),
		}
	}
	return nil
}
