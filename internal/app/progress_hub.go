package app

import (
	"sync"

	"solfege-learning-service/internal/domain"
)

// ProgressEvent is pushed to a learner's subscribers after each state-changing
// operation (quiz submission or module completion).
type ProgressEvent struct {
	LearnerID       string                 `json:"learnerId"`
	Level           domain.Level           `json:"level"`
	LevelChange     domain.LevelTransition `json:"levelChange"`
	TotalPoints     int                    `json:"totalPoints"`
	Streak          int                    `json:"streak"`
	WeeklyProgress  int                    `json:"weeklyProgress"`
	WeeklyGoal      int                    `json:"weeklyGoal"`
	NewAchievements []domain.Achievement   `json:"newAchievements"`
}

// progressHub fans progress events out to per-learner subscribers. Slow
// consumers never block a publish: a full channel drops its stale event
// before receiving the fresh one.
type progressHub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan ProgressEvent]struct{}
}

func newProgressHub() *progressHub {
	return &progressHub{subscribers: make(map[string]map[chan ProgressEvent]struct{})}
}

func (h *progressHub) subscribe(learnerID string) (<-chan ProgressEvent, func()) {
	ch := make(chan ProgressEvent, 8)

	h.mu.Lock()
	if h.subscribers[learnerID] == nil {
		h.subscribers[learnerID] = make(map[chan ProgressEvent]struct{})
	}
	h.subscribers[learnerID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if subs, ok := h.subscribers[learnerID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(h.subscribers, learnerID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *progressHub) publish(event ProgressEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subscribers[event.LearnerID] {
		select {
		case ch <- event:
		default:
			// Full channel: drop the oldest event to make room. Both sends
			// stay non-blocking; concurrent publishers may race for the
			// freed slot, and the loser drops its event rather than block
			// while holding the read lock.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- event:
			default:
			}
		}
	}
}

// SubscribeProgress returns a channel of progress events for one learner.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *LearningService) SubscribeProgress(learnerID string) (<-chan ProgressEvent, func()) {
	return s.hub.subscribe(learnerID)
}

func (s *LearningService) publish(learner domain.Learner, change domain.LevelTransition, achievements []domain.Achievement) {
	s.hub.publish(ProgressEvent{
		LearnerID:       learner.ID,
		Level:           learner.Level,
		LevelChange:     change,
		TotalPoints:     learner.TotalPoints,
		Streak:          learner.Streak,
		WeeklyProgress:  learner.WeeklyProgress,
		WeeklyGoal:      learner.WeeklyGoal,
		NewAchievements: achievements,
	})
}
