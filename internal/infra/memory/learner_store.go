package memory

import (
	"context"
	"sync"

	"solfege-learning-service/internal/domain"
)

// LearnerStore is an in-memory app.LearnerRepository with the same optimistic
// concurrency contract as the Postgres store: a save whose version does not
// match the stored snapshot fails with domain.ErrVersionConflict.
type LearnerStore struct {
	mu       sync.RWMutex
	learners map[string]domain.Learner
}

func NewLearnerStore() *LearnerStore {
	return &LearnerStore{learners: make(map[string]domain.Learner)}
}

// Seed inserts or replaces a learner without a version check. Intended for
// tests and demo bootstrapping.
func (s *LearnerStore) Seed(learner domain.Learner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.learners[learner.ID] = learner.Clone()
}

func (s *LearnerStore) GetLearner(_ context.Context, learnerID string) (domain.Learner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	learner, ok := s.learners[learnerID]
	if !ok {
		return domain.Learner{}, domain.ErrLearnerNotFound
	}
	return learner.Clone(), nil
}

func (s *LearnerStore) SaveLearner(_ context.Context, learner domain.Learner) (domain.Learner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.learners[learner.ID]
	if !ok {
		return domain.Learner{}, domain.ErrLearnerNotFound
	}
	if current.Version != learner.Version {
		return domain.Learner{}, domain.ErrVersionConflict
	}
	saved := learner.Clone()
	saved.Version++
	s.learners[learner.ID] = saved
	return saved.Clone(), nil
}
