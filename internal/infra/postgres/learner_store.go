package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"solfege-learning-service/internal/domain"
)

// LearnerStore persists learner snapshots as JSONB with a version column for
// optimistic concurrency. The version column, not the JSON payload, is
// authoritative: every successful save bumps it, and a save against a stale
// version fails with domain.ErrVersionConflict so the caller re-reads and
// re-applies.
type LearnerStore struct {
	pool *pgxpool.Pool
}

func NewLearnerStore(pool *pgxpool.Pool) *LearnerStore {
	return &LearnerStore{pool: pool}
}

func (s *LearnerStore) GetLearner(ctx context.Context, learnerID string) (domain.Learner, error) {
	var raw []byte
	var version int64
	err := s.pool.QueryRow(ctx,
		`SELECT data, version FROM learners WHERE id=$1`, learnerID).Scan(&raw, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Learner{}, domain.ErrLearnerNotFound
	}
	if err != nil {
		return domain.Learner{}, fmt.Errorf("load learner: %w", err)
	}
	var learner domain.Learner
	if err := json.Unmarshal(raw, &learner); err != nil {
		return domain.Learner{}, fmt.Errorf("unmarshal learner: %w", err)
	}
	learner.Version = version
	return learner, nil
}

func (s *LearnerStore) SaveLearner(ctx context.Context, learner domain.Learner) (domain.Learner, error) {
	raw, err := json.Marshal(learner)
	if err != nil {
		return domain.Learner{}, fmt.Errorf("marshal learner: %w", err)
	}

	var newVersion int64
	err = s.pool.QueryRow(ctx,
		`UPDATE learners SET data=$2, version=version+1
		 WHERE id=$1 AND version=$3
		 RETURNING version`,
		learner.ID, raw, learner.Version).Scan(&newVersion)
	if errors.Is(err, pgx.ErrNoRows) {
		// Row missing or version stale; disambiguate for the caller.
		var exists bool
		if qerr := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM learners WHERE id=$1)`, learner.ID).Scan(&exists); qerr != nil {
			return domain.Learner{}, fmt.Errorf("save learner: %w", qerr)
		}
		if !exists {
			return domain.Learner{}, domain.ErrLearnerNotFound
		}
		return domain.Learner{}, domain.ErrVersionConflict
	}
	if err != nil {
		return domain.Learner{}, fmt.Errorf("save learner: %w", err)
	}

	learner.Version = newVersion
	return learner, nil
}

// CreateLearner inserts a fresh record at version zero. Used by registration
// flows and seeding; an existing ID is an error, not an upsert.
func (s *LearnerStore) CreateLearner(ctx context.Context, learner domain.Learner) error {
	learner.Version = 0
	raw, err := json.Marshal(learner)
	if err != nil {
		return fmt.Errorf("marshal learner: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO learners (id, data, version) VALUES ($1, $2, 0)`,
		learner.ID, raw)
	if err != nil {
		return fmt.Errorf("create learner: %w", err)
	}
	return nil
}
