package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// EvaluationRepository records when an AI pass was requested for a
// submission. The marker serves two purposes: it guards the race between
// concurrent teacher views requesting evaluation for the same submission
// (the backend does not deduplicate), and it anchors the simulated progress
// value so independent views observe consistent cosmetic progress.
type EvaluationRepository interface {
	// MarkStarted records the start instant. It returns false when a marker
	// already exists, meaning another request won the race.
	MarkStarted(ctx context.Context, submissionID string, startedAt time.Time) (bool, error)
	StartedAt(ctx context.Context, submissionID string) (*time.Time, error)
	Clear(ctx context.Context, submissionID string) error
}

type redisEvaluationRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewEvaluationRepository builds the Redis-backed evaluation marker store.
func NewEvaluationRepository(client *redis.Client, ttl time.Duration) EvaluationRepository {
	return &redisEvaluationRepository{client: client, ttl: ttl}
}

func evaluationKey(submissionID string) string {
	return fmt.Sprintf("evaluation:started:%s", submissionID)
}

func (r *redisEvaluationRepository) MarkStarted(ctx context.Context, submissionID string, startedAt time.Time) (bool, error) {
	set, err := r.client.SetNX(ctx, evaluationKey(submissionID), startedAt.UTC().Format(time.RFC3339Nano), r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark evaluation: %w", err)
	}
	return set, nil
}

func (r *redisEvaluationRepository) StartedAt(ctx context.Context, submissionID string) (*time.Time, error) {
	raw, err := r.client.Get(ctx, evaluationKey(submissionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read evaluation marker: %w", err)
	}

	startedAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse evaluation marker: %w", err)
	}

	return &startedAt, nil
}

func (r *redisEvaluationRepository) Clear(ctx context.Context, submissionID string) error {
	if err := r.client.Del(ctx, evaluationKey(submissionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear evaluation marker: %w", err)
	}
	return nil
}
