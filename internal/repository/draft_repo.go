package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eduassign/eduassign-gateway/internal/models"
)

// ErrDraftNotFound indicates no open draft exists for the key.
var ErrDraftNotFound = errors.New("draft not found")

// DraftRepository stores a teacher's in-progress copy of a feedback document
// separately from the last-saved copy, so cancel-edit is a plain discard.
// Drafts are TTL-bounded; the grading backend remains the system of record.
type DraftRepository interface {
	Get(ctx context.Context, teacherID, submissionID string) (models.FeedbackDocument, error)
	Put(ctx context.Context, teacherID, submissionID string, doc models.FeedbackDocument) error
	Delete(ctx context.Context, teacherID, submissionID string) error
	Exists(ctx context.Context, teacherID, submissionID string) (bool, error)
}

type redisDraftRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDraftRepository builds the Redis-backed draft store.
func NewDraftRepository(client *redis.Client, ttl time.Duration) DraftRepository {
	return &redisDraftRepository{client: client, ttl: ttl}
}

func draftKey(teacherID, submissionID string) string {
	return fmt.Sprintf("feedback:draft:%s:%s", teacherID, submissionID)
}

func (r *redisDraftRepository) Get(ctx context.Context, teacherID, submissionID string) (models.FeedbackDocument, error) {
	raw, err := r.client.Get(ctx, draftKey(teacherID, submissionID)).Result()
	if err == redis.Nil {
		return models.FeedbackDocument{}, ErrDraftNotFound
	}
	if err != nil {
		return models.FeedbackDocument{}, fmt.Errorf("failed to read draft: %w", err)
	}

	var doc models.FeedbackDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return models.FeedbackDocument{}, fmt.Errorf("failed to decode draft: %w", err)
	}

	return doc, nil
}

func (r *redisDraftRepository) Put(ctx context.Context, teacherID, submissionID string, doc models.FeedbackDocument) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}

	if err := r.client.Set(ctx, draftKey(teacherID, submissionID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store draft: %w", err)
	}

	return nil
}

func (r *redisDraftRepository) Delete(ctx context.Context, teacherID, submissionID string) error {
	if err := r.client.Del(ctx, draftKey(teacherID, submissionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

func (r *redisDraftRepository) Exists(ctx context.Context, teacherID, submissionID string) (bool, error) {
	count, err := r.client.Exists(ctx, draftKey(teacherID, submissionID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check draft: %w", err)
	}
	return count > 0, nil
}
