package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRepository holds revoked session token IDs until the tokens would
// have expired anyway.
type TokenRepository interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type redisTokenRepository struct {
	client *redis.Client
}

// NewTokenRepository builds the Redis-backed revocation set.
func NewTokenRepository(client *redis.Client) TokenRepository {
	return &redisTokenRepository{client: client}
}

func tokenKey(tokenID string) string {
	return fmt.Sprintf("session:revoked:%s", tokenID)
}

func (r *redisTokenRepository) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, tokenKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (r *redisTokenRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	count, err := r.client.Exists(ctx, tokenKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token: %w", err)
	}
	return count > 0, nil
}
