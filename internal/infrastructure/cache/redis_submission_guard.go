package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// DefaultSubmissionKeyPrefix namespaces guard keys in a shared Redis
const DefaultSubmissionKeyPrefix = "forms:submission:"

// RedisSubmissionGuard implements SubmissionGuard using Redis so that every
// server instance sees the same keys.
type RedisSubmissionGuard struct {
	client    redis.UniversalClient
	keyPrefix string
	ownClient bool
}

// NewRedisSubmissionGuard connects to Redis and verifies the connection
func NewRedisSubmissionGuard(ctx context.Context, opts *redis.Options) (*RedisSubmissionGuard, error) {
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSubmissionGuard{
		client:    client,
		keyPrefix: DefaultSubmissionKeyPrefix,
		ownClient: true,
	}, nil
}

// NewRedisSubmissionGuardWithClient creates a guard over an existing client.
// Close leaves the client open.
func NewRedisSubmissionGuardWithClient(client redis.UniversalClient, keyPrefix string) *RedisSubmissionGuard {
	if keyPrefix == "" {
		keyPrefix = DefaultSubmissionKeyPrefix
	}
	return &RedisSubmissionGuard{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Claim uses SET NX with expiry, which is atomic across instances
func (g *RedisSubmissionGuard) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.keyPrefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim submission key: %w", err)
	}
	return ok, nil
}

// Release deletes the key
func (g *RedisSubmissionGuard) Release(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, g.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release submission key: %w", err)
	}
	return nil
}

// Close closes the client when the guard created it
func (g *RedisSubmissionGuard) Close() error {
	if !g.ownClient {
		return nil
	}
	return g.client.Close()
}

// Ensure RedisSubmissionGuard implements SubmissionGuard
var _ shared.SubmissionGuard = (*RedisSubmissionGuard)(nil)
