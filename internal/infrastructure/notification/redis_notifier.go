package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier publishes notifications as JSON on a Redis pub/sub channel
type RedisNotifier struct {
	client    redis.UniversalClient
	channel   string
	ownClient bool
}

// NewRedisNotifier connects to Redis and verifies the connection
func NewRedisNotifier(ctx context.Context, opts *redis.Options, channel string) (*RedisNotifier, error) {
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	n := NewRedisNotifierWithClient(client, channel)
	n.ownClient = true
	return n, nil
}

// NewRedisNotifierWithClient creates a notifier over an existing client
func NewRedisNotifierWithClient(client redis.UniversalClient, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{client: client, channel: channel}
}

// Notify publishes n on the configured channel
func (r *RedisNotifier) Notify(ctx context.Context, n *DecisionNotification) error {
	msg, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, msg).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Subscribe subscribes to the notifier's channel
func (r *RedisNotifier) Subscribe(ctx context.Context) *redis.PubSub {
	return r.client.Subscribe(ctx, r.channel)
}

// Channel returns the channel notifications go to
func (r *RedisNotifier) Channel() string {
	return r.channel
}

// Close closes the client when the notifier created it
func (r *RedisNotifier) Close() error {
	if !r.ownClient {
		return nil
	}
	return r.client.Close()
}

var _ Notifier = (*RedisNotifier)(nil)
