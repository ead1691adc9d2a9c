package cache

import (
	"context"
	"fmt"

	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/Z3RO333/formularios/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SubmissionGuardFactory creates submission guards based on configuration
type SubmissionGuardFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SubmissionGuardFactoryOption is a functional option for configuring the factory
type SubmissionGuardFactoryOption func(*SubmissionGuardFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SubmissionGuardFactoryOption {
	return func(f *SubmissionGuardFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory guard
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) SubmissionGuardFactoryOption {
	return func(f *SubmissionGuardFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSubmissionGuardFactory creates a new factory
func NewSubmissionGuardFactory(cfg config.RedisConfig, opts ...SubmissionGuardFactoryOption) *SubmissionGuardFactory {
	f := &SubmissionGuardFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// RedisOptions converts the Redis configuration into client options
func RedisOptions(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// CreateGuard returns a Redis guard when Redis is enabled and reachable, and
// the in-memory guard otherwise (unless fallback was disabled).
func (f *SubmissionGuardFactory) CreateGuard(ctx context.Context) (shared.SubmissionGuard, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory submission guard")
		return NewInMemorySubmissionGuard(0), nil
	}

	guard, err := NewRedisSubmissionGuard(ctx, RedisOptions(f.redisConfig))
	if err == nil {
		f.logger.Info("using Redis submission guard", zap.String("addr", f.redisConfig.Addr()))
		return guard, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for submission guard but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory submission guard. "+
		"Duplicate submissions are only detected per instance.",
		zap.Error(err),
	)
	return NewInMemorySubmissionGuard(0), nil
}
