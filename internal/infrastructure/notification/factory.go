package notification

import (
	"context"

	"github.com/Z3RO333/formularios/internal/infrastructure/cache"
	"github.com/Z3RO333/formularios/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewNotifier returns a Redis notifier when Redis is enabled and reachable,
// and a LogNotifier otherwise. Redis delivery runs behind an AsyncNotifier.
// It returns nil when notifications are disabled.
func NewNotifier(ctx context.Context, cfg config.NotificationConfig, redisCfg config.RedisConfig, logger *zap.Logger) Notifier {
	if !cfg.Enabled {
		logger.Info("decision notifications disabled")
		return nil
	}
	if !redisCfg.Enabled {
		logger.Info("Redis disabled, decision notifications go to the log")
		return NewLogNotifier(logger)
	}

	n, err := NewRedisNotifier(ctx, cache.RedisOptions(redisCfg), cfg.Channel)
	if err != nil {
		logger.Warn("Redis unavailable, decision notifications go to the log", zap.Error(err))
		return NewLogNotifier(logger)
	}
	logger.Info("publishing decision notifications to Redis",
		zap.String("addr", redisCfg.Addr()),
		zap.String("channel", n.Channel()),
	)
	return NewAsyncNotifier(n, cfg.QueueSize, cfg.SendTimeout, logger)
}
