package storage

import (
	"context"
	"fmt"

	"github.com/Z3RO333/formularios/internal/application/trade"
	"github.com/Z3RO333/formularios/internal/infrastructure/config"
	"go.uber.org/zap"
)

// New returns the object storage selected by cfg.Provider. For S3 the bucket
// is created when missing; a failure there is logged, not fatal, so the
// server can start while storage is still coming up.
func New(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (trade.ObjectStorageService, error) {
	switch cfg.Provider {
	case "", "memory":
		logger.Warn("using in-memory attachment storage, files are lost on restart")
		return NewMemoryObjectStorage(""), nil
	case "s3":
		s, err := NewS3ObjectStorage(ctx, &cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			logger.Warn("attachment bucket check failed", zap.String("bucket", cfg.Bucket), zap.Error(err))
		}
		logger.Info("using S3 attachment storage", zap.String("bucket", cfg.Bucket), zap.String("region", cfg.Region))
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}
