package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Z3RO333/formularios/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testStorageConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Provider:        "s3",
		Bucket:          "forms-attachments",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		Region:          "sa-east-1",
		Endpoint:        "http://localhost:9000",
		UsePathStyle:    true,
		PresignExpiry:   30 * time.Minute,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(ctx, nil)
		assert.ErrorContains(t, err, "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.Bucket = ""
		_, err := NewS3ObjectStorage(ctx, cfg)
		assert.ErrorContains(t, err, "bucket is required")
	})

	t.Run("half of a key pair returns error", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.SecretAccessKey = ""
		_, err := NewS3ObjectStorage(ctx, cfg)
		assert.ErrorContains(t, err, "must be set together")
	})

	t.Run("endpoint without scheme returns error", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.Endpoint = "localhost:9000"
		_, err := NewS3ObjectStorage(ctx, cfg)
		assert.ErrorContains(t, err, "invalid storage endpoint")
	})

	t.Run("valid config creates storage", func(t *testing.T) {
		storage, err := NewS3ObjectStorage(ctx, testStorageConfig())
		require.NoError(t, err)
		assert.Equal(t, "forms-attachments", storage.Bucket())
		assert.Equal(t, 30*time.Minute, storage.presignExpiry)
	})

	t.Run("default presign expiry", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.PresignExpiry = 0
		storage, err := NewS3ObjectStorage(ctx, cfg)
		require.NoError(t, err)
		assert.Equal(t, DefaultPresignExpiry, storage.presignExpiry)
	})

	t.Run("options override config", func(t *testing.T) {
		storage, err := NewS3ObjectStorage(ctx, testStorageConfig(),
			WithLogger(zaptest.NewLogger(t)),
			WithPresignExpiry(time.Hour),
		)
		require.NoError(t, err)
		assert.Equal(t, time.Hour, storage.presignExpiry)
	})
}

func TestS3ObjectStorage_GenerateDownloadURL(t *testing.T) {
	storage, err := NewS3ObjectStorage(context.Background(), testStorageConfig())
	require.NoError(t, err)

	t.Run("empty storage key returns error", func(t *testing.T) {
		u, _, err := storage.GenerateDownloadURL(context.Background(), "", time.Minute)
		assert.ErrorIs(t, err, ErrEmptyKey)
		assert.Empty(t, u)
	})

	t.Run("presigns a path-style URL with the file name", func(t *testing.T) {
		key := "orders/7d4f/11aa/NF 0001.pdf"
		raw, expiresAt, err := storage.GenerateDownloadURL(context.Background(), key, 10*time.Minute)
		require.NoError(t, err)

		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "localhost:9000", u.Host)
		assert.True(t, strings.HasPrefix(u.Path, "/forms-attachments/orders/"))
		assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))
		assert.Contains(t, u.Query().Get("response-content-disposition"), "NF 0001.pdf")
		assert.WithinDuration(t, time.Now().Add(10*time.Minute), expiresAt, 5*time.Second)
	})

	t.Run("uses configured expiry when not provided", func(t *testing.T) {
		raw, _, err := storage.GenerateDownloadURL(context.Background(), "orders/a/b/c.pdf", 0)
		require.NoError(t, err)
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "1800", u.Query().Get("X-Amz-Expires"))
	})
}

func TestS3ObjectStorage_EmptyKey(t *testing.T) {
	storage, err := NewS3ObjectStorage(context.Background(), testStorageConfig())
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, storage.Upload(ctx, "", []byte("x"), "text/plain"), ErrEmptyKey)
	assert.ErrorIs(t, storage.DeleteObject(ctx, ""), ErrEmptyKey)
	exists, err := storage.ObjectExists(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyKey)
	assert.False(t, exists)
}

func TestContentDisposition(t *testing.T) {
	assert.Equal(t, `attachment; filename=nota.pdf`, contentDisposition("orders/1/2/nota.pdf"))
	assert.Contains(t, contentDisposition("orders/1/2/orçamento.pdf"), "filename*=utf-8''or%C3%A7amento.pdf")
}
