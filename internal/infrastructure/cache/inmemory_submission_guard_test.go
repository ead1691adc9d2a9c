package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Z3RO333/formularios/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInMemorySubmissionGuard_Claim(t *testing.T) {
	guard := NewInMemorySubmissionGuard(time.Hour)
	defer guard.Close()

	ctx := context.Background()

	t.Run("claims a new key", func(t *testing.T) {
		ok, err := guard.Claim(ctx, "order:user-1:key-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok, "new key should be claimed")
	})

	t.Run("refuses a key that is still held", func(t *testing.T) {
		ok, err := guard.Claim(ctx, "order:user-1:key-2", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = guard.Claim(ctx, "order:user-1:key-2", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok, "held key should not be claimed twice")
	})

	t.Run("allows a new claim after expiry", func(t *testing.T) {
		base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
		guard.now = func() time.Time { return base }
		defer func() { guard.now = time.Now }()

		ok, err := guard.Claim(ctx, "order:user-1:key-3", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		guard.now = func() time.Time { return base.Add(2 * time.Minute) }
		ok, err = guard.Claim(ctx, "order:user-1:key-3", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "expired key should be claimable again")
	})

	t.Run("keys are independent", func(t *testing.T) {
		ok, err := guard.Claim(ctx, "order:user-2:key-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestInMemorySubmissionGuard_Release(t *testing.T) {
	guard := NewInMemorySubmissionGuard(time.Hour)
	defer guard.Close()
	ctx := context.Background()

	ok, err := guard.Claim(ctx, "k", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, guard.Release(ctx, "k"))
	assert.Equal(t, 0, guard.Size())

	ok, err = guard.Claim(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "released key should be claimable")

	assert.NoError(t, guard.Release(ctx, "never-claimed"))
}

func TestInMemorySubmissionGuard_Sweep(t *testing.T) {
	guard := NewInMemorySubmissionGuard(time.Hour)
	defer guard.Close()
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	guard.now = func() time.Time { return base }

	_, _ = guard.Claim(ctx, "short", time.Second)
	_, _ = guard.Claim(ctx, "long", time.Hour)
	require.Equal(t, 2, guard.Size())

	guard.now = func() time.Time { return base.Add(time.Minute) }
	guard.sweep()

	assert.Equal(t, 1, guard.Size())
}

func TestInMemorySubmissionGuard_Concurrency(t *testing.T) {
	guard := NewInMemorySubmissionGuard(time.Hour)
	defer guard.Close()
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	claimed := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := guard.Claim(ctx, "same-key", time.Hour)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				claimed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, claimed, "exactly one concurrent claim should win")
}

func TestInMemorySubmissionGuard_CloseIsIdempotent(t *testing.T) {
	guard := NewInMemorySubmissionGuard(10 * time.Millisecond)
	assert.NoError(t, guard.Close())
	assert.NoError(t, guard.Close())
}

func TestSubmissionGuardFactory_CreateGuard(t *testing.T) {
	ctx := context.Background()

	t.Run("redis disabled uses in-memory", func(t *testing.T) {
		factory := NewSubmissionGuardFactory(config.RedisConfig{Enabled: false}, WithLogger(zap.NewNop()))
		guard, err := factory.CreateGuard(ctx)
		require.NoError(t, err)
		defer guard.Close()
		assert.IsType(t, &InMemorySubmissionGuard{}, guard)
	})

	unreachable := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	t.Run("unreachable redis falls back", func(t *testing.T) {
		factory := NewSubmissionGuardFactory(unreachable)
		guard, err := factory.CreateGuard(ctx)
		require.NoError(t, err)
		defer guard.Close()
		assert.IsType(t, &InMemorySubmissionGuard{}, guard)
	})

	t.Run("fallback disabled returns error", func(t *testing.T) {
		factory := NewSubmissionGuardFactory(unreachable, WithInMemoryFallback(false))
		guard, err := factory.CreateGuard(ctx)
		assert.Error(t, err)
		assert.Nil(t, guard)
	})
}

func TestRedisOptions(t *testing.T) {
	opts := RedisOptions(config.RedisConfig{Host: "cache", Port: 6380, Password: "secret", DB: 2})
	assert.Equal(t, fmt.Sprintf("%s:%d", "cache", 6380), opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
}
