package locks

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aftab48/Haemologix-sub000/internal/domain/providers"
	redisclient "github.com/Aftab48/Haemologix-sub000/internal/infrastructure/clients/redis"
)

func TestMemoryLockProvider_ExcludesSecondHolder(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryLockProvider()

	lock, err := p.Acquire(ctx, "export:donor_selection", time.Minute)
	require.NoError(t, err)

	_, err = p.Acquire(ctx, "export:donor_selection", time.Minute)
	assert.ErrorIs(t, err, providers.ErrLockHeld)

	other, err := p.Acquire(ctx, "export:urgency_assessment", time.Minute)
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, lock.Release(ctx))
	again, err := p.Acquire(ctx, "export:donor_selection", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestMemoryLockProvider_ExpiredLeaseCanBeTaken(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := NewMemoryLockProvider()
	p.now = func() time.Time { return now }

	stale, err := p.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	fresh, err := p.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)

	// releasing the stale lease must not free the fresh one
	require.NoError(t, stale.Release(ctx))
	_, err = p.Acquire(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, providers.ErrLockHeld)

	require.NoError(t, fresh.Release(ctx))
}

func TestRedisLockProvider(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	client := redisclient.NewClientFromRedis(goredis.NewClient(&goredis.Options{Addr: addr}))
	defer client.Close()

	p := NewRedisLockProvider(client, "haemologix:test:")
	lock, err := p.Acquire(ctx, "export", 5*time.Second)
	require.NoError(t, err)

	_, err = p.Acquire(ctx, "export", 5*time.Second)
	assert.ErrorIs(t, err, providers.ErrLockHeld)

	require.NoError(t, lock.Release(ctx))
	again, err := p.Acquire(ctx, "export", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}
