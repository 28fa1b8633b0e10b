package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aftab48/Haemologix-sub000/internal/domain/providers"
)

func TestMemoryAdapter_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryAdapter()

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestMemoryAdapter_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryAdapter()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "health", []byte("1"), time.Minute))

	now = now.Add(59 * time.Second)
	_, err := c.Get(ctx, "health")
	assert.NoError(t, err)

	now = now.Add(time.Second)
	_, err = c.Get(ctx, "health")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}
