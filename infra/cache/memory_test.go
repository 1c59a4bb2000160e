package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corecache "github.com/kilianp07/metrotraffic/core/cache"
	"github.com/kilianp07/metrotraffic/core/factory"
)

func TestMemoryCache(t *testing.T) {
	m, err := NewMemory(context.Background(), MemoryConfig{TTLSeconds: 60})
	require.NoError(t, err)
	defer func() { _ = m.Close() }()

	ctx := context.Background()
	_, err = m.Get(ctx, "missing")
	assert.ErrorIs(t, err, corecache.ErrMiss)

	require.NoError(t, m.Set(ctx, "k", 4962.04))
	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 4962.04, v)
	assert.Equal(t, 1, m.Len())
}

func TestRegisteredMemoryBackend(t *testing.T) {
	c, err := corecache.New(factory.ModuleConfig{Type: "memory", Conf: map[string]any{"ttl_seconds": "30"}})
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	_, ok := c.(*Memory)
	assert.True(t, ok)
}

func TestRedisRequiresAddr(t *testing.T) {
	_, err := NewRedis(context.Background(), RedisConfig{})
	assert.Error(t, err)
}
