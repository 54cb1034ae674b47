package cache_test

import (
	"context"
	"errors"
	"innkeep/shared/cache"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	IDs []string `json:"ids"`
}

func TestMemoryCache_SaveGet(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()

	require.NoError(t, c.Save(ctx, "availability:search:abc", entry{IDs: []string{"R1"}}, 30))

	var got entry
	require.NoError(t, c.Get(ctx, "availability:search:abc", &got))
	assert.Equal(t, []string{"R1"}, got.IDs)
}

func TestMemoryCache_MissWrapsNil(t *testing.T) {
	var got entry

	err := cache.NewMemoryCache().Get(context.Background(), "missing", &got)
	assert.True(t, errors.Is(err, cache.Nil))
}

func TestMemoryCache_Clear(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()

	require.NoError(t, c.Save(ctx, "booking:get:1", entry{}, 0))
	require.NoError(t, c.Save(ctx, "booking:gets:x", entry{}, 0))
	require.NoError(t, c.Clear(ctx, "booking:gets:*"))

	var got entry
	assert.NoError(t, c.Get(ctx, "booking:get:1", &got))
	assert.Error(t, c.Get(ctx, "booking:gets:x", &got))

	require.NoError(t, c.Delete(ctx, "booking:get:1"))
	assert.Error(t, c.Get(ctx, "booking:get:1", &got))
}
