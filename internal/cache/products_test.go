package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/storefront/internal/model"
)

func newTestCache(t *testing.T) (*ProductCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewProductCache(client, time.Minute), mr
}

func TestProductCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, ok := c.GetList(ctx, "active", nil, 0, 20)
	assert.False(t, ok)

	products := []*model.Product{
		{ID: "p1", Name: "Oak Bookshelf", Slug: "oak-bookshelf", Price: 199, Status: model.ProductStatusActive},
	}
	c.SetList(ctx, "active", nil, 0, 20, products)

	got, ok := c.GetList(ctx, "active", nil, 0, 20)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ID)

	// different page is a separate key
	_, ok = c.GetList(ctx, "active", nil, 20, 20)
	assert.False(t, ok)
}

func TestProductCacheInvalidation(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	featured := true
	c.SetList(ctx, "active", nil, 0, 20, []*model.Product{{ID: "p1"}})
	c.SetList(ctx, "active", &featured, 0, 20, []*model.Product{{ID: "p2"}})

	c.InvalidateLists(ctx)

	_, ok := c.GetList(ctx, "active", nil, 0, 20)
	assert.False(t, ok)
	_, ok = c.GetList(ctx, "active", &featured, 0, 20)
	assert.False(t, ok)
}

func TestProductCacheTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.SetList(ctx, "", nil, 0, 20, []*model.Product{{ID: "p1"}})
	mr.FastForward(2 * time.Minute)

	_, ok := c.GetList(ctx, "", nil, 0, 20)
	assert.False(t, ok)
}
