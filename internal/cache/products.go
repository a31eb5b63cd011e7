package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/storefront/internal/model"
)

// ProductCache caches storefront product listings in Redis. Listings are
// read-heavy and change only on admin writes, so cache-aside with a short TTL
// plus explicit invalidation on write keeps the DB out of the hot path.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	return &ProductCache{client: client, ttl: ttl}
}

func listKey(status string, featured *bool, offset, limit int) string {
	f := "any"
	if featured != nil {
		f = fmt.Sprintf("%t", *featured)
	}
	if status == "" {
		status = "any"
	}
	return fmt.Sprintf("products:list:%s:%s:%d:%d", status, f, offset, limit)
}

// GetList returns the cached listing, or (nil, false) on miss or decode error.
func (c *ProductCache) GetList(ctx context.Context, status string, featured *bool, offset, limit int) ([]*model.Product, bool) {
	data, err := c.client.Get(ctx, listKey(status, featured, offset, limit)).Bytes()
	if err != nil {
		return nil, false
	}
	var out []*model.Product
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (c *ProductCache) SetList(ctx context.Context, status string, featured *bool, offset, limit int, products []*model.Product) {
	payload, err := json.Marshal(products)
	if err != nil {
		return
	}
	key := listKey(status, featured, offset, limit)
	_ = c.client.Set(ctx, key, payload, c.ttl).Err()
	// track keys so a write can invalidate every cached page
	_ = c.client.SAdd(ctx, "products:list:keys", key).Err()
	_ = c.client.Expire(ctx, "products:list:keys", c.ttl).Err()
}

// InvalidateLists drops every cached listing page. Called on any product write.
func (c *ProductCache) InvalidateLists(ctx context.Context) {
	keys, err := c.client.SMembers(ctx, "products:list:keys").Result()
	if err != nil || len(keys) == 0 {
		return
	}
	_ = c.client.Del(ctx, append(keys, "products:list:keys")...).Err()
}
