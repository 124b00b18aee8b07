package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/ikkim/ugcfy-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// FeedCache stores rendered widget feeds per shop.
// Entries are keyed by a per-shop generation so Invalidate is a single INCR.
// A nil FeedCache or one without a client is a permanent miss.
type FeedCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewFeedCache(client *redis.Client, ttl time.Duration) *FeedCache {
	return &FeedCache{client: client, ttl: ttl}
}

func generationKey(shop string) string {
	return fmt.Sprintf("widget:gen:%s", shop)
}

func feedKey(shop string, generation int64, key string) string {
	return fmt.Sprintf("widget:feed:%s:%d:%s", shop, generation, key)
}

func (c *FeedCache) enabled() bool {
	return c != nil && c.client != nil
}

func (c *FeedCache) generation(ctx context.Context, shop string) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(shop)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// Get returns the cached feed for key, reporting whether it was found
func (c *FeedCache) Get(ctx context.Context, shop, key string) ([]byte, bool) {
	if !c.enabled() {
		return nil, false
	}

	gen, err := c.generation(ctx, shop)
	if err != nil {
		logger.Warn("Widget cache generation lookup failed", map[string]interface{}{
			"shop":  shop,
			"error": err.Error(),
		})
		return nil, false
	}

	val, err := c.client.Get(ctx, feedKey(shop, gen, key)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Warn("Widget cache read failed", map[string]interface{}{
			"shop":  shop,
			"error": err.Error(),
		})
		return nil, false
	}

	logger.Debug("Widget cache hit", map[string]interface{}{
		"shop": shop,
		"key":  key,
	})
	return val, true
}

// Set stores value under the shop's current generation
func (c *FeedCache) Set(ctx context.Context, shop, key string, value []byte) {
	if !c.enabled() {
		return
	}

	gen, err := c.generation(ctx, shop)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, feedKey(shop, gen, key), value, c.ttl).Err(); err != nil {
		logger.Warn("Widget cache write failed", map[string]interface{}{
			"shop":  shop,
			"error": err.Error(),
		})
	}
}

// Invalidate drops every cached feed of shop
func (c *FeedCache) Invalidate(ctx context.Context, shop string) {
	if !c.enabled() {
		return
	}

	if err := c.client.Incr(ctx, generationKey(shop)).Err(); err != nil {
		logger.Error("Failed to invalidate widget cache", err, map[string]interface{}{
			"shop": shop,
		})
		return
	}

	logger.Debug("Widget cache invalidated", map[string]interface{}{
		"shop": shop,
	})
}
