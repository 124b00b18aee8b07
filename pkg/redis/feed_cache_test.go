package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFeedCache_NilIsMiss(t *testing.T) {
	ctx := context.Background()

	var nilCache *FeedCache
	_, ok := nilCache.Get(ctx, "demo.myshopify.com", "gallery")
	assert.False(t, ok)
	nilCache.Set(ctx, "demo.myshopify.com", "gallery", []byte("{}"))
	nilCache.Invalidate(ctx, "demo.myshopify.com")

	noClient := NewFeedCache(nil, time.Minute)
	_, ok = noClient.Get(ctx, "demo.myshopify.com", "gallery")
	assert.False(t, ok)
}

func TestFeedKeys(t *testing.T) {
	assert.Equal(t, "widget:gen:demo.myshopify.com", generationKey("demo.myshopify.com"))
	assert.Equal(t, "widget:feed:demo.myshopify.com:3:gallery|12", feedKey("demo.myshopify.com", 3, "gallery|12"))
	assert.NotEqual(t, feedKey("a.myshopify.com", 1, "k"), feedKey("a.myshopify.com", 2, "k"))
}
