package service

import (
	"context"
)

// EventPublisher pushes moderation events to connected admin sessions
type EventPublisher interface {
	Publish(shop, eventType string, payload interface{})
}

// FeedCache caches rendered storefront feeds per shop
type FeedCache interface {
	Get(ctx context.Context, shop, key string) ([]byte, bool)
	Set(ctx context.Context, shop, key string, value []byte)
	Invalidate(ctx context.Context, shop string)
}

// Event types, matching the websocket hub
const (
	EventMediaCreated  = "media.created"
	EventMediaUpdated  = "media.updated"
	EventMediaDeleted  = "media.deleted"
	EventMediaImported = "media.imported"
)

type noopPublisher struct{}

func (noopPublisher) Publish(string, string, interface{}) {}

type noopCache struct{}

func (noopCache) Get(context.Context, string, string) ([]byte, bool) { return nil, false }
func (noopCache) Set(context.Context, string, string, []byte)        {}
func (noopCache) Invalidate(context.Context, string)                 {}

// mediaNotifier publishes a media event and drops the shop's cached feeds
type mediaNotifier struct {
	events EventPublisher
	cache  FeedCache
}

func newMediaNotifier(events EventPublisher, cache FeedCache) mediaNotifier {
	if events == nil {
		events = noopPublisher{}
	}
	if cache == nil {
		cache = noopCache{}
	}
	return mediaNotifier{events: events, cache: cache}
}

func (n mediaNotifier) changed(ctx context.Context, shop, eventType string, payload interface{}) {
	n.cache.Invalidate(ctx, shop)
	n.events.Publish(shop, eventType, payload)
}
