package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/internal/app/repository"
	"github.com/ikkim/ugcfy-backend/internal/billing"
	"github.com/ikkim/ugcfy-backend/internal/db"
	"github.com/ikkim/ugcfy-backend/pkg/shopify"
	"github.com/ikkim/ugcfy-backend/pkg/util"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testShop  = "demo.myshopify.com"
	otherShop = "other.myshopify.com"
)

type testRepos struct {
	db        *gorm.DB
	shops     repository.ShopRepository
	media     repository.MediaRepository
	tags      repository.TagRepository
	widgets   repository.WidgetRepository
	hotspots  repository.HotspotRepository
	channels  repository.ChannelRepository
	team      repository.TeamRepository
	analytics repository.AnalyticsRepository
}

func setupRepos(t *testing.T) *testRepos {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	return &testRepos{
		db:        testDB,
		shops:     repository.NewShopRepository(testDB),
		media:     repository.NewMediaRepository(testDB),
		tags:      repository.NewTagRepository(testDB),
		widgets:   repository.NewWidgetRepository(testDB),
		hotspots:  repository.NewHotspotRepository(testDB),
		channels:  repository.NewChannelRepository(testDB),
		team:      repository.NewTeamRepository(testDB),
		analytics: repository.NewAnalyticsRepository(testDB),
	}
}

// setPlan stores planID on a (possibly new) shop row
func (r *testRepos) setPlan(t *testing.T, shop, planID string) {
	require.NoError(t, r.shops.Install(&model.Shop{Domain: shop, AccessToken: "sealed", Installed: true}))
	require.NoError(t, r.shops.SetPlan(shop, planID, "gid://shopify/AppSubscription/1"))
}

func (r *testRepos) billing(tokens AccessTokenSource, admin SubscriptionAdmin) BillingService {
	if tokens == nil {
		tokens = staticTokens{}
	}
	if admin == nil {
		admin = &fakeAdmin{}
	}
	return NewBillingService(r.shops, r.media, r.widgets, tokens, admin, BillingOptions{
		DefaultPlan: billing.PlanPro,
		ReturnURL:   "https://ugc.example.com/api/billing/confirm",
		TestCharges: true,
	})
}

func (r *testRepos) createMedia(t *testing.T, shop, url string, status model.MediaStatus) *model.Media {
	m := &model.Media{ShopDomain: shop, URL: url, Caption: "caption", Status: status, SourceType: model.SourceURL}
	require.NoError(t, r.media.Create(m))
	return m
}

func (r *testRepos) createTag(t *testing.T, shop, name string) *model.Tag {
	tag := &model.Tag{ShopDomain: shop, Name: name, Slug: util.Slugify(name)}
	require.NoError(t, r.tags.Upsert(tag))
	return tag
}

// staticTokens returns the same token for every shop, or err when set
type staticTokens struct {
	err error
}

func (s staticTokens) AccessToken(shop string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "shpat_test", nil
}

// fakeAdmin stands in for the Shopify Admin API
type fakeAdmin struct {
	mu            sync.Mutex
	products      []shopify.Product
	subscriptions []shopify.AppSubscription
	created       []shopify.SubscriptionRequest
	token         string
	err           error
}

func (f *fakeAdmin) AuthorizeURL(shop, redirectURI, state string) string {
	return "https://" + shop + "/admin/oauth/authorize?state=" + state + "&redirect_uri=" + redirectURI
}

func (f *fakeAdmin) ExchangeCode(ctx context.Context, shop, code string) (*shopify.AccessTokenResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &shopify.AccessTokenResponse{AccessToken: f.token, Scope: "read_products"}, nil
}

func (f *fakeAdmin) SearchProducts(ctx context.Context, shop, accessToken, term string, first int) ([]shopify.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []shopify.Product
	for _, p := range f.products {
		if strings.Contains(strings.ToLower(p.Title), strings.ToLower(term)) && len(out) < first {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeAdmin) GetProducts(ctx context.Context, shop, accessToken string, ids []string) ([]shopify.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []shopify.Product
	for _, id := range ids {
		for _, p := range f.products {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (f *fakeAdmin) CreateAppSubscription(ctx context.Context, shop, accessToken string, req shopify.SubscriptionRequest) (*shopify.SubscriptionResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.created = append(f.created, req)
	f.mu.Unlock()
	return &shopify.SubscriptionResult{
		ConfirmationURL: "https://" + shop + "/admin/charges/confirm",
		SubscriptionID:  "gid://shopify/AppSubscription/1",
	}, nil
}

func (f *fakeAdmin) ActiveSubscriptions(ctx context.Context, shop, accessToken string) ([]shopify.AppSubscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.subscriptions, nil
}

type publishedEvent struct {
	Shop    string
	Type    string
	Payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(shop, eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Shop: shop, Type: eventType, Payload: payload})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// memoryCache is a FeedCache keyed by shop then key
type memoryCache struct {
	mu          sync.Mutex
	entries     map[string]map[string][]byte
	invalidated map[string]int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		entries:     make(map[string]map[string][]byte),
		invalidated: make(map[string]int),
	}
}

func (c *memoryCache) Get(ctx context.Context, shop, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[shop][key]
	return v, ok
}

func (c *memoryCache) Set(ctx context.Context, shop, key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[shop] == nil {
		c.entries[shop] = make(map[string][]byte)
	}
	c.entries[shop][key] = value
}

func (c *memoryCache) Invalidate(ctx context.Context, shop string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, shop)
	c.invalidated[shop]++
}

func (c *memoryCache) invalidations(shop string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidated[shop]
}
