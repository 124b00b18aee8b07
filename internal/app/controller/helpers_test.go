package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/internal/app/repository"
	"github.com/ikkim/ugcfy-backend/internal/app/service"
	"github.com/ikkim/ugcfy-backend/internal/billing"
	"github.com/ikkim/ugcfy-backend/internal/db"
	apperrors "github.com/ikkim/ugcfy-backend/internal/errors"
	"github.com/ikkim/ugcfy-backend/internal/middleware"
	"github.com/ikkim/ugcfy-backend/internal/storage"
	"github.com/ikkim/ugcfy-backend/pkg/shopify"
	"github.com/ikkim/ugcfy-backend/pkg/util"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testShop      = "demo.myshopify.com"
	testAppURL    = "https://ugc.example.com"
	testAPISecret = "test-api-secret"
)

// fakeShopify stands in for the Shopify Admin API
type fakeShopify struct {
	products      []shopify.Product
	subscriptions []shopify.AppSubscription
}

func (f *fakeShopify) AuthorizeURL(shop, redirectURI, state string) string {
	return "https://" + shop + "/admin/oauth/authorize?state=" + state
}

func (f *fakeShopify) ExchangeCode(ctx context.Context, shop, code string) (*shopify.AccessTokenResponse, error) {
	return &shopify.AccessTokenResponse{AccessToken: "shpat_" + code, Scope: "read_products"}, nil
}

func (f *fakeShopify) SearchProducts(ctx context.Context, shop, accessToken, term string, first int) ([]shopify.Product, error) {
	return f.products, nil
}

func (f *fakeShopify) GetProducts(ctx context.Context, shop, accessToken string, ids []string) ([]shopify.Product, error) {
	return f.products, nil
}

func (f *fakeShopify) CreateAppSubscription(ctx context.Context, shop, accessToken string, req shopify.SubscriptionRequest) (*shopify.SubscriptionResult, error) {
	return &shopify.SubscriptionResult{
		ConfirmationURL: "https://" + shop + "/admin/charges/1/confirm",
		SubscriptionID:  "gid://shopify/AppSubscription/1",
	}, nil
}

func (f *fakeShopify) ActiveSubscriptions(ctx context.Context, shop, accessToken string) ([]shopify.AppSubscription, error) {
	return f.subscriptions, nil
}

// testEnv wires real services over the sqlite test database
type testEnv struct {
	db        *gorm.DB
	admin     *fakeShopify
	storage   *storage.MemoryStorage
	shops     service.ShopService
	billing   service.BillingService
	media     service.MediaService
	tags      service.TagService
	hotspots  service.HotspotService
	team      service.TeamService
	uploads   service.UploadService
	channels  service.ChannelService
	widgets   service.WidgetService
	analytics service.AnalyticsService
	products  service.ProductService
}

func setupControllerTest(t *testing.T) *testEnv {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	gin.SetMode(gin.TestMode)

	shopRepo := repository.NewShopRepository(testDB)
	mediaRepo := repository.NewMediaRepository(testDB)
	tagRepo := repository.NewTagRepository(testDB)
	widgetRepo := repository.NewWidgetRepository(testDB)
	hotspotRepo := repository.NewHotspotRepository(testDB)
	channelRepo := repository.NewChannelRepository(testDB)
	teamRepo := repository.NewTeamRepository(testDB)
	analyticsRepo := repository.NewAnalyticsRepository(testDB)

	sealer := util.NewTokenSealerFromSecret(testAPISecret)
	admin := &fakeShopify{}
	store := storage.NewMemoryStorage("https://cdn.example.com")

	env := &testEnv{db: testDB, admin: admin, storage: store}
	env.shops = service.NewShopService(shopRepo, tagRepo, admin, sealer, testAPISecret, testAppURL)
	env.billing = service.NewBillingService(shopRepo, mediaRepo, widgetRepo, env.shops, admin, service.BillingOptions{
		DefaultPlan: billing.PlanPro,
		ReturnURL:   testAppURL + "/api/billing/confirm",
		TestCharges: true,
	})
	env.products = service.NewProductService(env.shops, admin)
	env.media = service.NewMediaService(mediaRepo, tagRepo, env.billing, store, nil, nil)
	env.tags = service.NewTagService(tagRepo, nil)
	env.hotspots = service.NewHotspotService(hotspotRepo, mediaRepo, nil, nil)
	env.team = service.NewTeamService(teamRepo)
	env.uploads = service.NewUploadService(mediaRepo, env.billing, store, 1<<20, nil, nil)
	env.channels = service.NewChannelService(channelRepo, mediaRepo, tagRepo, env.billing, nil, sealer, service.ChannelOptions{
		AppURL:    testAppURL,
		APISecret: testAPISecret,
	}, nil, nil)
	env.widgets = service.NewWidgetService(widgetRepo, mediaRepo, tagRepo, analyticsRepo, env.billing, env.products, nil, "https://cdn.example.com/widget.js")
	env.analytics = service.NewAnalyticsService(analyticsRepo, mediaRepo, env.products)

	return env
}

// router returns an engine whose requests are authenticated as shop
func (e *testEnv) router(shop string) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if shop != "" {
			c.Set(middleware.ShopDomainKey, shop)
			c.Set(middleware.ShopifyUserIDKey, "101")
		}
		c.Next()
	})
	return r
}

func (e *testEnv) createMedia(t *testing.T, url string, status model.MediaStatus) *model.Media {
	m := &model.Media{ShopDomain: testShop, URL: url, Caption: "caption", Status: status, SourceType: model.SourceURL}
	require.NoError(t, e.db.Create(m).Error)
	return m
}

// installShop stores an installed shop with a sealed admin token
func (e *testEnv) installShop(t *testing.T, planID string) {
	sealed, err := util.NewTokenSealerFromSecret(testAPISecret).Seal("shpat_test")
	require.NoError(t, err)

	shop := &model.Shop{Domain: testShop, AccessToken: sealed, Installed: true}
	if planID != "" {
		shop.PlanID = &planID
	}
	require.NoError(t, e.db.Create(shop).Error)
}

func (e *testEnv) setPlan(t *testing.T, planID string) {
	e.installShop(t, planID)
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	var body apperrors.ErrorResponse
	decode(t, w, &body)
	return body.Error
}
