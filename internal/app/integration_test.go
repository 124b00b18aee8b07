package app

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/ugcfy-backend/config"
	"github.com/ikkim/ugcfy-backend/internal/app/controller"
	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/internal/app/repository"
	"github.com/ikkim/ugcfy-backend/internal/app/service"
	"github.com/ikkim/ugcfy-backend/internal/billing"
	"github.com/ikkim/ugcfy-backend/internal/db"
	apperrors "github.com/ikkim/ugcfy-backend/internal/errors"
	"github.com/ikkim/ugcfy-backend/internal/middleware"
	"github.com/ikkim/ugcfy-backend/internal/router"
	"github.com/ikkim/ugcfy-backend/internal/storage"
	"github.com/ikkim/ugcfy-backend/internal/websocket"
	"github.com/ikkim/ugcfy-backend/pkg/shopify"
	"github.com/ikkim/ugcfy-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testShop      = "demo.myshopify.com"
	testAPIKey    = "test-api-key"
	testAPISecret = "test-api-secret"
	testAppURL    = "https://ugc.example.com"
	ownerUserID   = "101"
	viewerUserID  = "202"
)

// stubShopify answers Admin API calls without a network
type stubShopify struct{}

func (stubShopify) AuthorizeURL(shop, redirectURI, state string) string {
	return "https://" + shop + "/admin/oauth/authorize?" + url.Values{"state": {state}, "redirect_uri": {redirectURI}}.Encode()
}

func (stubShopify) ExchangeCode(ctx context.Context, shop, code string) (*shopify.AccessTokenResponse, error) {
	return &shopify.AccessTokenResponse{AccessToken: "shpat_" + code, Scope: "read_products"}, nil
}

func (stubShopify) SearchProducts(ctx context.Context, shop, accessToken, term string, first int) ([]shopify.Product, error) {
	return []shopify.Product{}, nil
}

func (stubShopify) GetProducts(ctx context.Context, shop, accessToken string, ids []string) ([]shopify.Product, error) {
	return []shopify.Product{}, nil
}

func (stubShopify) CreateAppSubscription(ctx context.Context, shop, accessToken string, req shopify.SubscriptionRequest) (*shopify.SubscriptionResult, error) {
	return &shopify.SubscriptionResult{ConfirmationURL: "https://" + shop + "/admin/charges/1/confirm", SubscriptionID: "1"}, nil
}

func (stubShopify) ActiveSubscriptions(ctx context.Context, shop, accessToken string) ([]shopify.AppSubscription, error) {
	return nil, nil
}

type TestServer struct {
	Router *gin.Engine
	DB     *gorm.DB
	Hub    *websocket.Hub
}

func setupIntegrationTest(t *testing.T) *TestServer {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: gin.TestMode},
		Shopify: config.ShopifyConfig{
			APIKey:      testAPIKey,
			APISecret:   testAPISecret,
			AppURL:      testAppURL,
			VerifyProxy: true,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"https://admin.shopify.com"}},
	}

	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	sealer := util.NewTokenSealerFromSecret(testAPISecret)
	admin := stubShopify{}
	store := storage.NewMemoryStorage(testAppURL + "/files")

	// Setup repositories
	shopRepo := repository.NewShopRepository(testDB)
	mediaRepo := repository.NewMediaRepository(testDB)
	tagRepo := repository.NewTagRepository(testDB)
	widgetRepo := repository.NewWidgetRepository(testDB)
	hotspotRepo := repository.NewHotspotRepository(testDB)
	channelRepo := repository.NewChannelRepository(testDB)
	teamRepo := repository.NewTeamRepository(testDB)
	analyticsRepo := repository.NewAnalyticsRepository(testDB)

	// Setup services
	shopService := service.NewShopService(shopRepo, tagRepo, admin, sealer, testAPISecret, testAppURL)
	billingService := service.NewBillingService(shopRepo, mediaRepo, widgetRepo, shopService, admin, service.BillingOptions{
		DefaultPlan: billing.PlanPro,
		ReturnURL:   testAppURL + "/api/billing/confirm",
	})
	productService := service.NewProductService(shopService, admin)
	teamService := service.NewTeamService(teamRepo)
	channelService := service.NewChannelService(channelRepo, mediaRepo, tagRepo, billingService, nil, sealer, service.ChannelOptions{
		AppURL:    testAppURL,
		APISecret: testAPISecret,
	}, hub, nil)

	controllers := router.Controllers{
		Auth:      controller.NewAuthController(shopService, testAppURL),
		Media:     controller.NewMediaController(service.NewMediaService(mediaRepo, tagRepo, billingService, store, hub, nil)),
		Upload:    controller.NewUploadController(service.NewUploadService(mediaRepo, billingService, store, 1<<20, hub, nil), 1<<20),
		Tag:       controller.NewTagController(service.NewTagService(tagRepo, nil)),
		Hotspot:   controller.NewHotspotController(service.NewHotspotService(hotspotRepo, mediaRepo, hub, nil)),
		Product:   controller.NewProductController(productService),
		Widget:    controller.NewWidgetController(service.NewWidgetService(widgetRepo, mediaRepo, tagRepo, analyticsRepo, billingService, productService, nil, "https://cdn.example.com/widget.js")),
		Channel:   controller.NewChannelController(channelService, testAppURL),
		Analytics: controller.NewAnalyticsController(service.NewAnalyticsService(analyticsRepo, mediaRepo, productService)),
		Team:      controller.NewTeamController(teamService),
		Billing:   controller.NewBillingController(billingService, testAppURL),
		Webhook:   controller.NewWebhookController(shopService),
		Realtime:  controller.NewRealtimeController(hub, cfg.CORS.AllowedOrigins),
		Files:     controller.NewFileController(store, 1<<20),
	}

	sessionMiddleware := middleware.NewSessionMiddleware(testAPIKey, testAPISecret)
	r := router.NewRouter(controllers, sessionMiddleware, teamService, cfg)

	sealed, err := sealer.Seal("shpat_integration")
	require.NoError(t, err)
	require.NoError(t, testDB.Create(&model.Shop{Domain: testShop, AccessToken: sealed, Installed: true}).Error)

	return &TestServer{
		Router: r.Setup(),
		DB:     testDB,
		Hub:    hub,
	}
}

func sessionToken(t *testing.T, userID string) string {
	token, err := util.GenerateSessionToken(testShop, userID, testAPIKey, testAPISecret, time.Minute)
	require.NoError(t, err)
	return token
}

func (s *TestServer) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func proxyPath(path string, query url.Values) string {
	query.Set("shop", testShop)
	query.Set("timestamp", strconv.FormatInt(time.Now().Unix(), 10))
	query.Set("signature", shopify.SignProxyQuery(query, testAPISecret))
	return path + "?" + query.Encode()
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

// pathOf strips scheme and host so a stored file URL can be replayed against the router
func pathOf(t *testing.T, rawURL string) string {
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return u.RequestURI()
}

// minimal 1x1 PNG
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89,
}

func TestIntegration_Health(t *testing.T) {
	server := setupIntegrationTest(t)

	w := server.request(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestIntegration_ModerationToStorefront(t *testing.T) {
	server := setupIntegrationTest(t)
	owner := sessionToken(t, ownerUserID)

	// Admin routes require a session token
	w := server.request(t, http.MethodGet, "/api/media", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = server.request(t, http.MethodPost, "/api/media", owner, map[string]string{
		"url":     "https://cdn.example.com/look.mp4",
		"caption": "Weekend look",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Media controller.MediaResponse `json:"media"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	mediaID := created.Media.ID

	// Drafts stay off the storefront
	feedPath := proxyPath("/apps/ugc/widgets/gallery", url.Values{})
	w = server.request(t, http.MethodGet, feedPath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var feed service.Feed
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	assert.Empty(t, feed.Items)

	w = server.request(t, http.MethodPost, "/api/media-status", owner, map[string]interface{}{
		"media_id": mediaID,
		"status":   "APPROVED",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = server.request(t, http.MethodGet, feedPath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	require.Len(t, feed.Items, 1)
	assert.Equal(t, mediaID, feed.Items[0].ID)
	assert.True(t, feed.Items[0].IsVideo)

	// Unsigned storefront requests are rejected
	w = server.request(t, http.MethodGet, "/apps/ugc/widgets/gallery?shop="+testShop, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.AuthInvalidProxySig, errorCode(t, w))

	// Storefront tracking then the dashboard
	w = server.request(t, http.MethodPost, "/api/track", "", map[string]interface{}{"type": "view", "media_id": mediaID})
	require.Equal(t, http.StatusOK, w.Code)
	w = server.request(t, http.MethodPost, "/api/track", "", map[string]interface{}{"type": "click", "media_id": mediaID})
	require.Equal(t, http.StatusOK, w.Code)

	w = server.request(t, http.MethodGet, "/api/analytics?period=7", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var dashboard service.Dashboard
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dashboard))
	assert.Equal(t, int64(1), dashboard.TotalViews)
	assert.Equal(t, int64(1), dashboard.TotalClicks)
	assert.Equal(t, 100.0, dashboard.EngagementRate)
}

func TestIntegration_TeamPermissions(t *testing.T) {
	server := setupIntegrationTest(t)
	owner := sessionToken(t, ownerUserID)
	viewer := sessionToken(t, viewerUserID)

	w := server.request(t, http.MethodPost, "/api/team", owner, map[string]string{
		"email":           "viewer@example.com",
		"preset":          "VIEWER",
		"shopify_user_id": viewerUserID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var invited struct {
		Member model.TeamMember `json:"member"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &invited))

	// Invited members start inactive
	w = server.request(t, http.MethodGet, "/api/analytics", viewer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperrors.AuthzMemberInactive, errorCode(t, w))

	w = server.request(t, http.MethodPut, "/api/team/"+strconv.Itoa(int(invited.Member.ID))+"/active", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = server.request(t, http.MethodGet, "/api/analytics", viewer, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = server.request(t, http.MethodPost, "/api/media", viewer, map[string]string{"url": "https://cdn.example.com/a.jpg"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperrors.AuthzPermissionDenied, errorCode(t, w))

	// Reads need no permission
	w = server.request(t, http.MethodGet, "/api/media", viewer, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIntegration_InstallAndUninstall(t *testing.T) {
	server := setupIntegrationTest(t)

	w := server.request(t, http.MethodGet, "/auth?shop=new-shop.myshopify.com", "", nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "https://new-shop.myshopify.com/admin/oauth/authorize")

	w = server.request(t, http.MethodGet, "/auth?shop=evil.example.com", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := []byte(`{"myshopify_domain":"` + testShop + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/app-uninstalled", bytes.NewReader(body))
	req.Header.Set("X-Shopify-Topic", "app/uninstalled")
	req.Header.Set("X-Shopify-Shop-Domain", testShop)
	req.Header.Set("X-Shopify-Hmac-Sha256", shopify.SignWebhook(body, testAPISecret))
	rec := httptest.NewRecorder()
	server.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var shop model.Shop
	require.NoError(t, server.DB.Where("domain = ?", testShop).First(&shop).Error)
	assert.False(t, shop.Installed)
	assert.Empty(t, shop.AccessToken)
}

func TestIntegration_StorefrontTrackingCORS(t *testing.T) {
	server := setupIntegrationTest(t)

	preflight := func(path, origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, path, nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Content-Type")
		w := httptest.NewRecorder()
		server.Router.ServeHTTP(w, req)
		return w
	}

	w := preflight("/api/track", "https://"+testShop)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))

	// Session routes keep the admin allowlist
	w = preflight("/api/media", "https://"+testShop)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = preflight("/api/media", "https://admin.shopify.com")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://admin.shopify.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestIntegration_LocalFileStorage(t *testing.T) {
	server := setupIntegrationTest(t)
	owner := sessionToken(t, ownerUserID)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", "beach.png")
	require.NoError(t, err)
	_, err = part.Write(pngBytes)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+owner)
	w := httptest.NewRecorder()
	server.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var uploaded struct {
		Media []controller.MediaResponse `json:"media"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &uploaded))
	require.Len(t, uploaded.Media, 1)
	assert.True(t, strings.HasPrefix(uploaded.Media[0].URL, testAppURL+"/files/"))

	// The stored media URL is served by this app
	w = server.request(t, http.MethodGet, pathOf(t, uploaded.Media[0].URL), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, pngBytes, w.Body.Bytes())

	w = server.request(t, http.MethodGet, "/files/ugc/"+testShop+"/missing.png", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Presigned uploads land on the same routes
	w = server.request(t, http.MethodPost, "/api/upload/presigned-url", owner, map[string]string{
		"filename":     "clip.mp4",
		"content_type": "video/mp4",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var presigned storage.PresignedURLResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &presigned))

	put := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, path, strings.NewReader("video-bytes"))
		req.Header.Set("Content-Type", "video/mp4")
		w := httptest.NewRecorder()
		server.Router.ServeHTTP(w, req)
		return w
	}

	w = put(pathOf(t, presigned.FileURL))
	assert.Equal(t, http.StatusForbidden, w.Code, "unsigned put")

	w = put(pathOf(t, presigned.UploadURL))
	require.Equal(t, http.StatusOK, w.Code)

	w = put(pathOf(t, presigned.UploadURL))
	assert.Equal(t, http.StatusForbidden, w.Code, "signature is single use")

	w = server.request(t, http.MethodGet, pathOf(t, presigned.FileURL), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "video/mp4", w.Header().Get("Content-Type"))
	assert.Equal(t, "video-bytes", w.Body.String())
}
