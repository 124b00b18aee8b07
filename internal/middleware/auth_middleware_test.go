package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/ugcfy-backend/internal/app/service"
	apperrors "github.com/ikkim/ugcfy-backend/internal/errors"
	"github.com/ikkim/ugcfy-backend/internal/permissions"
	"github.com/ikkim/ugcfy-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey    = "test-api-key"
	testAPISecret = "test-api-secret-for-middleware"
	testShop      = "demo.myshopify.com"
)

func setupMiddlewareTest() (*gin.Engine, *SessionMiddleware) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router, NewSessionMiddleware(testAPIKey, testAPISecret)
}

func generateTestToken(t *testing.T, userID string, expiry time.Duration) string {
	token, err := util.GenerateSessionToken(testShop, userID, testAPIKey, testAPISecret, expiry)
	require.NoError(t, err)
	return token
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestSessionMiddleware_Authenticate(t *testing.T) {
	router, m := setupMiddlewareTest()

	router.GET("/test", m.Authenticate(), func(c *gin.Context) {
		shop, _ := GetShopDomain(c)
		userID, _ := GetShopifyUserID(c)
		c.JSON(http.StatusOK, gin.H{"shop": shop, "user": userID})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+generateTestToken(t, "101", time.Minute))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, testShop, body["shop"])
	assert.Equal(t, "101", body["user"])
}

func TestSessionMiddleware_Authenticate_QueryToken(t *testing.T) {
	router, m := setupMiddlewareTest()

	router.GET("/ws", m.Authenticate(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+generateTestToken(t, "101", time.Minute), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestSessionMiddleware_Authenticate_Rejects(t *testing.T) {
	otherSecret, err := util.GenerateSessionToken(testShop, "101", testAPIKey, "another-secret", time.Minute)
	require.NoError(t, err)
	otherAudience, err := util.GenerateSessionToken(testShop, "101", "another-app", testAPISecret, time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{name: "Missing token", header: "", wantCode: apperrors.AuthUnauthorized},
		{name: "Wrong scheme", header: "Basic abc", wantCode: apperrors.AuthTokenInvalid},
		{name: "Garbage", header: "Bearer not-a-jwt", wantCode: apperrors.AuthTokenInvalid},
		{name: "Wrong secret", header: "Bearer " + otherSecret, wantCode: apperrors.AuthTokenInvalid},
		{name: "Wrong audience", header: "Bearer " + otherAudience, wantCode: apperrors.AuthTokenInvalid},
		{name: "Expired", header: "Bearer " + generateTestToken(t, "101", -time.Minute), wantCode: apperrors.AuthTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, m := setupMiddlewareTest()
			router.GET("/test", m.Authenticate(), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}
}

// stubTeam answers Authorize with a fixed error
type stubTeam struct {
	service.TeamService
	err        error
	permission string
}

func (s *stubTeam) Authorize(shop, shopifyUserID, permission string) error {
	s.permission = permission
	return s.err
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "Allowed", wantStatus: http.StatusOK},
		{name: "Inactive member", err: service.ErrMemberInactive, wantStatus: http.StatusForbidden, wantCode: apperrors.AuthzMemberInactive},
		{name: "Denied", err: service.ErrPermissionDenied, wantStatus: http.StatusForbidden, wantCode: apperrors.AuthzPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, m := setupMiddlewareTest()
			team := &stubTeam{err: tt.err}

			router.DELETE("/media/1",
				m.Authenticate(),
				RequirePermission(team, permissions.MediaDelete),
				func(c *gin.Context) { c.Status(http.StatusOK) },
			)

			req := httptest.NewRequest(http.MethodDelete, "/media/1", nil)
			req.Header.Set("Authorization", "Bearer "+generateTestToken(t, "102", time.Minute))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, permissions.MediaDelete, team.permission)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(t, w))
			}
		})
	}
}

func TestRequirePermission_NoSession(t *testing.T) {
	router, _ := setupMiddlewareTest()
	router.GET("/test", RequirePermission(&stubTeam{}, permissions.AnalyticsView), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
