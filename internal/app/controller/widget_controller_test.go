package controller

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/internal/app/service"
	apperrors "github.com/ikkim/ugcfy-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupWidgetRoutes(env *testEnv) *gin.Engine {
	ctrl := NewWidgetController(env.widgets)
	r := env.router(testShop)
	r.GET("/apps/ugc/widgets/:type", ctrl.Widget)
	r.GET("/api/widgets", ctrl.ListWidgets)
	r.POST("/api/widgets", ctrl.CreateWidget)
	r.PUT("/api/widgets/:id", ctrl.UpdateWidget)
	r.DELETE("/api/widgets/:id", ctrl.DeleteWidget)
	r.GET("/api/widgets/:id/embed", ctrl.EmbedCode)
	r.GET("/api/widget-setup", ctrl.Setup)
	return r
}

func TestWidgetController_Feed(t *testing.T) {
	env := setupControllerTest(t)
	r := setupWidgetRoutes(env)

	env.createMedia(t, "https://cdn.example.com/a.jpg", model.MediaStatusApproved)
	env.createMedia(t, "https://cdn.example.com/b.mp4", model.MediaStatusApproved)
	env.createMedia(t, "https://cdn.example.com/c.jpg", model.MediaStatusDraft)

	w := doJSON(r, http.MethodGet, "/apps/ugc/widgets/gallery?shop="+testShop+"&limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=300, s-maxage=600", w.Header().Get("Cache-Control"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	var feed service.Feed
	decode(t, w, &feed)
	require.Len(t, feed.Items, 1)
	assert.True(t, feed.Items[0].IsVideo)
	assert.Equal(t, 1, feed.Config.Limit)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   string
	}{
		{name: "Unknown type", path: "/apps/ugc/widgets/slideshow?shop=" + testShop, wantStatus: http.StatusBadRequest, wantCode: apperrors.WidgetInvalidType},
		{name: "Invalid shop", path: "/apps/ugc/widgets/gallery?shop=example.com", wantStatus: http.StatusBadRequest, wantCode: apperrors.AuthInvalidShop},
		{name: "Shoppable without media", path: "/apps/ugc/widgets/shoppable?shop=" + testShop, wantStatus: http.StatusBadRequest, wantCode: apperrors.ValidationInvalidID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}
}

func TestWidgetController_Shoppable(t *testing.T) {
	env := setupControllerTest(t)
	r := setupWidgetRoutes(env)

	video := env.createMedia(t, "https://cdn.example.com/look.mp4", model.MediaStatusApproved)
	draft := env.createMedia(t, "https://cdn.example.com/draft.mp4", model.MediaStatusDraft)

	_, err := env.hotspots.Create(context.Background(), testShop, service.CreateHotspotInput{
		MediaID:   video.ID,
		ProductID: "gid://shopify/Product/1",
		Timestamp: floatPtr(2),
		Duration:  floatPtr(3),
	})
	require.NoError(t, err)

	base := "/apps/ugc/widgets/shoppable?shop=" + testShop + "&media_id="

	w := doJSON(r, http.MethodGet, base+strconv.Itoa(int(video.ID))+"&t=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	var body struct {
		IsVideo        bool                   `json:"is_video"`
		Hotspots       []model.ProductHotspot `json:"hotspots"`
		ActiveHotspots []model.ProductHotspot `json:"active_hotspots"`
	}
	decode(t, w, &body)
	assert.True(t, body.IsVideo)
	assert.Len(t, body.Hotspots, 1)
	assert.Len(t, body.ActiveHotspots, 1)

	w = doJSON(r, http.MethodGet, base+strconv.Itoa(int(draft.ID)), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.MediaNotAvailable, errorCode(t, w))

	w = doJSON(r, http.MethodGet, base+strconv.Itoa(int(video.ID))+"&t=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ValidationInvalidRange, errorCode(t, w))
}

func TestWidgetController_CRUD(t *testing.T) {
	env := setupControllerTest(t)
	r := setupWidgetRoutes(env)

	w := doJSON(r, http.MethodPost, "/api/widgets", jsonBody{"name": "", "type": "gallery"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ValidationRequired, errorCode(t, w))

	w = doJSON(r, http.MethodPost, "/api/widgets", jsonBody{
		"name":     "Homepage",
		"type":     "Carousel",
		"settings": jsonBody{"tags": []string{"summer"}, "limit": 8},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Widget model.Widget `json:"widget"`
	}
	decode(t, w, &created)
	assert.Equal(t, model.WidgetCarousel, created.Widget.Type)
	path := "/api/widgets/" + strconv.Itoa(int(created.Widget.ID))

	w = doJSON(r, http.MethodGet, path+"/embed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var embed struct {
		HTML string `json:"html"`
	}
	decode(t, w, &embed)
	assert.True(t, strings.Contains(embed.HTML, testShop))
	assert.True(t, strings.Contains(embed.HTML, "https://cdn.example.com/widget.js"))

	w = doJSON(r, http.MethodPut, path, jsonBody{"name": "Footer", "type": "gallery"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/widgets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Widgets []model.Widget `json:"widgets"`
	}
	decode(t, w, &list)
	require.Len(t, list.Widgets, 1)
	assert.Equal(t, "Footer", list.Widgets[0].Name)

	w = doJSON(r, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, path+"/embed", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.WidgetNotFound, errorCode(t, w))
}

func TestWidgetController_Setup(t *testing.T) {
	env := setupControllerTest(t)
	r := setupWidgetRoutes(env)

	env.createMedia(t, "https://cdn.example.com/a.jpg", model.MediaStatusApproved)
	env.createMedia(t, "https://cdn.example.com/b.jpg", model.MediaStatusDraft)
	_, err := env.tags.CreateTag(context.Background(), testShop, "Summer")
	require.NoError(t, err)

	w := doJSON(r, http.MethodGet, "/api/widget-setup", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Shop        string          `json:"shop"`
		Tags        []model.Tag     `json:"tags"`
		SampleMedia []MediaResponse `json:"sample_media"`
	}
	decode(t, w, &body)
	assert.Equal(t, testShop, body.Shop)
	assert.Len(t, body.Tags, 1)
	assert.Len(t, body.SampleMedia, 1, "approved media only")
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
}

func floatPtr(f float64) *float64 {
	return &f
}
