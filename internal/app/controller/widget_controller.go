package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/internal/app/service"
	apperrors "github.com/ikkim/ugcfy-backend/internal/errors"
)

// Storefront responses are cached by the browser and the Shopify proxy CDN
const widgetCacheControl = "public, max-age=300, s-maxage=600"

type WidgetController struct {
	widgetService service.WidgetService
}

func NewWidgetController(widgetService service.WidgetService) *WidgetController {
	return &WidgetController{widgetService: widgetService}
}

type WidgetRequest struct {
	Name     string               `json:"name"`
	Type     string               `json:"type"`
	Settings model.WidgetSettings `json:"settings"`
}

// Widget serves a public storefront feed through the app proxy
// GET /apps/ugc/widgets/:type
func (ctrl *WidgetController) Widget(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")

	widgetType := model.WidgetType(strings.ToLower(c.Param("type")))
	if widgetType == model.WidgetShoppable {
		ctrl.shoppable(c)
		return
	}

	feed, err := ctrl.widgetService.Feed(c.Request.Context(), service.FeedQuery{
		Shop:     strings.TrimSpace(c.Query("shop")),
		Type:     widgetType,
		Tags:     splitList(c.Query("tags")),
		Product:  c.Query("product"),
		Limit:    queryInt(c, "limit", 0),
		Layout:   c.Query("layout"),
		Columns:  queryInt(c, "columns", 0),
		Autoplay: queryBool(c, "autoplay"),
		Interval: queryInt(c, "interval", 0),
		Duration: queryInt(c, "duration", 0),
	})
	if err != nil {
		respondServiceError(c, err, "load widget feed")
		return
	}

	c.Header("Cache-Control", widgetCacheControl)
	c.JSON(http.StatusOK, feed)
}

func (ctrl *WidgetController) shoppable(c *gin.Context) {
	mediaID, err := strconv.ParseUint(c.Query("media_id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "media_id is required")
		return
	}

	query := service.ShoppableQuery{
		Shop:      strings.TrimSpace(c.Query("shop")),
		MediaID:   uint(mediaID),
		Referrer:  c.Request.Referer(),
		UserAgent: c.Request.UserAgent(),
	}
	if raw := c.Query("t"); raw != "" {
		at, err := strconv.ParseFloat(raw, 64)
		if err != nil || at < 0 {
			apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "t must be a non-negative number of seconds")
			return
		}
		query.At = &at
	}

	video, err := ctrl.widgetService.Shoppable(c.Request.Context(), query)
	if err != nil {
		respondServiceError(c, err, "load shoppable video")
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, video)
}

// ListWidgets GET /api/widgets
func (ctrl *WidgetController) ListWidgets(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	widgets, err := ctrl.widgetService.List(shop)
	if err != nil {
		respondServiceError(c, err, "list widgets")
		return
	}

	c.JSON(http.StatusOK, gin.H{"widgets": widgets})
}

// CreateWidget POST /api/widgets
func (ctrl *WidgetController) CreateWidget(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	var req WidgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
		return
	}

	widget, err := ctrl.widgetService.Create(shop, req.input())
	if err != nil {
		respondServiceError(c, err, "create widget")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"widget": widget})
}

// UpdateWidget PUT /api/widgets/:id
func (ctrl *WidgetController) UpdateWidget(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req WidgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
		return
	}

	widget, err := ctrl.widgetService.Update(shop, id, req.input())
	if err != nil {
		respondServiceError(c, err, "update widget")
		return
	}

	c.JSON(http.StatusOK, gin.H{"widget": widget})
}

// DeleteWidget DELETE /api/widgets/:id
func (ctrl *WidgetController) DeleteWidget(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.widgetService.Delete(shop, id); err != nil {
		respondServiceError(c, err, "delete widget")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// EmbedCode GET /api/widgets/:id/embed
func (ctrl *WidgetController) EmbedCode(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	snippet, err := ctrl.widgetService.Embed(shop, id)
	if err != nil {
		respondServiceError(c, err, "render embed code")
		return
	}

	c.JSON(http.StatusOK, gin.H{"html": snippet})
}

// Setup returns the data for the widget builder
// GET /api/widget-setup
func (ctrl *WidgetController) Setup(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	setup, err := ctrl.widgetService.Setup(shop)
	if err != nil {
		respondServiceError(c, err, "load widget setup")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"shop":         setup.Shop,
		"tags":         setup.Tags,
		"sample_media": toMediaResponses(setup.SampleMedia),
	})
}

func (r WidgetRequest) input() service.WidgetInput {
	return service.WidgetInput{
		Name:     r.Name,
		Type:     model.WidgetType(strings.ToLower(strings.TrimSpace(r.Type))),
		Settings: r.Settings,
	}
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func queryBool(c *gin.Context, name string) bool {
	b, _ := strconv.ParseBool(c.Query(name))
	return b
}
