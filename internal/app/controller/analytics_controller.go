package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/ugcfy-backend/internal/app/service"
	apperrors "github.com/ikkim/ugcfy-backend/internal/errors"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AnalyticsController struct {
	analyticsService service.AnalyticsService
}

func NewAnalyticsController(analyticsService service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{analyticsService: analyticsService}
}

type TrackRequest struct {
	Type       string `json:"type"`
	MediaID    uint   `json:"media_id"`
	ClickType  string `json:"click_type"`
	ProductID  string `json:"product_id"`
	ShopDomain string `json:"shop_domain"`
	WidgetID   string `json:"widget_id"`
}

// Track records a storefront view or click
// POST /api/track
func (ctrl *AnalyticsController) Track(c *gin.Context) {
	var req TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid tracking payload")
		return
	}

	err := ctrl.analyticsService.Track(service.TrackInput{
		Type:       req.Type,
		MediaID:    req.MediaID,
		ClickType:  req.ClickType,
		ProductID:  req.ProductID,
		ShopDomain: req.ShopDomain,
		WidgetID:   req.WidgetID,
		Referrer:   c.Request.Referer(),
		UserAgent:  c.Request.UserAgent(),
	})
	if err != nil {
		respondServiceError(c, err, "track event")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Dashboard GET /api/analytics?period=7
func (ctrl *AnalyticsController) Dashboard(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	period := service.ClampPeriod(queryInt(c, "period", service.DefaultAnalyticsPeriod))
	dashboard, err := ctrl.analyticsService.Dashboard(c.Request.Context(), shop, period)
	if err != nil {
		respondServiceError(c, err, "load analytics")
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// Export downloads the dashboard as a workbook
// GET /api/analytics/export?period=
func (ctrl *AnalyticsController) Export(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	period := service.ClampPeriod(queryInt(c, "period", service.DefaultAnalyticsPeriod))
	data, err := ctrl.analyticsService.Export(c.Request.Context(), shop, period)
	if err != nil {
		respondServiceError(c, err, "export analytics")
		return
	}

	filename := fmt.Sprintf("ugc-analytics-%dd-%s.xlsx", period, time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
