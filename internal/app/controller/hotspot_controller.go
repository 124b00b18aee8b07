package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/ugcfy-backend/internal/app/service"
	apperrors "github.com/ikkim/ugcfy-backend/internal/errors"
)

type HotspotController struct {
	hotspotService service.HotspotService
}

func NewHotspotController(hotspotService service.HotspotService) *HotspotController {
	return &HotspotController{hotspotService: hotspotService}
}

type CreateHotspotRequest struct {
	MediaID   uint     `json:"media_id" binding:"required"`
	ProductID string   `json:"product_id"`
	Timestamp *float64 `json:"timestamp"`
	Duration  *float64 `json:"duration"`
	Position  string   `json:"position"`
}

type UpdateHotspotRequest struct {
	ProductID *string  `json:"product_id"`
	Timestamp *float64 `json:"timestamp"`
	Duration  *float64 `json:"duration"`
	Position  *string  `json:"position"`
}

// ListHotspots GET /api/hotspots?media_id=
func (ctrl *HotspotController) ListHotspots(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	mediaID, err := strconv.ParseUint(c.Query("media_id"), 10, 32)
	if err != nil || mediaID == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "media_id is required")
		return
	}

	hotspots, err := ctrl.hotspotService.List(shop, uint(mediaID))
	if err != nil {
		respondServiceError(c, err, "list hotspots")
		return
	}

	c.JSON(http.StatusOK, gin.H{"hotspots": hotspots})
}

// CreateHotspot POST /api/hotspots
func (ctrl *HotspotController) CreateHotspot(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	var req CreateHotspotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "media_id is required")
		return
	}

	hotspot, err := ctrl.hotspotService.Create(c.Request.Context(), shop, service.CreateHotspotInput{
		MediaID:   req.MediaID,
		ProductID: req.ProductID,
		Timestamp: req.Timestamp,
		Duration:  req.Duration,
		Position:  req.Position,
	})
	if err != nil {
		respondServiceError(c, err, "create hotspot")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"hotspot": hotspot})
}

// UpdateHotspot PUT /api/hotspots/:id
func (ctrl *HotspotController) UpdateHotspot(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateHotspotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
		return
	}

	hotspot, err := ctrl.hotspotService.Update(c.Request.Context(), shop, id, service.UpdateHotspotInput{
		ProductID: req.ProductID,
		Timestamp: req.Timestamp,
		Duration:  req.Duration,
		Position:  req.Position,
	})
	if err != nil {
		respondServiceError(c, err, "update hotspot")
		return
	}

	c.JSON(http.StatusOK, gin.H{"hotspot": hotspot})
}

// DeleteHotspot DELETE /api/hotspots/:id
func (ctrl *HotspotController) DeleteHotspot(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.hotspotService.Delete(c.Request.Context(), shop, id); err != nil {
		respondServiceError(c, err, "delete hotspot")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
