package controller

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/internal/app/service"
	apperrors "github.com/ikkim/ugcfy-backend/internal/errors"
	"github.com/ikkim/ugcfy-backend/internal/middleware"
)

type MediaController struct {
	mediaService service.MediaService
}

func NewMediaController(mediaService service.MediaService) *MediaController {
	return &MediaController{mediaService: mediaService}
}

type CreateMediaRequest struct {
	URL        string  `json:"url" binding:"required"`
	Caption    string  `json:"caption"`
	SourceType string  `json:"source_type"`
	ProductID  *string `json:"product_id"`
}

type UpdateMediaRequest struct {
	Caption string `json:"caption"`
}

type MediaStatusRequest struct {
	MediaID uint   `json:"media_id" binding:"required"`
	Status  string `json:"status" binding:"required"`
}

type BulkStatusRequest struct {
	IDs    []uint `json:"ids"`
	Status string `json:"status" binding:"required"`
}

type MediaProductRequest struct {
	MediaID   uint   `json:"media_id" binding:"required"`
	ProductID string `json:"product_id"`
}

type MediaTagRequest struct {
	MediaID uint `json:"media_id" binding:"required"`
	TagID   uint `json:"tag_id" binding:"required"`
}

// MediaResponse is media with its tags flattened to {id,name,slug}
type MediaResponse struct {
	ID         uint                   `json:"id"`
	URL        string                 `json:"url"`
	Caption    string                 `json:"caption"`
	Status     model.MediaStatus      `json:"status"`
	SourceType model.SourceType       `json:"source_type"`
	ProductID  *string                `json:"product_id"`
	IsVideo    bool                   `json:"is_video"`
	Tags       []TagResponse          `json:"tags"`
	Hotspots   []model.ProductHotspot `json:"hotspots,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

type TagResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func toMediaResponse(m *model.Media) MediaResponse {
	tags := make([]TagResponse, 0, len(m.MediaTags))
	for _, t := range m.TagList() {
		tags = append(tags, TagResponse{ID: t.ID, Name: t.Name, Slug: t.Slug})
	}
	return MediaResponse{
		ID:         m.ID,
		URL:        m.URL,
		Caption:    m.Caption,
		Status:     m.Status,
		SourceType: m.SourceType,
		ProductID:  m.ProductID,
		IsVideo:    m.IsVideo(),
		Tags:       tags,
		Hotspots:   m.Hotspots,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func toMediaResponses(media []model.Media) []MediaResponse {
	out := make([]MediaResponse, 0, len(media))
	for i := range media {
		out = append(out, toMediaResponse(&media[i]))
	}
	return out
}

// ListMedia returns the moderation queue
// GET /api/media?q=&tag=&status=
func (ctrl *MediaController) ListMedia(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	media, err := ctrl.mediaService.List(shop, service.MediaQuery{
		Search: c.Query("q"),
		Tag:    c.Query("tag"),
		Status: c.Query("status"),
	})
	if err != nil {
		respondServiceError(c, err, "list media")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"media": toMediaResponses(media),
		"count": len(media),
	})
}

// GetMedia GET /api/media/:id
func (ctrl *MediaController) GetMedia(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	media, err := ctrl.mediaService.Get(shop, id)
	if err != nil {
		respondServiceError(c, err, "get media")
		return
	}

	c.JSON(http.StatusOK, gin.H{"media": toMediaResponse(media)})
}

// CreateMedia adds media from a URL
// POST /api/media
func (ctrl *MediaController) CreateMedia(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	var req CreateMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid create media request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "url is required")
		return
	}

	media, err := ctrl.mediaService.CreateFromURL(c.Request.Context(), shop, service.CreateMediaInput{
		URL:        strings.TrimSpace(req.URL),
		Caption:    req.Caption,
		SourceType: model.SourceType(strings.ToUpper(req.SourceType)),
		ProductID:  req.ProductID,
	})
	if err != nil {
		respondServiceError(c, err, "create media")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"media": toMediaResponse(media)})
}

// UpdateMedia updates the caption
// PATCH /api/media/:id
func (ctrl *MediaController) UpdateMedia(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
		return
	}

	media, err := ctrl.mediaService.UpdateCaption(c.Request.Context(), shop, id, req.Caption)
	if err != nil {
		respondServiceError(c, err, "update media")
		return
	}

	c.JSON(http.StatusOK, gin.H{"media": toMediaResponse(media)})
}

// DeleteMedia DELETE /api/media/:id
func (ctrl *MediaController) DeleteMedia(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.mediaService.Delete(c.Request.Context(), shop, id); err != nil {
		respondServiceError(c, err, "delete media")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SetStatus POST /api/media-status
func (ctrl *MediaController) SetStatus(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	var req MediaStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "media_id and status are required")
		return
	}

	status := model.MediaStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	media, err := ctrl.mediaService.SetStatus(c.Request.Context(), shop, req.MediaID, status)
	if err != nil {
		respondServiceError(c, err, "update media status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"media":   toMediaResponse(media),
	})
}

// BulkSetStatus POST /api/media-bulk
func (ctrl *MediaController) BulkSetStatus(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	var req BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "ids and status are required")
		return
	}

	status := model.MediaStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	count, err := ctrl.mediaService.BulkSetStatus(c.Request.Context(), shop, req.IDs, status)
	if err != nil {
		respondServiceError(c, err, "bulk update media status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   count,
	})
}

// SetProduct POST /api/media-product
func (ctrl *MediaController) SetProduct(c *gin.Context) {
	ctrl.updateProduct(c, true)
}

// ClearProduct DELETE /api/media-product
func (ctrl *MediaController) ClearProduct(c *gin.Context) {
	ctrl.updateProduct(c, false)
}

func (ctrl *MediaController) updateProduct(c *gin.Context, set bool) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	var req MediaProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "media_id is required")
		return
	}

	var productID *string
	if set {
		if strings.TrimSpace(req.ProductID) == "" {
			apperrors.BadRequest(c, apperrors.ValidationRequired, "product_id is required")
			return
		}
		productID = &req.ProductID
	}

	if err := ctrl.mediaService.SetProduct(c.Request.Context(), shop, req.MediaID, productID); err != nil {
		respondServiceError(c, err, "update media product")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AddTag POST /api/media-tags
func (ctrl *MediaController) AddTag(c *gin.Context) {
	ctrl.updateTag(c, true)
}

// RemoveTag DELETE /api/media-tags
func (ctrl *MediaController) RemoveTag(c *gin.Context) {
	ctrl.updateTag(c, false)
}

func (ctrl *MediaController) updateTag(c *gin.Context, link bool) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	var req MediaTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "media_id and tag_id are required")
		return
	}

	var err error
	if link {
		err = ctrl.mediaService.AddTag(c.Request.Context(), shop, req.MediaID, req.TagID)
	} else {
		err = ctrl.mediaService.RemoveTag(c.Request.Context(), shop, req.MediaID, req.TagID)
	}
	if err != nil {
		respondServiceError(c, err, "update media tags")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
