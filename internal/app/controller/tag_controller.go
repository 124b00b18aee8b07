package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/ugcfy-backend/internal/app/service"
	apperrors "github.com/ikkim/ugcfy-backend/internal/errors"
)

type TagController struct {
	tagService service.TagService
}

func NewTagController(tagService service.TagService) *TagController {
	return &TagController{tagService: tagService}
}

type CreateTagRequest struct {
	Name string `json:"name"`
}

// ListTags GET /api/tags?q=
func (ctrl *TagController) ListTags(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	tags, err := ctrl.tagService.ListTags(shop, c.Query("q"))
	if err != nil {
		respondServiceError(c, err, "list tags")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tags":  tags,
		"count": len(tags),
	})
}

// CreateTag upserts by slug
// POST /api/tags
func (ctrl *TagController) CreateTag(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	var req CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
		return
	}

	tag, err := ctrl.tagService.CreateTag(c.Request.Context(), shop, req.Name)
	if err != nil {
		respondServiceError(c, err, "create tag")
		return
	}

	c.JSON(http.StatusOK, gin.H{"tag": tag})
}

// DeleteTag DELETE /api/tags/:id
func (ctrl *TagController) DeleteTag(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.tagService.DeleteTag(c.Request.Context(), shop, id); err != nil {
		respondServiceError(c, err, "delete tag")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
