package controller

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/ugcfy-backend/internal/app/service"
	apperrors "github.com/ikkim/ugcfy-backend/internal/errors"
	"github.com/ikkim/ugcfy-backend/internal/middleware"
	"github.com/ikkim/ugcfy-backend/pkg/instagram"
)

type ChannelController struct {
	channelService service.ChannelService
	appURL         string
}

func NewChannelController(channelService service.ChannelService, appURL string) *ChannelController {
	return &ChannelController{
		channelService: channelService,
		appURL:         appURL,
	}
}

type ImportInstagramRequest struct {
	ChannelID uint   `json:"channel_id" binding:"required"`
	Hashtag   string `json:"hashtag"`
	Limit     int    `json:"limit"`
}

type AutoImportRequest struct {
	Enabled bool `json:"enabled"`
}

// ListChannels GET /api/channels
func (ctrl *ChannelController) ListChannels(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	channels, err := ctrl.channelService.List(shop)
	if err != nil {
		respondServiceError(c, err, "list channels")
		return
	}

	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

// Disconnect DELETE /api/channels/:id
func (ctrl *ChannelController) Disconnect(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.channelService.Disconnect(shop, id); err != nil {
		respondServiceError(c, err, "disconnect channel")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SetAutoImport PUT /api/channels/:id/auto-import
func (ctrl *ChannelController) SetAutoImport(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AutoImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
		return
	}

	if err := ctrl.channelService.SetAutoImport(shop, id, req.Enabled); err != nil {
		respondServiceError(c, err, "update auto import")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "auto_import": req.Enabled})
}

// InstagramOAuthURL GET /api/instagram-oauth-url
func (ctrl *ChannelController) InstagramOAuthURL(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	authURL, err := ctrl.channelService.OAuthURL(shop)
	if err != nil {
		respondServiceError(c, err, "build instagram oauth url")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": authURL})
}

// InstagramCallback finishes the Facebook dialog and returns to the channels page
// GET /auth/instagram/callback?code=&state=&error=
func (ctrl *ChannelController) InstagramCallback(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if denied := c.Query("error"); denied != "" {
		log.Warn("Instagram authorization declined", map[string]interface{}{
			"error":  denied,
			"reason": c.Query("error_reason"),
		})
		ctrl.redirect(c, "error", denied)
		return
	}

	code := c.Query("code")
	if code == "" {
		ctrl.redirect(c, "error", "missing_code")
		return
	}

	shop, channel, err := ctrl.channelService.CompleteOAuth(c.Request.Context(), code, c.Query("state"))
	if err != nil {
		log.Warn("Instagram connection failed", map[string]interface{}{
			"shop":  shop,
			"error": err.Error(),
		})
		ctrl.redirect(c, "error", callbackErrorCode(err))
		return
	}

	log.Info("Instagram connected", map[string]interface{}{
		"shop":       shop,
		"channel_id": channel.ID,
	})
	ctrl.redirect(c, "success", "instagram_connected")
}

func callbackErrorCode(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidInstagramState):
		return "invalid_state"
	case errors.Is(err, instagram.ErrNoPages):
		return "no_pages"
	case errors.Is(err, instagram.ErrNoBusinessAccount):
		return "no_business_account"
	case errors.Is(err, service.ErrInstagramNotConfigured):
		return "not_configured"
	default:
		return "connection_failed"
	}
}

func (ctrl *ChannelController) redirect(c *gin.Context, key, value string) {
	c.Redirect(http.StatusFound, ctrl.appURL+"/app/channels?"+url.Values{key: {value}}.Encode())
}

// ImportInstagram pulls recent posts of a connected account as draft media
// POST /api/import-instagram
func (ctrl *ChannelController) ImportInstagram(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	var req ImportInstagramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "channel_id is required")
		return
	}

	result, err := ctrl.channelService.Import(c.Request.Context(), shop, service.ImportInput{
		ChannelID: req.ChannelID,
		Hashtag:   strings.TrimPrefix(strings.TrimSpace(req.Hashtag), "#"),
		Limit:     req.Limit,
	})
	if err != nil {
		respondServiceError(c, err, "import instagram media")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"imported": result.Imported,
		"skipped":  result.Skipped,
		"total":    result.Total,
	})
}
