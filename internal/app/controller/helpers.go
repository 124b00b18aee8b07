package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/ugcfy-backend/internal/app/service"
	apperrors "github.com/ikkim/ugcfy-backend/internal/errors"
	"github.com/ikkim/ugcfy-backend/internal/middleware"
	"github.com/ikkim/ugcfy-backend/internal/storage"
	"github.com/ikkim/ugcfy-backend/pkg/instagram"
	"github.com/ikkim/ugcfy-backend/pkg/shopify"
)

// errorMapping translates a service or client error into a response
type errorMapping struct {
	target error
	status int
	code   string
}

// Matched in order with errors.Is; the message is the error text
var errorMappings = []errorMapping{
	{service.ErrMediaNotFound, http.StatusNotFound, apperrors.MediaNotFound},
	{service.ErrMediaNotAvailable, http.StatusNotFound, apperrors.MediaNotAvailable},
	{service.ErrTagNotFound, http.StatusNotFound, apperrors.TagNotFound},
	{service.ErrHotspotNotFound, http.StatusNotFound, apperrors.HotspotNotFound},
	{service.ErrChannelNotFound, http.StatusNotFound, apperrors.ChannelNotFound},
	{service.ErrWidgetNotFound, http.StatusNotFound, apperrors.WidgetNotFound},
	{service.ErrTeamMemberNotFound, http.StatusNotFound, apperrors.TeamMemberNotFound},
	{service.ErrShopNotFound, http.StatusNotFound, apperrors.AuthShopNotFound},
	{service.ErrShopNotInstalled, http.StatusNotFound, apperrors.AuthShopNotFound},
	{service.ErrMissingAccessToken, http.StatusNotFound, apperrors.AuthShopNotFound},

	{service.ErrTeamMemberExists, http.StatusConflict, apperrors.TeamMemberExists},

	{service.ErrInvalidShopDomain, http.StatusBadRequest, apperrors.AuthInvalidShop},
	{service.ErrInvalidHMAC, http.StatusUnauthorized, apperrors.AuthInvalidHMAC},
	{service.ErrInvalidOAuthState, http.StatusUnauthorized, apperrors.AuthInvalidState},
	{service.ErrInvalidInstagramState, http.StatusUnauthorized, apperrors.AuthInvalidState},

	{service.ErrChannelNotConnected, http.StatusBadRequest, apperrors.ChannelNotConnected},
	{service.ErrChannelTokenExpired, http.StatusBadRequest, apperrors.ChannelTokenExpired},
	{service.ErrInvalidChannel, http.StatusBadRequest, apperrors.ChannelNotConnected},
	{instagram.ErrNoPages, http.StatusBadRequest, apperrors.ChannelNoBusiness},
	{instagram.ErrNoBusinessAccount, http.StatusBadRequest, apperrors.ChannelNoBusiness},
	{service.ErrInstagramNotConfigured, http.StatusInternalServerError, apperrors.InternalConfigError},

	{service.ErrInvalidPlan, http.StatusBadRequest, apperrors.BillingInvalidPlan},
	{service.ErrSubscriptionMissing, http.StatusBadRequest, apperrors.BillingNotActive},

	{service.ErrInvalidWidgetType, http.StatusBadRequest, apperrors.WidgetInvalidType},
	{service.ErrInvalidStatus, http.StatusBadRequest, apperrors.ValidationInvalidStatus},

	{service.ErrNoFiles, http.StatusBadRequest, apperrors.UploadNoFiles},
	{storage.ErrFileTooLarge, http.StatusBadRequest, apperrors.UploadFileTooLarge},
	{storage.ErrUnsupportedFileType, http.StatusBadRequest, apperrors.UploadInvalidFileType},

	{service.ErrInvalidMediaURL, http.StatusBadRequest, apperrors.ValidationInvalidFormat},
	{service.ErrInvalidSourceType, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrEmptySelection, http.StatusBadRequest, apperrors.ValidationRequired},
	{service.ErrTagNameEmpty, http.StatusBadRequest, apperrors.ValidationRequired},
	{service.ErrProductIDRequired, http.StatusBadRequest, apperrors.ValidationRequired},
	{service.ErrTimestampRequired, http.StatusBadRequest, apperrors.ValidationRequired},
	{service.ErrInvalidTimestamp, http.StatusBadRequest, apperrors.ValidationInvalidRange},
	{service.ErrInvalidDuration, http.StatusBadRequest, apperrors.ValidationInvalidRange},
	{service.ErrInvalidPosition, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrInvalidEmail, http.StatusBadRequest, apperrors.ValidationInvalidFormat},
	{service.ErrNoPermissions, http.StatusBadRequest, apperrors.ValidationRequired},
	{service.ErrUnknownPreset, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrWidgetNameRequired, http.StatusBadRequest, apperrors.ValidationRequired},
	{service.ErrShoppableMediaEmpty, http.StatusBadRequest, apperrors.ValidationRequired},
	{service.ErrFilenameEmpty, http.StatusBadRequest, apperrors.ValidationRequired},
	{service.ErrTrackingFieldsRequired, http.StatusBadRequest, apperrors.ValidationRequired},
	{service.ErrInvalidTrackType, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrInvalidClickType, http.StatusBadRequest, apperrors.ValidationInvalidInput},

	{shopify.ErrUnauthorized, http.StatusBadGateway, apperrors.InternalExternalAPI},
	{shopify.ErrNetworkError, http.StatusBadGateway, apperrors.InternalExternalAPI},
	{shopify.ErrAPIError, http.StatusBadGateway, apperrors.InternalExternalAPI},
	{shopify.ErrUserError, http.StatusBadGateway, apperrors.InternalExternalAPI},
	{instagram.ErrNetworkError, http.StatusBadGateway, apperrors.InternalExternalAPI},
	{instagram.ErrAPIError, http.StatusBadGateway, apperrors.InternalExternalAPI},
}

// respondServiceError writes the response for err. Unknown errors are logged and returned as 500.
func respondServiceError(c *gin.Context, err error, action string) {
	log := middleware.GetLoggerFromContext(c)

	var limitErr *service.LimitError
	if errors.As(err, &limitErr) {
		log.Warn("Plan limit reached", map[string]interface{}{
			"action":  limitErr.Action,
			"current": limitErr.Check.Current,
			"limit":   limitErr.Check.Limit,
			"plan":    limitErr.Check.Plan,
		})
		apperrors.PaymentRequired(c, "Plan limit reached, upgrade your plan to continue",
			limitErr.Check.Current, limitErr.Check.Limit, limitErr.Check.Plan)
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.status >= http.StatusInternalServerError {
				log.Error("Failed to "+action, err, nil)
			} else {
				log.Warn("Failed to "+action, map[string]interface{}{
					"error": err.Error(),
				})
			}
			apperrors.RespondWithError(c, m.status, m.code, err.Error())
			return
		}
	}

	log.Error("Failed to "+action, err, nil)
	info := apperrors.ParseError(err, action)
	if info.Code == apperrors.ResourceAlreadyExists || info.Code == apperrors.ResourceConflict {
		apperrors.Conflict(c, info.Code, info.Message)
		return
	}
	apperrors.InternalError(c, "")
}

// requireShop returns the session shop or writes 401
func requireShop(c *gin.Context) (string, bool) {
	shop, ok := middleware.GetShopDomain(c)
	if !ok {
		apperrors.Unauthorized(c, "Session token required")
		return "", false
	}
	return shop, true
}

// parseIDParam reads a positive integer path parameter or writes 400
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid ID parameter", map[string]interface{}{
			"param": name,
			"value": raw,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// queryInt reads an optional integer query parameter, falling back to def
func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
