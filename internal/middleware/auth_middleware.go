package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/ugcfy-backend/internal/app/service"
	apperrors "github.com/ikkim/ugcfy-backend/internal/errors"
	"github.com/ikkim/ugcfy-backend/pkg/util"
)

// Context keys for the authenticated Shopify session
const (
	ShopDomainKey    = "shop_domain"
	ShopifyUserIDKey = "shopify_user_id"
)

// SessionMiddleware authenticates embedded admin requests with App Bridge session tokens
type SessionMiddleware struct {
	apiKey    string
	apiSecret string
}

func NewSessionMiddleware(apiKey, apiSecret string) *SessionMiddleware {
	return &SessionMiddleware{
		apiKey:    apiKey,
		apiSecret: apiSecret,
	}
}

// Authenticate validates the session token (required)
func (m *SessionMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		var token string

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn("Invalid authorization header format", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid authorization header")
				c.Abort()
				return
			}
			token = parts[1]
		} else {
			// Browsers cannot set headers on websocket upgrades
			token = c.Query("token")
			if token == "" {
				log.Warn("Missing session token", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				apperrors.Unauthorized(c, "Session token required")
				c.Abort()
				return
			}
		}

		claims, err := util.ValidateSessionToken(token, m.apiKey, m.apiSecret)
		if err != nil {
			log.Warn("Session token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})

			if errors.Is(err, util.ErrExpiredToken) {
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenExpired, "Session token has expired")
			} else {
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid session token")
			}
			c.Abort()
			return
		}

		shop := claims.Shop()
		c.Set(ShopDomainKey, shop)
		c.Set(ShopifyUserIDKey, claims.Subject)

		log.Debug("Session authenticated", map[string]interface{}{
			"shop":            shop,
			"shopify_user_id": claims.Subject,
		})

		c.Next()
	}
}

// RequirePermission lets the request through when the session user holds permission.
// Staff without a team member record act as the shop owner.
func RequirePermission(teamService service.TeamService, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		shop, ok := GetShopDomain(c)
		if !ok {
			log.Warn("Shop not found in context", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.Unauthorized(c, "Session token required")
			c.Abort()
			return
		}
		userID, _ := GetShopifyUserID(c)

		if err := teamService.Authorize(shop, userID, permission); err != nil {
			switch {
			case errors.Is(err, service.ErrMemberInactive):
				apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthzMemberInactive, "Your team access has been deactivated")
			case errors.Is(err, service.ErrPermissionDenied):
				apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthzPermissionDenied, "You do not have permission to perform this action")
			default:
				log.Error("Failed to authorize request", err, map[string]interface{}{
					"shop":       shop,
					"permission": permission,
				})
				apperrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetShopDomain extracts the authenticated shop from context
func GetShopDomain(c *gin.Context) (string, bool) {
	shop, exists := c.Get(ShopDomainKey)
	if !exists {
		return "", false
	}
	s, ok := shop.(string)
	return s, ok && s != ""
}

func GetShopifyUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(ShopifyUserIDKey)
	if !exists {
		return "", false
	}
	return userID.(string), true
}
