package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/ugcfy-backend/internal/errors"
	"github.com/ikkim/ugcfy-backend/pkg/shopify"
	"github.com/ikkim/ugcfy-backend/pkg/util"
)

// maxWebhookBody bounds the payload read for HMAC verification
const maxWebhookBody = 1 << 20

// WebhookTopicKey holds the X-Shopify-Topic header of a verified webhook
const WebhookTopicKey = "webhook_topic"

// VerifyAppProxy checks the signature Shopify adds to storefront app proxy requests.
// When enforce is false the check is skipped, which lets widgets be served directly in development.
func VerifyAppProxy(apiSecret string, enforce bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enforce {
			c.Next()
			return
		}

		log := GetLoggerFromContext(c)

		query := c.Request.URL.Query()
		if !shopify.VerifyProxySignature(query, apiSecret) {
			log.Warn("App proxy signature mismatch", map[string]interface{}{
				"path": c.Request.URL.Path,
				"shop": query.Get("shop"),
			})
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidProxySig, "Invalid app proxy signature")
			c.Abort()
			return
		}

		if shop := query.Get("shop"); util.IsValidShopDomain(shop) {
			c.Set(ShopDomainKey, shop)
		}

		c.Next()
	}
}

// VerifyWebhook authenticates a Shopify webhook delivery by its body HMAC.
// The body is restored so handlers can bind it.
func VerifyWebhook(apiSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			log.Warn("Failed to read webhook body", map[string]interface{}{
				"error": err.Error(),
			})
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Unreadable body")
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		topic := c.GetHeader("X-Shopify-Topic")
		shop := c.GetHeader("X-Shopify-Shop-Domain")

		if !shopify.VerifyWebhook(body, c.GetHeader("X-Shopify-Hmac-Sha256"), apiSecret) {
			log.Warn("Webhook HMAC mismatch", map[string]interface{}{
				"topic": topic,
				"shop":  shop,
			})
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidHMAC, "Invalid webhook signature")
			c.Abort()
			return
		}

		c.Set(WebhookTopicKey, topic)
		if util.IsValidShopDomain(shop) {
			c.Set(ShopDomainKey, shop)
		}

		log.Debug("Webhook verified", map[string]interface{}{
			"topic": topic,
			"shop":  shop,
		})

		c.Next()
	}
}
