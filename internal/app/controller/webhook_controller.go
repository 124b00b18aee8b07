package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/ugcfy-backend/internal/app/service"
	apperrors "github.com/ikkim/ugcfy-backend/internal/errors"
	"github.com/ikkim/ugcfy-backend/internal/middleware"
	"github.com/ikkim/ugcfy-backend/pkg/util"
)

// WebhookController handles Shopify lifecycle and GDPR webhooks.
// Requests reach it only after VerifyWebhook has checked the HMAC.
type WebhookController struct {
	shopService service.ShopService
}

func NewWebhookController(shopService service.ShopService) *WebhookController {
	return &WebhookController{shopService: shopService}
}

// webhookPayload holds the shop fields shared by the topics handled here
type webhookPayload struct {
	ShopDomain      string `json:"shop_domain"`
	MyshopifyDomain string `json:"myshopify_domain"`
}

// webhookShop prefers the verified header and falls back to the payload
func webhookShop(c *gin.Context) (string, bool) {
	if shop, ok := middleware.GetShopDomain(c); ok {
		return shop, true
	}

	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		return "", false
	}
	for _, shop := range []string{payload.ShopDomain, payload.MyshopifyDomain} {
		if util.IsValidShopDomain(shop) {
			return shop, true
		}
	}
	return "", false
}

// AppUninstalled POST /webhooks/app-uninstalled
func (ctrl *WebhookController) AppUninstalled(c *gin.Context) {
	shop, ok := webhookShop(c)
	if !ok {
		apperrors.BadRequest(c, apperrors.AuthInvalidShop, "Shop domain missing")
		return
	}

	if err := ctrl.shopService.Uninstall(shop); err != nil {
		respondServiceError(c, err, "handle app uninstall")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ShopRedact POST /webhooks/shop-redact
func (ctrl *WebhookController) ShopRedact(c *gin.Context) {
	shop, ok := webhookShop(c)
	if !ok {
		apperrors.BadRequest(c, apperrors.AuthInvalidShop, "Shop domain missing")
		return
	}

	if err := ctrl.shopService.Redact(shop); err != nil {
		respondServiceError(c, err, "redact shop")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CustomersDataRequest POST /webhooks/customers-data-request
// No customer records are kept, so there is nothing to export.
func (ctrl *WebhookController) CustomersDataRequest(c *gin.Context) {
	ctrl.acknowledge(c)
}

// CustomersRedact POST /webhooks/customers-redact
func (ctrl *WebhookController) CustomersRedact(c *gin.Context) {
	ctrl.acknowledge(c)
}

func (ctrl *WebhookController) acknowledge(c *gin.Context) {
	shop, _ := middleware.GetShopDomain(c)
	middleware.GetLoggerFromContext(c).Info("Customer webhook acknowledged", map[string]interface{}{
		"topic": c.GetString(middleware.WebhookTopicKey),
		"shop":  shop,
	})
	c.JSON(http.StatusOK, gin.H{"success": true})
}
