package controller

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/ugcfy-backend/internal/app/service"
	apperrors "github.com/ikkim/ugcfy-backend/internal/errors"
	"github.com/ikkim/ugcfy-backend/internal/middleware"
	"github.com/ikkim/ugcfy-backend/pkg/util"
)

type BillingController struct {
	billingService service.BillingService
	appURL         string
}

func NewBillingController(billingService service.BillingService, appURL string) *BillingController {
	return &BillingController{
		billingService: billingService,
		appURL:         appURL,
	}
}

type SubscribeRequest struct {
	PlanID string `json:"plan_id" binding:"required"`
}

// GetBilling returns plans, current plan and usage
// GET /api/billing
func (ctrl *BillingController) GetBilling(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	overview, err := ctrl.billingService.Overview(c.Request.Context(), shop)
	if err != nil {
		respondServiceError(c, err, "load billing")
		return
	}

	c.JSON(http.StatusOK, overview)
}

// Subscribe starts a Shopify recurring charge
// POST /api/billing/subscribe
func (ctrl *BillingController) Subscribe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "plan_id is required")
		return
	}

	result, err := ctrl.billingService.Subscribe(c.Request.Context(), shop, req.PlanID)
	if err != nil {
		respondServiceError(c, err, "create subscription")
		return
	}

	log.Info("Subscription created", map[string]interface{}{
		"shop": shop,
		"plan": req.PlanID,
	})

	c.JSON(http.StatusOK, gin.H{
		"confirmation_url": result.ConfirmationURL,
		"subscription_id":  result.SubscriptionID,
	})
}

// Confirm is the return URL of the Shopify charge approval page
// GET /api/billing/confirm?shop=&plan=
func (ctrl *BillingController) Confirm(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	shop := strings.TrimSpace(c.Query("shop"))
	if !util.IsValidShopDomain(shop) {
		apperrors.BadRequest(c, apperrors.AuthInvalidShop, "Invalid shop domain")
		return
	}

	plan, err := ctrl.billingService.Confirm(c.Request.Context(), shop, c.Query("plan"))
	if err != nil {
		log.Warn("Subscription confirmation failed", map[string]interface{}{
			"shop":  shop,
			"error": err.Error(),
		})
		ctrl.redirect(c, shop, "error", "subscription_not_active")
		return
	}

	ctrl.redirect(c, shop, "success", "plan_"+plan.ID)
}

func (ctrl *BillingController) redirect(c *gin.Context, shop, key, value string) {
	query := url.Values{}
	query.Set("shop", shop)
	query.Set(key, value)
	c.Redirect(http.StatusFound, ctrl.appURL+"/app/billing?"+query.Encode())
}
