package controller

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/ugcfy-backend/internal/app/service"
	"github.com/ikkim/ugcfy-backend/internal/middleware"
)

// AuthController runs the Shopify install OAuth flow
type AuthController struct {
	shopService service.ShopService
	appURL      string
}

func NewAuthController(shopService service.ShopService, appURL string) *AuthController {
	return &AuthController{
		shopService: shopService,
		appURL:      appURL,
	}
}

// Install redirects the merchant to Shopify's authorize screen
// GET /auth?shop=
func (ctrl *AuthController) Install(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	shop := c.Query("shop")
	authorizeURL, err := ctrl.shopService.InstallURL(shop)
	if err != nil {
		respondServiceError(c, err, "start install")
		return
	}

	log.Info("Redirecting to Shopify authorize", map[string]interface{}{
		"shop": shop,
	})
	c.Redirect(http.StatusFound, authorizeURL)
}

// Callback completes the install and lands the merchant in the app
// GET /auth/callback
func (ctrl *AuthController) Callback(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	shop, err := ctrl.shopService.CompleteInstall(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		respondServiceError(c, err, "complete install")
		return
	}

	log.Info("Shop installed", map[string]interface{}{
		"shop": shop.Domain,
	})

	target := ctrl.appURL + "/app?" + url.Values{"shop": {shop.Domain}}.Encode()
	c.Redirect(http.StatusFound, target)
}
