package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ikkim/ugcfy-backend/config"
	"github.com/ikkim/ugcfy-backend/internal/app/controller"
	"github.com/ikkim/ugcfy-backend/internal/app/service"
	"github.com/ikkim/ugcfy-backend/internal/middleware"
	"github.com/ikkim/ugcfy-backend/internal/permissions"
)

// Controllers groups the HTTP handlers mounted by the router
type Controllers struct {
	Auth      *controller.AuthController
	Media     *controller.MediaController
	Upload    *controller.UploadController
	Tag       *controller.TagController
	Hotspot   *controller.HotspotController
	Product   *controller.ProductController
	Widget    *controller.WidgetController
	Channel   *controller.ChannelController
	Analytics *controller.AnalyticsController
	Team      *controller.TeamController
	Billing   *controller.BillingController
	Webhook   *controller.WebhookController
	Realtime  *controller.RealtimeController
	Files     *controller.FileController // set only when uploads are kept in memory
}

// storefrontPaths are called cross-origin by widget scripts on shop domains
var storefrontPaths = []string{"/api/track"}

type Router struct {
	controllers       Controllers
	sessionMiddleware *middleware.SessionMiddleware
	teamService       service.TeamService
	config            *config.Config
}

func NewRouter(
	controllers Controllers,
	sessionMiddleware *middleware.SessionMiddleware,
	teamService service.TeamService,
	cfg *config.Config,
) *Router {
	return &Router{
		controllers:       controllers,
		sessionMiddleware: sessionMiddleware,
		teamService:       teamService,
		config:            cfg,
	}
}

func (r *Router) can(permission string) gin.HandlerFunc {
	return middleware.RequirePermission(r.teamService, permission)
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(r.config.CORS.AllowedOrigins, storefrontPaths...))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "UGCfy API is running",
		})
	})

	ctrl := r.controllers

	if ctrl.Files != nil {
		router.GET("/files/*key", ctrl.Files.GetFile)
		router.PUT("/files/*key", ctrl.Files.PutFile)
	}

	// Shopify install OAuth
	router.GET("/auth", ctrl.Auth.Install)
	router.GET("/auth/callback", ctrl.Auth.Callback)
	router.GET("/auth/instagram/callback", ctrl.Channel.InstagramCallback)

	webhooks := router.Group("/webhooks")
	webhooks.Use(middleware.VerifyWebhook(r.config.Shopify.APISecret))
	{
		webhooks.POST("/app-uninstalled", ctrl.Webhook.AppUninstalled)
		webhooks.POST("/shop-redact", ctrl.Webhook.ShopRedact)
		webhooks.POST("/customers-data-request", ctrl.Webhook.CustomersDataRequest)
		webhooks.POST("/customers-redact", ctrl.Webhook.CustomersRedact)
	}

	// Storefront, reached through the Shopify app proxy
	proxy := router.Group("/apps/ugc")
	proxy.Use(middleware.VerifyAppProxy(r.config.Shopify.APISecret, r.config.Shopify.VerifyProxy))
	{
		proxy.GET("/widgets/:type", ctrl.Widget.Widget)
	}

	api := router.Group("/api")
	{
		// Called from storefront scripts and the Shopify charge page
		api.POST("/track", ctrl.Analytics.Track)
		api.GET("/billing/confirm", ctrl.Billing.Confirm)

		admin := api.Group("")
		admin.Use(r.sessionMiddleware.Authenticate())
		{
			admin.GET("/ws", ctrl.Realtime.Connect)

			admin.GET("/media", ctrl.Media.ListMedia)
			admin.GET("/media/:id", ctrl.Media.GetMedia)
			admin.POST("/media", r.can(permissions.MediaUpload), ctrl.Media.CreateMedia)
			admin.PATCH("/media/:id", r.can(permissions.MediaEdit), ctrl.Media.UpdateMedia)
			admin.DELETE("/media/:id", r.can(permissions.MediaDelete), ctrl.Media.DeleteMedia)
			admin.POST("/media-status", r.can(permissions.MediaApprove), ctrl.Media.SetStatus)
			admin.POST("/media-bulk", r.can(permissions.MediaApprove), ctrl.Media.BulkSetStatus)
			admin.POST("/media-product", r.can(permissions.MediaEdit), ctrl.Media.SetProduct)
			admin.DELETE("/media-product", r.can(permissions.MediaEdit), ctrl.Media.ClearProduct)
			admin.POST("/media-tags", r.can(permissions.TagsManage), ctrl.Media.AddTag)
			admin.DELETE("/media-tags", r.can(permissions.TagsManage), ctrl.Media.RemoveTag)

			admin.POST("/upload", r.can(permissions.MediaUpload), ctrl.Upload.Upload)
			admin.POST("/upload/presigned-url", r.can(permissions.MediaUpload), ctrl.Upload.PresignedURL)

			admin.GET("/tags", ctrl.Tag.ListTags)
			admin.POST("/tags", r.can(permissions.TagsManage), ctrl.Tag.CreateTag)
			admin.DELETE("/tags/:id", r.can(permissions.TagsManage), ctrl.Tag.DeleteTag)

			admin.GET("/hotspots", ctrl.Hotspot.ListHotspots)
			admin.POST("/hotspots", r.can(permissions.MediaEdit), ctrl.Hotspot.CreateHotspot)
			admin.PUT("/hotspots/:id", r.can(permissions.MediaEdit), ctrl.Hotspot.UpdateHotspot)
			admin.DELETE("/hotspots/:id", r.can(permissions.MediaEdit), ctrl.Hotspot.DeleteHotspot)

			admin.GET("/products-search", ctrl.Product.Search)

			admin.GET("/widgets", ctrl.Widget.ListWidgets)
			admin.GET("/widget-setup", ctrl.Widget.Setup)
			admin.GET("/widgets/:id/embed", ctrl.Widget.EmbedCode)
			admin.POST("/widgets", r.can(permissions.WidgetsConfigure), ctrl.Widget.CreateWidget)
			admin.PUT("/widgets/:id", r.can(permissions.WidgetsConfigure), ctrl.Widget.UpdateWidget)
			admin.DELETE("/widgets/:id", r.can(permissions.WidgetsConfigure), ctrl.Widget.DeleteWidget)

			admin.GET("/channels", ctrl.Channel.ListChannels)
			admin.DELETE("/channels/:id", r.can(permissions.ChannelsConnect), ctrl.Channel.Disconnect)
			admin.PUT("/channels/:id/auto-import", r.can(permissions.ChannelsImport), ctrl.Channel.SetAutoImport)
			admin.GET("/instagram-oauth-url", r.can(permissions.ChannelsConnect), ctrl.Channel.InstagramOAuthURL)
			admin.POST("/import-instagram", r.can(permissions.ChannelsImport), ctrl.Channel.ImportInstagram)

			admin.GET("/analytics", r.can(permissions.AnalyticsView), ctrl.Analytics.Dashboard)
			admin.GET("/analytics/export", r.can(permissions.AnalyticsView), ctrl.Analytics.Export)

			admin.GET("/team", r.can(permissions.TeamManage), ctrl.Team.GetTeam)
			admin.POST("/team", r.can(permissions.TeamManage), ctrl.Team.InviteMember)
			admin.PUT("/team/:id/permissions", r.can(permissions.TeamManage), ctrl.Team.UpdatePermissions)
			admin.PUT("/team/:id/active", r.can(permissions.TeamManage), ctrl.Team.ToggleActive)
			admin.DELETE("/team/:id", r.can(permissions.TeamManage), ctrl.Team.RemoveMember)

			admin.GET("/billing", ctrl.Billing.GetBilling)
			admin.POST("/billing/subscribe", r.can(permissions.BillingManage), ctrl.Billing.Subscribe)
		}
	}

	return router
}
