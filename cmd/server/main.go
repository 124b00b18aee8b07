package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/ugcfy-backend/config"
	"github.com/ikkim/ugcfy-backend/internal/app/controller"
	"github.com/ikkim/ugcfy-backend/internal/app/repository"
	"github.com/ikkim/ugcfy-backend/internal/app/service"
	"github.com/ikkim/ugcfy-backend/internal/db"
	"github.com/ikkim/ugcfy-backend/internal/middleware"
	"github.com/ikkim/ugcfy-backend/internal/router"
	"github.com/ikkim/ugcfy-backend/internal/scheduler"
	"github.com/ikkim/ugcfy-backend/internal/storage"
	"github.com/ikkim/ugcfy-backend/internal/websocket"
	"github.com/ikkim/ugcfy-backend/pkg/instagram"
	"github.com/ikkim/ugcfy-backend/pkg/logger"
	"github.com/ikkim/ugcfy-backend/pkg/redis"
	"github.com/ikkim/ugcfy-backend/pkg/shopify"
	"github.com/ikkim/ugcfy-backend/pkg/util"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: logFormat == "console",
	})

	logger.Info("Starting UGCfy Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis backs the storefront feed cache; feeds are built uncached without it
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, widget feeds will not be cached", map[string]interface{}{
				"error": err.Error(),
			})
		}
		defer redis.Close()
	}
	feedCache := redis.NewFeedCache(redis.GetClient(), cfg.Redis.CacheTTL)

	// Access tokens are sealed at rest
	var sealer *util.TokenSealer
	if cfg.Security.EncryptionKey != "" {
		sealer, err = util.NewTokenSealer(cfg.Security.EncryptionKey)
		if err != nil {
			logger.Fatal("Invalid TOKEN_ENCRYPTION_KEY", err)
		}
	} else {
		logger.Warn("TOKEN_ENCRYPTION_KEY not set, deriving the sealing key from the API secret")
		sealer = util.NewTokenSealerFromSecret(cfg.Shopify.APISecret)
	}

	shopifyClient, err := shopify.NewClient(shopify.Config{
		APIKey:     cfg.Shopify.APIKey,
		APISecret:  cfg.Shopify.APISecret,
		Scopes:     cfg.Shopify.Scopes,
		APIVersion: cfg.Shopify.APIVersion,
	})
	if err != nil {
		logger.Fatal("Failed to create Shopify client", err)
	}

	// A nil client disables the Instagram channel
	var instagramAPI service.InstagramAPI
	if cfg.Instagram.AppID != "" {
		igClient, err := instagram.NewClient(instagram.Config{
			AppID:        cfg.Instagram.AppID,
			AppSecret:    cfg.Instagram.AppSecret,
			GraphBaseURL: cfg.Instagram.GraphBaseURL,
			DialogURL:    cfg.Instagram.DialogURL,
		})
		if err != nil {
			logger.Fatal("Failed to create Instagram client", err)
		}
		instagramAPI = igClient
	} else {
		logger.Warn("INSTAGRAM_APP_ID not set, Instagram channel disabled")
	}

	// Media files go to S3 when credentials are present
	var objectStorage storage.ObjectStorage
	var localFiles *storage.MemoryStorage
	if cfg.S3.AccessKeyID != "" {
		objectStorage = storage.NewS3Storage(
			cfg.S3.Region,
			cfg.S3.Bucket,
			cfg.S3.AccessKeyID,
			cfg.S3.SecretAccessKey,
			cfg.S3.BaseURL,
			cfg.Upload.PresignedTTL,
		)
	} else {
		logger.Warn("AWS credentials not set, uploads are kept in memory and served from /files")
		localFiles = storage.NewMemoryStorage(cfg.Shopify.AppURL + "/files")
		objectStorage = localFiles
	}

	hub := websocket.NewHub()
	go hub.Run()

	// Initialize repositories
	database := db.GetDB()
	shopRepo := repository.NewShopRepository(database)
	mediaRepo := repository.NewMediaRepository(database)
	tagRepo := repository.NewTagRepository(database)
	widgetRepo := repository.NewWidgetRepository(database)
	hotspotRepo := repository.NewHotspotRepository(database)
	channelRepo := repository.NewChannelRepository(database)
	teamRepo := repository.NewTeamRepository(database)
	analyticsRepo := repository.NewAnalyticsRepository(database)

	// Initialize services
	shopService := service.NewShopService(shopRepo, tagRepo, shopifyClient, sealer, cfg.Shopify.APISecret, cfg.Shopify.AppURL)
	billingService := service.NewBillingService(shopRepo, mediaRepo, widgetRepo, shopService, shopifyClient, service.BillingOptions{
		DefaultPlan: cfg.Billing.DefaultPlan,
		ReturnURL:   cfg.Shopify.AppURL + "/api/billing/confirm",
		TestCharges: cfg.Billing.TestCharges,
	})
	productService := service.NewProductService(shopService, shopifyClient)
	mediaService := service.NewMediaService(mediaRepo, tagRepo, billingService, objectStorage, hub, feedCache)
	tagService := service.NewTagService(tagRepo, feedCache)
	hotspotService := service.NewHotspotService(hotspotRepo, mediaRepo, hub, feedCache)
	teamService := service.NewTeamService(teamRepo)
	uploadService := service.NewUploadService(mediaRepo, billingService, objectStorage, cfg.Upload.MaxFileSize, hub, feedCache)
	channelService := service.NewChannelService(channelRepo, mediaRepo, tagRepo, billingService, instagramAPI, sealer, service.ChannelOptions{
		AppURL:    cfg.Shopify.AppURL,
		APISecret: cfg.Shopify.APISecret,
		TokenTTL:  cfg.Instagram.TokenTTL,
	}, hub, feedCache)
	widgetService := service.NewWidgetService(widgetRepo, mediaRepo, tagRepo, analyticsRepo, billingService, productService, feedCache, cfg.Widget.ScriptURL)
	analyticsService := service.NewAnalyticsService(analyticsRepo, mediaRepo, productService)

	// Initialize controllers
	controllers := router.Controllers{
		Auth:      controller.NewAuthController(shopService, cfg.Shopify.AppURL),
		Media:     controller.NewMediaController(mediaService),
		Upload:    controller.NewUploadController(uploadService, cfg.Upload.MaxFileSize),
		Tag:       controller.NewTagController(tagService),
		Hotspot:   controller.NewHotspotController(hotspotService),
		Product:   controller.NewProductController(productService),
		Widget:    controller.NewWidgetController(widgetService),
		Channel:   controller.NewChannelController(channelService, cfg.Shopify.AppURL),
		Analytics: controller.NewAnalyticsController(analyticsService),
		Team:      controller.NewTeamController(teamService),
		Billing:   controller.NewBillingController(billingService, cfg.Shopify.AppURL),
		Webhook:   controller.NewWebhookController(shopService),
		Realtime:  controller.NewRealtimeController(hub, cfg.CORS.AllowedOrigins),
	}
	if localFiles != nil {
		controllers.Files = controller.NewFileController(localFiles, cfg.Upload.MaxFileSize)
	}

	// Initialize middleware
	sessionMiddleware := middleware.NewSessionMiddleware(cfg.Shopify.APIKey, cfg.Shopify.APISecret)

	// Setup router
	r := router.NewRouter(controllers, sessionMiddleware, teamService, cfg)
	engine := r.Setup()

	// Channel token expiry and automatic imports
	var channelSync *scheduler.ChannelSyncScheduler
	if cfg.Scheduler.Enabled {
		channelSync = scheduler.NewChannelSyncScheduler(channelService, cfg.Scheduler.ChannelSyncSpec)
		if err := channelSync.Start(); err != nil {
			logger.Fatal("Failed to start channel sync scheduler", err)
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: engine,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	if channelSync != nil {
		channelSync.Stop()
	}
	hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}
