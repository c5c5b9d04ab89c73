package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/core"
	"github.com/example/storefront/internal/crypto"
	"github.com/example/storefront/internal/db"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/pkg/cache"
	"github.com/example/storefront/pkg/media"
	"github.com/example/storefront/pkg/messagequeue"
)

func main() {
	// Load .env file. In production, environment variables should be set directly.
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file loaded:", err)
		}
	}

	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	logger, err := newLogger(appConfig.IsRelease())
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer logger.Sync()

	// --- Infrastructure ---
	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInit()

	opened, err := db.Open(initCtx, appConfig.StoreOptions(true), logger)
	if err != nil {
		logger.Fatal("Failed to open document store", zap.String("backend", appConfig.StoreBackend), zap.Error(err))
	}
	defer opened.Store.Close()

	var appCache cache.Cache
	if appConfig.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(initCtx, cache.RedisConfig{
			Address:  appConfig.RedisAddr,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisCache.Close()
		appCache = redisCache
	} else {
		logger.Warn("REDIS_ADDR is not set; carts and caches live in process memory")
		appCache = cache.NewMemory()
	}

	key, err := crypto.ParseKey(appConfig.CartEncryptionKey)
	if err != nil {
		logger.Fatal("Invalid CART_ENCRYPTION_KEY", zap.Error(err))
	}
	sealer, err := crypto.NewSealer(key)
	if err != nil {
		logger.Fatal("Failed to build cart sealer", zap.Error(err))
	}

	var events core.OrderEventPublisher
	if appConfig.AMQPURL != "" {
		mq, err := messagequeue.NewRabbitMQService(messagequeue.RabbitMQConfig{URL: appConfig.AMQPURL}, logger)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer mq.Close()
		events = messagequeue.NewOrderEvents(mq, appConfig.OrderEventsQueue)
	} else {
		logger.Warn("AMQP_URL is not set; order events are not published")
	}

	var uploader media.Uploader
	if appConfig.CloudinaryURL != "" {
		cld, err := media.NewCloudinary(appConfig.CloudinaryURL)
		if err != nil {
			logger.Fatal("Invalid CLOUDINARY_URL", zap.Error(err))
		}
		uploader = cld
	}

	pricing, err := appConfig.Pricing()
	if err != nil {
		logger.Fatal("Invalid pricing configuration", zap.Error(err))
	}

	// --- Services ---
	carts := cart.NewSessionStore(appCache, sealer, appConfig.CartTTL, logger)
	products := catalog.NewAggregator(opened.Store, appCache, appConfig.CatalogCacheTTL, logger)
	payments, err := core.NewPaymentService(core.PaymentConfig{
		PublicKey:           appConfig.PaymentPublicKey,
		SecretKey:           appConfig.PaymentSecretKey,
		Currency:            appConfig.Currency,
		AnalyticsTrackingID: appConfig.AnalyticsTrackingID,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize payment service", zap.Error(err))
	}
	users := core.NewUserService(opened.Store, logger)

	services := api.Services{
		Catalog:  products,
		Carts:    core.NewCartService(carts, products, logger),
		Payments: payments,
		Users:    users,
		Sellers:  core.NewSellerService(products, users, uploader, logger),
		Issues:   core.NewIssueService(opened.Store, logger),
		Stats:    core.NewStatsService(opened.Store, products, appCache, appConfig.StatsCacheTTL, logger),
		Orders: core.NewOrderService(core.OrderDeps{
			Store:           opened.Store,
			Carts:           carts,
			Catalog:         products,
			Payments:        payments,
			Events:          events,
			Quotes:          appCache,
			Pricing:         pricing,
			CheckoutTimeout: appConfig.CheckoutTimeout,
			QuoteTTL:        appConfig.QuoteTTL,
			Logger:          logger,
		}),
	}

	// --- HTTP ---
	if appConfig.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.CORSMiddleware(appConfig.ClientURL))

	authMW := middleware.NewAuthMiddleware(opened.Auth, appConfig.Admins(), logger)
	if err := api.SetupRoutes(router, authMW, services, logger); err != nil {
		logger.Fatal("Failed to set up routes", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", appConfig.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("address", httpServer.Addr), zap.String("ginMode", gin.Mode()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), appConfig.CheckoutTimeout+5*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exiting")
}

func newLogger(release bool) (*zap.Logger, error) {
	if release {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
