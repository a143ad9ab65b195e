package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/carniceria_api/internal/cache"
	"github.com/GTDGit/carniceria_api/internal/config"
	"github.com/GTDGit/carniceria_api/internal/database"
	"github.com/GTDGit/carniceria_api/internal/handler"
	"github.com/GTDGit/carniceria_api/internal/middleware"
	"github.com/GTDGit/carniceria_api/internal/notify"
	"github.com/GTDGit/carniceria_api/internal/repository"
	"github.com/GTDGit/carniceria_api/internal/service"
	"github.com/GTDGit/carniceria_api/internal/sse"
	"github.com/GTDGit/carniceria_api/internal/store"
	"github.com/GTDGit/carniceria_api/internal/worker"
	"github.com/GTDGit/carniceria_api/pkg/imgbb"
	"github.com/GTDGit/carniceria_api/pkg/jsonbin"
	"github.com/GTDGit/carniceria_api/pkg/plausible"
)

// main is the application entrypoint for the carniceria storefront API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Str("docstore", cfg.DocStore.Driver).Msg("starting carniceria api")

	// 3. Connect to Redis (optional, falls back to process memory)
	var (
		redisClient *cache.RedisClient
		redisPinger handler.Pinger
		sessions    cache.SessionStore = cache.NewMemorySessions()
		carts       cache.CartStore    = cache.NewMemoryCarts()
		dedup       notify.Deduper     = notify.NewMemoryDeduper()
	)
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Error().Err(err).Msg("redis connection failed")
			fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected successfully")

		redisPinger = redisClient
		sessions = cache.NewSessionCache(redisClient)
		carts = cache.NewCartCache(redisClient)
		dedup = cache.NewNotifyDedup(redisClient)
	} else {
		log.Warn().Msg("redis disabled - sessions, carts and notification dedup kept in memory")
	}

	// 4. Open the product document
	var db *sqlx.DB
	docs, err := openDocumentStore(cfg, &db)
	if err != nil {
		log.Error().Err(err).Msg("document store initialization failed")
		fmt.Fprintf(os.Stderr, "document store initialization failed: %v\n", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	// 5. Image host
	images, err := openImageHost(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("image host initialization failed - image uploads will be disabled")
	}

	// 6. Repository and store
	opts := []repository.Option{repository.WithTimeout(cfg.Repository.Timeout)}
	if !cfg.Repository.SerializeWrites {
		log.Warn().Msg("write queue disabled - concurrent mutations may overwrite each other")
		opts = append(opts, repository.WithoutWriteQueue())
	}
	productRepo := repository.NewProductRepository(docs, images, opts...)
	productStore := store.New(productRepo)

	// 7. Notifications and SSE fan-out
	hub := sse.NewHub()
	hubNotifier := sse.NewHubNotifier(hub)
	notifier := notify.NewNotifier(dedup, cfg.Notify.DedupWindow, notify.LogSink{}, hubNotifier)
	notifier.Attach(productStore)
	hubNotifier.Attach(productStore)

	// 8. Initial load; a failure leaves the store empty with its error set
	loadCtx, loadCancel := context.WithTimeout(context.Background(), cfg.Repository.Timeout+5*time.Second)
	if err := productStore.FetchProducts(loadCtx); err != nil {
		log.Warn().Err(err).Msg("initial product fetch failed - catalog starts empty")
	} else {
		log.Info().Int("products", len(productStore.State().Products)).Msg("products loaded")
	}
	loadCancel()

	// 9. Initialize services
	var counter service.PageviewCounter
	if cfg.Analytics.APIKey != "" {
		counter = plausible.NewClient(cfg.Analytics.BaseURL, cfg.Analytics.SiteID, cfg.Analytics.APIKey)
	}
	authSvc := service.NewAuthService(&cfg.Admin, sessions)
	productSvc := service.NewProductService(productStore)
	catalogSvc := service.NewCatalogService(productStore)
	cartSvc := service.NewCartService(carts, productStore, notifier, cfg.Shop.WhatsAppBaseURL)
	analyticsSvc := service.NewAnalyticsService(counter)
	syncSvc := service.NewSyncService(productStore)

	// 10. Initialize middleware
	rateLimiter := middleware.NewInvalidAuthRateLimiter()
	defer rateLimiter.Stop()
	sessionMw := middleware.NewSessionMiddleware(authSvc, rateLimiter)

	// 11. Initialize handlers
	handlers := &Handlers{
		Health:       handler.NewHealthHandler(productStore, cfg.DocStore.Driver, redisPinger),
		Catalog:      handler.NewCatalogHandler(catalogSvc),
		Cart:         handler.NewCartHandler(cartSvc),
		Auth:         handler.NewAuthHandler(authSvc, rateLimiter),
		AdminProduct: handler.NewAdminProductHandler(productSvc),
		Analytics:    handler.NewAnalyticsHandler(analyticsSvc),
		SSE:          handler.NewSSEHandler(hub, productStore),
	}

	// 12. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, sessionMw)

	// 13. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 14. Start workers
	if cfg.Worker.SyncInterval > 0 {
		go worker.NewSyncWorker(syncSvc, cfg.Worker.SyncInterval).Start(ctx)
	}

	// 15. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 16. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 17. Stop workers and drop results of in-flight store actions
	cancel()
	productStore.Close()

	// 18. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health       *handler.HealthHandler
	Catalog      *handler.CatalogHandler
	Cart         *handler.CartHandler
	Auth         *handler.AuthHandler
	AdminProduct *handler.AdminProductHandler
	Analytics    *handler.AnalyticsHandler
	SSE          *handler.SSEHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, sessionMiddleware *middleware.SessionMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	// Storefront
	catalog := router.Group("/v1/catalog")
	{
		catalog.GET("/products", handlers.Catalog.ListProducts)
		catalog.GET("/categories", handlers.Catalog.ListCategories)
	}

	cart := router.Group("/v1/cart")
	{
		cart.POST("", handlers.Cart.CreateCart)
		cart.GET("/:cartId", handlers.Cart.GetCart)
		cart.POST("/:cartId/items", handlers.Cart.AddItem)
		cart.PUT("/:cartId/items/:id", handlers.Cart.UpdateQuantity)
		cart.DELETE("/:cartId/items/:id", handlers.Cart.RemoveItem)
		cart.POST("/:cartId/order", handlers.Cart.PlaceOrder)
	}

	// Admin routes
	admin := router.Group("/v1/admin")
	admin.POST("/auth/login", handlers.Auth.Login)
	admin.Use(sessionMiddleware.Handle())
	{
		admin.POST("/auth/logout", handlers.Auth.Logout)

		// Product Management
		admin.GET("/products", handlers.AdminProduct.ListProducts)
		admin.POST("/products", handlers.AdminProduct.CreateProduct)
		admin.POST("/products/refresh", handlers.AdminProduct.Refresh)
		admin.PUT("/products/:id/price", handlers.AdminProduct.UpdatePrice)
		admin.PUT("/products/:id/name", handlers.AdminProduct.UpdateName)
		admin.PUT("/products/:id/image", handlers.AdminProduct.UpdateImage)
		admin.POST("/products/:id/toggle-status", handlers.AdminProduct.ToggleStatus)
		admin.POST("/products/:id/toggle-offer", handlers.AdminProduct.ToggleOffer)
		admin.DELETE("/products/:id", handlers.AdminProduct.DeleteProduct)
		admin.GET("/state", handlers.AdminProduct.GetState)

		// Real-time updates
		admin.GET("/events", handlers.SSE.Stream)

		// Analytics
		admin.GET("/analytics/pageviews", handlers.Analytics.GetPageviews)
	}
}

// openDocumentStore builds the configured product document backend. For the
// postgres driver the opened database is stored in db so main can close it.
func openDocumentStore(cfg *config.Config, db **sqlx.DB) (repository.DocumentStore, error) {
	switch cfg.DocStore.Driver {
	case "postgres":
		conn, err := database.Connect(&cfg.DB)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(conn.DB, "migrations"); err != nil {
			_ = conn.Close()
			return nil, err
		}
		log.Info().Msg("migrations completed successfully")
		*db = conn
		return repository.NewPostgresDocumentStore(conn, cfg.DocStore.Name), nil
	case "memory":
		return repository.NewMemoryDocumentStore(nil), nil
	default:
		return jsonbin.NewClient(jsonbin.Config{
			URL:       cfg.DocStore.URL,
			MasterKey: cfg.DocStore.MasterKey,
			Timeout:   cfg.Repository.Timeout,
		}), nil
	}
}

// openImageHost builds the configured image uploader.
func openImageHost(cfg *config.Config) (repository.ImageUploader, error) {
	if cfg.Images.Host == "s3" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s3Svc, err := service.NewS3Service(ctx, &cfg.S3)
		if err != nil {
			return nil, err
		}
		return s3Svc, nil
	}
	if cfg.Images.ImgbbAPIKey == "" {
		log.Warn().Msg("IMGBB_API_KEY not set - image uploads will fail")
	}
	return imgbb.NewClient(cfg.Images.ImgbbURL, cfg.Images.ImgbbAPIKey), nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
