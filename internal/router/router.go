// internal/router/router.go
package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/javajoker/beycollection/internal/config"
	"github.com/javajoker/beycollection/internal/handlers"
	"github.com/javajoker/beycollection/internal/imageurl"
	"github.com/javajoker/beycollection/internal/llm"
	"github.com/javajoker/beycollection/internal/middleware"
	"github.com/javajoker/beycollection/internal/repository"
	"github.com/javajoker/beycollection/internal/services"
	"github.com/javajoker/beycollection/internal/utils"
	"github.com/javajoker/beycollection/internal/wiki"
)

const version = "1.0.0"

func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, error) {
	// External clients
	wikiClient := wiki.NewClient(wiki.Options{
		BaseURL:          cfg.Wiki.BaseURL,
		UserAgent:        cfg.Wiki.UserAgent,
		BrowserUserAgent: cfg.Wiki.BrowserUserAgent,
		SearchTimeout:    cfg.Wiki.SearchTimeout(),
		PageTimeout:      cfg.Wiki.PageTimeout(),
		ImageTimeout:     cfg.Wiki.ImageTimeout(),
		DownloadTimeout:  cfg.Wiki.DownloadTimeout(),
		SearchLimit:      cfg.Wiki.SearchLimit,
		MinQueryLength:   cfg.Search.MinQueryLength,
		RequestsPerSec:   cfg.Wiki.RequestsPerSec,
		Burst:            cfg.Wiki.Burst,
	}, &http.Client{})

	provider, err := llm.NewGatewayProvider(llm.GatewayOptions{
		BaseURL: cfg.AI.BaseURL,
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		Timeout: cfg.AI.Timeout(),
	}, &http.Client{})
	if err != nil {
		return nil, fmt.Errorf("failed to create AI provider: %w", err)
	}

	storageService, err := services.NewStorageService(cfg.Storage, cfg.Server.PublicURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage service: %w", err)
	}

	// Repositories
	catalogRepo := repository.NewCatalogRepository(db)
	collectionRepo := repository.NewCollectionRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Services
	resolver := imageurl.NewResolver(cfg.Images.ProxyURL, cfg.Images.DefaultSize, cfg.Images.OwnStorageMarkers, cfg.Images.WikiHosts)
	imageService := services.NewImageService(wikiClient, storageService, resolver, cfg.Images.CachePrefix, cfg.Images.DefaultSize)
	identificationService := services.NewIdentificationService(wikiClient, provider, imageService, services.IdentificationOptions{
		Model:           cfg.AI.Model,
		ImageMaxTokens:  cfg.AI.ImageMaxTokens,
		LookupMaxTokens: cfg.AI.LookupMaxTokens,
		DefaultSize:     cfg.Images.DefaultSize,
		Attempts:        cfg.AI.LookupAttempts,
		RetryBackoff:    cfg.AI.RetryBackoff(),
	})
	reconciliationService := services.NewReconciliationService(catalogRepo, collectionRepo, storageService, cfg.Images.PhotoPrefix)
	collectionService := services.NewCollectionService(collectionRepo, catalogRepo, storageService, imageService, cfg.Images.PhotoPrefix)
	catalogService := services.NewCatalogService(catalogRepo, imageService)
	statsService := services.NewStatsService(catalogRepo, collectionRepo)

	// Handlers
	searchHandler := handlers.NewSearchHandler(identificationService, cfg.Search.Debounce(), cfg.Search.MinQueryLength, cfg.CORS.AllowedOrigins)
	identifyHandler := handlers.NewIdentifyHandler(identificationService)
	collectionHandler := handlers.NewCollectionHandler(reconciliationService, collectionService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	statsHandler := handlers.NewStatsHandler(statsService)
	imageHandler := handlers.NewImageHandler(imageService)
	adminHandler := handlers.NewAdminHandler(catalogService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	limiters := middleware.NewRateLimiters(cfg.RateLimit)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.I18nMiddleware())
	r.Use(limiters.General.Middleware())
	r.Use(middleware.AuditLogMiddleware(auditRepo))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": version,
		})
	})

	v1 := r.Group("/v1")
	{
		// Wiki search
		search := v1.Group("/search")
		{
			search.GET("", middleware.OptionalAuth(), searchHandler.Search)
			search.GET("/ws", middleware.QueryTokenAuth(), middleware.OptionalAuth(), searchHandler.SearchSession)
		}

		// Identification
		identify := v1.Group("/identify")
		identify.Use(middleware.AuthRequired(), limiters.Identify.Middleware())
		{
			identify.POST("/image", identifyHandler.IdentifyImage)
			identify.POST("/lookup", identifyHandler.Lookup)
		}

		// Personal collection
		collection := v1.Group("/collection")
		collection.Use(middleware.AuthRequired())
		{
			collection.GET("", collectionHandler.List)
			collection.GET("/grouped", collectionHandler.Grouped)
			collection.POST("", collectionHandler.AddExisting)
			collection.POST("/confirm", limiters.Upload.Middleware(), collectionHandler.Confirm)
			collection.DELETE("/:id", collectionHandler.Delete)
			collection.PUT("/:id/spin-direction", collectionHandler.UpdateSpinDirection)
			collection.POST("/:id/photo", limiters.Upload.Middleware(), collectionHandler.UpdatePhoto)
		}

		// Shared catalog
		catalog := v1.Group("/catalog")
		catalog.Use(middleware.OptionalAuth())
		{
			catalog.GET("", catalogHandler.List)
			catalog.GET("/filters", catalogHandler.Filters)
			catalog.GET("/:id", catalogHandler.Get)
		}

		// Statistics
		stats := v1.Group("/stats")
		stats.Use(middleware.AuthRequired())
		{
			stats.GET("", statsHandler.GetStats)
			stats.GET("/components", statsHandler.GetComponents)
		}

		// Image proxy (public)
		v1.GET("/images/wiki", imageHandler.WikiImage)

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			adminCatalog := admin.Group("/catalog")
			{
				adminCatalog.PUT("/series", adminHandler.RenameSeries)
				adminCatalog.PUT("/generation", adminHandler.RenameGeneration)
				adminCatalog.PUT("/reassign", adminHandler.Reassign)
				adminCatalog.PUT("/:id", adminHandler.UpdateEntry)
			}
		}
	}

	// Local object storage is served by this process
	if cfg.Storage.AccessKeyID == "" {
		r.Static(cfg.Storage.LocalURLPrefix, cfg.Storage.LocalPath)
	}

	return r, nil
}
