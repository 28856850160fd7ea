package http

import (
	"github.com/gin-gonic/gin"

	"github.com/shadematch/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/match", handler.MatchFoundation)
		v1.POST("/average-color", handler.AverageColor)
		v1.POST("/skin-tone", handler.SkinTone)

		v1.GET("/store-brands", handler.StoreBrands)
		v1.GET("/product-types/:store_brand", handler.ProductTypes)
		v1.GET("/product-data/:store_brand", handler.ProductData)
		v1.GET("/product/:store_brand/:id", handler.Product)

		cache := v1.Group("/cache")
		{
			cache.GET("/info", handler.CacheInfo)
			cache.POST("/clear", handler.CacheClear)
			cache.POST("/ttl", handler.CacheTTL)
		}
	}

	return router
}
