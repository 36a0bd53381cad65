package http

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pharmavoz/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger zerolog.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = handler.maxUploadBytes

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		tenant := v1.Group("/tenants/:tenant")
		{
			tenant.POST("/query", handler.QueryPrice)
			tenant.POST("/prescription", handler.QueryPrescription)

			tenant.PUT("/catalog", handler.UploadCatalog)
			tenant.GET("/catalog", handler.GetCatalog)

			tenant.PUT("/rate", handler.SetRate)
			tenant.GET("/rate", handler.GetRate)
		}
	}

	return router
}
