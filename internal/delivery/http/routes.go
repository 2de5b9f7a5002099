package http

import (
	"github.com/gin-gonic/gin"
	"github.com/pricewise/backend/config"
	"github.com/pricewise/backend/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the Gin router. m may be nil.
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger, m *metrics.Registry) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	if m != nil {
		router.Use(MetricsMiddleware(m))
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		products := v1.Group("/products")
		{
			products.POST("", handler.RegisterProduct)
			products.GET("", handler.ListProducts)
			products.GET("/search", handler.SearchProducts)
			products.GET("/:barcode", handler.GetProduct)
			products.GET("/:barcode/prices", handler.PriceHistory)
			products.POST("/:barcode/prices", handler.RecordPrice)
		}

		supermarkets := v1.Group("/supermarkets")
		{
			supermarkets.POST("", handler.RegisterSupermarket)
			supermarkets.GET("", handler.ListSupermarkets)
		}

		lists := v1.Group("/lists")
		{
			lists.POST("", handler.CreateList)
			lists.GET("", handler.ListLists)
			lists.GET("/:id", handler.GetList)
			lists.DELETE("/:id", handler.DeleteList)
			lists.POST("/:id/items", handler.AddItem)
			lists.DELETE("/:id/items/:name", handler.RemoveItem)
			lists.POST("/:id/compare", handler.CompareList)
		}

		v1.POST("/compare", handler.Compare)
	}

	return router
}
