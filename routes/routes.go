package routes

import (
	"github.com/gin-gonic/gin"

	"nse_screener_backend/config"
	"nse_screener_backend/controllers"
	"nse_screener_backend/middleware"
	"nse_screener_backend/services/marketdata"
	"nse_screener_backend/services/realtime"
)

// SetupRoutes sets up all API routes
func SetupRoutes(router *gin.Engine, cfg *config.Config, market *marketdata.Service, hub *realtime.Hub) {
	limiter := middleware.NewLoginRateLimiter()

	// Initialize controllers
	screenerController := controllers.NewScreenerController(market)
	stockController := controllers.NewStockController(market)
	authController := controllers.NewAuthController(cfg, limiter)
	adminController := controllers.NewAdminController(market)

	// API v1 group
	api := router.Group("/api/v1")
	{
		// Screener routes
		scr := api.Group("/screener")
		{
			scr.GET("/snapshot", screenerController.GetSnapshot)
			scr.POST("/screen", screenerController.Screen)
			scr.GET("/buckets", screenerController.GetBuckets)
			scr.GET("/buckets/:label", screenerController.GetBucket)
			scr.GET("/presets", screenerController.GetPresets)
		}

		// Stock routes
		stocks := api.Group("/stocks")
		{
			stocks.GET("", stockController.GetStocks)
			stocks.GET("/:symbol/indicators", stockController.GetIndicators)
		}

		// Auth routes
		api.POST("/auth/login", authController.Login)

		// Admin routes (JWT protected)
		adminRoutes := api.Group("/admin")
		adminRoutes.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
		{
			adminRoutes.POST("/refresh", adminController.TriggerRefresh)
		}
	}

	// WebSocket stream of refresh summaries
	router.GET("/ws/screener", func(c *gin.Context) {
		hub.HandleWebSocket(c.Writer, c.Request)
	})
}
