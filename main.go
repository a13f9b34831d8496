package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"nse_screener_backend/config"
	"nse_screener_backend/models"
	"nse_screener_backend/routes"
	"nse_screener_backend/scheduler"
	"nse_screener_backend/services/archive"
	"nse_screener_backend/services/marketdata"
	"nse_screener_backend/services/pricestore"
	"nse_screener_backend/services/realtime"
)

// marketReady tracks whether the first indicator refresh has completed.
// Guarded by a mutex so the /ready endpoint can check it from request
// goroutines while the background initializer flips it.
var marketReady bool
var readyMutex sync.RWMutex

func main() {
	log.Println("==============================================")
	log.Println("  NSE Screener API - Starting...")
	log.Println("==============================================")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("Warning: Config load issue: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Add middlewares
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestLogger())

	// Setup health check endpoints FIRST so the platform can detect the
	// service is up; the price store loads in the background
	setupHealthEndpoints(router)

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	// Start server immediately so health checks pass while bars load
	go func() {
		log.Printf("Server listening on 0.0.0.0:%s", cfg.Port)
		log.Println("==============================================")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Initialize the price store, compute the first snapshot and wire
	// routes in the background
	var jobScheduler *scheduler.Scheduler
	var hub *realtime.Hub
	var archiver *archive.MongoArchiver
	var closeStore io.Closer
	go func() {
		source, closer, err := openBarSource(cfg)
		if err != nil {
			log.Printf("ERROR: Price store initialization failed: %v", err)
			log.Println("Service will continue in limited mode (health check only)")
			return
		}
		closeStore = closer

		market := marketdata.NewService(source, cfg.IndicatorConfig())

		// WebSocket hub receives a summary after every refresh
		hub = realtime.NewHub()
		market.Subscribe(hub.PublishSummary)

		// MongoDB archive is optional
		archiver = archive.NewMongoArchiver(cfg.MongoURI)
		if archiver.Enabled() {
			if err := archiver.Connect(context.Background()); err != nil {
				log.Printf("MongoDB not available, archiving disabled: %v", err)
			}
		}

		// Compute the initial snapshot before accepting API traffic
		log.Println("Computing initial snapshot...")
		if err := market.Refresh(context.Background()); err != nil {
			log.Printf("ERROR: Initial refresh failed: %v", err)
			return
		}

		readyMutex.Lock()
		marketReady = true
		readyMutex.Unlock()

		// Setup all API routes
		routes.SetupRoutes(router, cfg, market, hub)

		// Start background scheduler
		jobScheduler = scheduler.NewScheduler(market, archiver, cfg.RefreshAt)
		go jobScheduler.Start()

		log.Println("Application fully initialized")
	}()

	// Graceful shutdown
	gracefulShutdown(server, func() {
		if jobScheduler != nil {
			jobScheduler.Stop()
		}
		if hub != nil {
			hub.Shutdown()
		}
		if archiver != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			archiver.Close(ctx)
			cancel()
		}
		if closeStore != nil {
			if err := closeStore.Close(); err != nil {
				log.Printf("Price store close error: %v", err)
			}
		}
	})
}

// openBarSource opens the configured bar store. Postgres is used when
// DB_HOST is set, otherwise the local SQLite prices database.
func openBarSource(cfg *config.Config) (pricestore.BarSource, io.Closer, error) {
	if cfg.UsePostgres() {
		db, err := config.InitDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		log.Println("Running database migrations...")
		if err := models.MigrateModels(db); err != nil {
			log.Printf("ERROR: Migration failed: %v", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		return pricestore.NewGormStore(db), sqlDB, nil
	}

	log.Printf("Opening SQLite price database: %s", cfg.PricesDB)
	store, err := pricestore.OpenSQLite(cfg.PricesDB)
	if err != nil {
		return nil, nil, err
	}
	return store, store, nil
}

// setupHealthEndpoints sets up liveness and readiness probes
func setupHealthEndpoints(router *gin.Engine) {
	// Root endpoint
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "NSE Screener API",
			"version": "1.0.0",
		})
	})

	// Liveness probe - always returns OK if server is running
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// Readiness probe - ready once the first snapshot is computed
	router.GET("/ready", func(c *gin.Context) {
		readyMutex.RLock()
		ready := marketReady
		readyMutex.RUnlock()

		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": "Initial snapshot not computed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
		})
	})
}

// corsMiddleware returns a CORS middleware handler
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger returns a request logging middleware
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip logging for health checks to reduce noise
		path := c.Request.URL.Path
		if path == "/health" || path == "/ready" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		// Only log errors or slow requests
		if c.Writer.Status() >= 400 || duration > 1*time.Second {
			log.Printf("%s %s %d %v", c.Request.Method, path, c.Writer.Status(), duration)
		}
	}
}

// gracefulShutdown waits for a termination signal, then stops background
// work before shutting the HTTP server down.
func gracefulShutdown(server *http.Server, stopBackground func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Printf("Received signal %v, shutting down gracefully...", sig)

	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server shutdown completed")
}
