package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/stayops/stayops-api/docs" // Swagger docs
	"github.com/stayops/stayops-api/internal/cache"
	"github.com/stayops/stayops-api/internal/config"
	"github.com/stayops/stayops-api/internal/database"
	"github.com/stayops/stayops-api/internal/handlers"
	"github.com/stayops/stayops-api/internal/jobs"
	"github.com/stayops/stayops-api/internal/middleware"
	"github.com/stayops/stayops-api/internal/repository"
	"github.com/stayops/stayops-api/internal/services"
	"github.com/stayops/stayops-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title StayOps API
// @version 1.0
// @description Reservation lifecycle and day-boundary consistency engine for multi-property operations

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Reservation snapshot cache is optional; the API serves from the
	// database when redis is not configured.
	var reservationCache *cache.ReservationCache
	if cfg.RedisAddr != "" {
		reservationCache, err = cache.NewReservationCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		if err != nil {
			logger.Error("Failed to connect to redis, continuing without cache", "error", err)
			reservationCache = nil
		} else {
			logger.Info("Connected to redis", "addr", cfg.RedisAddr)
		}
	}

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, reservationCache, nil, nil)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs, cfg.ScanInterval)

	// Initialize handlers
	h := handlers.NewHandlers(svcs)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	if reservationCache != nil {
		if err := reservationCache.Close(); err != nil {
			logger.Error("Failed to close redis connection", "error", err)
		}
	}

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Redirect root to swagger
		router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})

		// Swagger documentation
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Reservations
			reservations := protected.Group("/reservations/:reservation_id")
			{
				reservations.GET("", h.Reservation.Show)
				reservations.POST("/transition", h.Reservation.Transition)
				reservations.GET("/status_history", h.Reservation.StatusHistory)
				reservations.GET("/audit_log", h.Reservation.AuditLog)

				reservations.GET("/notes", h.Reservation.ListNotes)
				reservations.POST("/notes", h.Reservation.AddNote)
				reservations.PUT("/notes/:thread_id", h.Reservation.EditNote)
				reservations.DELETE("/notes/:thread_id", h.Reservation.DeleteNote)
				reservations.GET("/notes/:thread_id/history", h.Reservation.NoteHistory)
			}

			// Approval requests; any staff member may open one
			protected.POST("/approvals", h.Approval.Create)
			protected.GET("/approvals", h.Approval.Index)
			protected.GET("/approvals/:approval_id", h.Approval.Show)

			// Day boundary validation
			protected.GET("/day_boundary/validate", h.DayBoundary.Validate)

			// Settings are readable by all staff
			protected.GET("/settings", h.Settings.Show)

			// Manager-only routes
			manager := protected.Group("")
			manager.Use(middleware.RequireManager())
			{
				manager.POST("/approvals/:approval_id/decision", h.Approval.Decide)
				manager.PUT("/settings", h.Settings.Update)
				manager.GET("/jobs/status", h.Job.Status)
				manager.POST("/jobs/scan", h.Job.RunScan)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services, scanInterval time.Duration) {
	// Automatic transition scan
	worker.ScheduleEvery(scanInterval, func(ctx context.Context) error {
		logger.Info("[Job] Running automatic transition scan...")
		_, err := svcs.Scheduler.RunScan(ctx)
		return err
	})

	// Audit ledger retention purge, once at startup and then daily
	worker.ScheduleEveryImmediate(24*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Purging expired audit log entries...")
		return svcs.Scheduler.RunRetentionPurge(ctx)
	})

	logger.Info("Scheduled recurring jobs", "scan_interval", scanInterval.String())
}
