package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/priceloka/backend/config"
	"github.com/priceloka/backend/handler"
	"github.com/priceloka/backend/middleware"
	"github.com/priceloka/backend/pkg/logger"
	"github.com/priceloka/backend/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Initialize submission store
	var store service.SubmissionStore
	switch cfg.Store.Backend {
	case "postgres":
		pgStore, err := service.NewPostgresStore(context.Background(), cfg.Store.PostgresURL)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pgStore.Close()
		if err := pgStore.EnsureSchema(context.Background()); err != nil {
			slog.Error("failed to ensure postgres schema", "error", err)
			os.Exit(1)
		}
		store = pgStore
	default:
		store = service.NewMemoryStore()
		slog.Warn("using in-memory submission store, records will not survive restarts")
	}

	// Initialize OCR engine
	var engine service.Engine
	switch cfg.OCR.Engine {
	case "remote":
		engine = service.NewRemoteEngine(&cfg.OCR)
	default:
		engine, err = service.NewTesseractEngine(&cfg.OCR)
		if err != nil {
			slog.Error("failed to initialize tesseract engine", "error", err)
			os.Exit(1)
		}
	}

	// Initialize services
	imaging := service.NewImagingService(&cfg.Imaging)
	matcher := service.NewMerchantMatcher(&cfg.Matcher)
	extractor := service.NewExtractor(imaging, engine, matcher, cfg.OCR.FallbackPass)
	submissions := service.NewSubmissionService(store, &cfg.Submissions)
	leaderboard := service.NewLeaderboardService(store, &cfg.Leaderboard)
	history := service.NewHistoryService(store, &cfg.History)

	var archive *service.ArchiveService
	if cfg.Archive.Enabled {
		archive, err = service.NewArchiveService(&cfg.Archive)
		if err != nil {
			slog.Error("failed to initialize archive service", "error", err)
			os.Exit(1)
		}
		if err := archive.EnsureBucket(context.Background()); err != nil {
			slog.Error("failed to ensure archive bucket", "error", err)
			os.Exit(1)
		}
	}

	// Initialize handlers
	extractHandler := handler.NewExtractHandler(extractor, archive)
	submissionHandler := handler.NewSubmissionHandler(submissions)
	queryHandler := handler.NewQueryHandler(leaderboard, history)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	// Add custom middleware
	router.Use(middleware.RequestID())      // Request ID for tracing
	router.Use(middleware.Recovery())       // Panic recovery
	router.Use(middleware.RequestLogger())  // Access logging
	router.Use(middleware.Metrics())        // Request metrics
	router.Use(cors.New(corsConfig()))      // CORS

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		status := "ok"
		if !engine.Available() {
			status = "degraded"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":      status,
			"ocr_enabled": engine.Available(),
			"timestamp":   time.Now().Format(time.RFC3339),
		})
	})

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api")
	{
		api.POST("/ocr", extractHandler.OCR)
		api.POST("/receipts/extract", extractHandler.Extract)
		api.POST("/submissions", submissionHandler.Submit)
		api.GET("/leaderboard", queryHandler.Leaderboard)
		api.GET("/products/:code/prices", queryHandler.Prices)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-Request-ID"}
	cfg.ExposeHeaders = []string{"X-Request-ID"}
	return cfg
}
