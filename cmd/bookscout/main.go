package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/justyntemme/bookscout/internal/api"
	"github.com/justyntemme/bookscout/internal/config"
	"github.com/justyntemme/bookscout/internal/logger"
	"github.com/justyntemme/bookscout/internal/metrics"
	"github.com/justyntemme/bookscout/internal/models"
	"github.com/justyntemme/bookscout/internal/openlibrary"
	"github.com/justyntemme/bookscout/internal/recommend"
	"github.com/justyntemme/bookscout/internal/session"
	"github.com/justyntemme/bookscout/internal/storage"
	"github.com/justyntemme/bookscout/internal/suggest"
)

const (
	controllerIdleTTL       = 30 * time.Minute
	registryCleanupInterval = 5 * time.Minute
	shutdownTimeout         = 10 * time.Second
)

func main() {
	// Command-line flags
	configFlag := flag.String("config", "", "Path to the YAML config file")
	urlFlag := flag.String("url", "", "Server bind address (e.g., :8080 or 0.0.0.0:8080)")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger.SetLevel(cfg.LogLevel)

	// Determine bind address: flag takes precedence over config
	bindAddr := cfg.Server.Address()
	if *urlFlag != "" {
		bindAddr = *urlFlag
	}

	// Ensure the data directories exist
	if dir := filepath.Dir(cfg.Storage.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logrus.WithError(err).Fatal("Failed to create data directory")
		}
	}

	// Initialize database
	db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	// Open Library client and cover cache
	client := openlibrary.NewClient(cfg.OpenLibrary)
	covers, err := storage.NewCoverCache(cfg.Storage.CoverCacheDir, func(ctx context.Context, coverID int, size string) ([]byte, error) {
		return client.FetchCover(ctx, coverID, openlibrary.CoverSize(size))
	})
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize cover cache")
	}

	// One recommendation controller per session owner; applied runs land in
	// the owner's search history and in the metrics.
	pipeline := recommend.NewPipeline(client, api.CoverResolver(client))
	catalog := suggest.NewCatalog(time.Now().Year())
	registry := session.NewRegistry(func(ownerID string) *recommend.Controller {
		ctrl := recommend.NewController(catalog, pipeline)
		ctrl.OnApplied(func(query models.SearchQuery, results int, status string, took time.Duration) {
			metrics.SearchesTotal.WithLabelValues(status).Inc()
			metrics.SearchDuration.Observe(took.Seconds())
			if err := db.RecordSearch(&models.SearchRecord{
				OwnerID:   ownerID,
				Genre:     query.Genre,
				Year:      query.Year,
				Results:   results,
				Status:    status,
				CreatedAt: time.Now(),
			}); err != nil {
				logrus.WithError(err).Warn("Failed to record search history")
			}
		})
		return ctrl
	}, controllerIdleTTL)
	go registry.StartCleanup(registryCleanupInterval)

	manager := session.NewManager(cfg.Session)
	limiter := api.NewRateLimiter(cfg.RateLimit)

	// Initialize handlers
	handler := api.NewHandler(registry, db, covers, cfg.Server.StaticDir)
	authHandler := api.NewAuthHandler(db, manager)

	// Set up Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(api.RequestLogger())
	r.Use(metrics.Middleware())
	r.Use(corsMiddleware())

	// Health check and metrics
	r.GET("/health", handler.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	apiGroup := r.Group("/api")
	apiGroup.Use(session.Middleware(manager))
	apiGroup.Use(limiter.Middleware())
	{
		// API documentation (for TUI clients)
		apiGroup.GET("", handler.APIInfo)

		// Auth routes (public)
		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.RefreshToken)
		}

		// Protected routes (require a registered account)
		protected := apiGroup.Group("")
		protected.Use(session.RequireUser())
		{
			protected.GET("/auth/me", authHandler.GetCurrentUser)
		}

		// Recommendation state, owner-scoped via the session middleware
		apiGroup.GET("/state", handler.GetState)
		apiGroup.POST("/input/genre", handler.SetGenre)
		apiGroup.POST("/input/year", handler.SetYear)
		apiGroup.POST("/input/suggestion", handler.SelectSuggestion)
		apiGroup.POST("/search", handler.Submit)
		apiGroup.POST("/selection/*id", handler.ToggleSelection)

		// History, shelf, and activity
		apiGroup.GET("/history", handler.GetSearchHistory)
		apiGroup.DELETE("/history", handler.ClearSearchHistory)
		apiGroup.GET("/shelf", handler.ListShelf)
		apiGroup.POST("/shelf/*id", handler.SaveToShelf)
		apiGroup.DELETE("/shelf/:id", handler.DeleteFromShelf)
		apiGroup.GET("/stats", handler.GetStats)

		// Cover proxy
		apiGroup.GET("/covers/:cover", handler.GetCover)
	}

	// Serve the single page and its assets
	r.Static("/static", cfg.Server.StaticDir)
	r.GET("/", func(c *gin.Context) {
		c.File(filepath.Join(cfg.Server.StaticDir, "index.html"))
	})

	srv := &http.Server{
		Addr:    bindAddr,
		Handler: r,
	}

	go func() {
		logrus.WithField("addr", bindAddr).Info("Bookscout server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Block until a shutdown signal arrives
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logrus.WithField("signal", sig.String()).Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("Server shutdown was not clean")
	}

	// Let in-flight recommendation runs settle so their history rows land.
	registry.Stop()
	limiter.Stop()
	registry.Wait()

	logrus.Info("Bookscout stopped")
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Expose-Headers", session.HeaderSession)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
