package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pagetrail/api/config"
	"pagetrail/api/database"
	"pagetrail/api/handlers"
	"pagetrail/api/metrics"
	"pagetrail/api/middleware"
	"pagetrail/api/store"
	"pagetrail/api/utils"
)

const (
	jwtTTL          = 24 * time.Hour
	limiterIdleTTL  = 10 * time.Minute
	shutdownTimeout = 5 * time.Second
)

func main() {
	cfg, envLoaded, err := config.Load()
	if err != nil {
		// No logger yet; the level comes from the config.
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		zap.NewExample().Fatal("failed to build logger", zap.Error(err))
	}
	defer logger.Sync()

	if !envLoaded {
		logger.Info("no .env file found, using process environment")
	}
	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	dbClient, err := database.NewPostgresDB(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("failed to initialize PostgreSQL database", zap.Error(err))
	}
	defer dbClient.Close()

	chClient, err := database.NewClickHouseDB(ctx, cfg.ClickHouse, logger)
	if err != nil {
		logger.Fatal("failed to initialize ClickHouse database", zap.Error(err))
	}
	defer chClient.Close()

	if cfg.AutoMigrate {
		if err := dbClient.Migrate(ctx); err != nil {
			logger.Fatal("migration failed", zap.Error(err))
		}
		if err := chClient.Migrate(ctx); err != nil {
			logger.Fatal("migration failed", zap.Error(err))
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New()
	if err := m.Register(reg); err != nil {
		logger.Fatal("failed to register metrics", zap.Error(err))
	}

	jwtManager := utils.NewJWTManager(cfg.JWTSecret, jwtTTL)

	authHandlers := handlers.NewAuthHandlers(store.NewUserStore(dbClient.DB), jwtManager, cfg.GinMode == gin.ReleaseMode, logger)
	trackHandlers := handlers.NewTrackHandlers(store.NewVisitorStore(dbClient.DB), store.NewEventStore(chClient, logger), m, logger)
	statsHandlers := handlers.NewStatsHandlers(store.NewStatsStore(chClient), logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.RequestMetrics(m))
	r.Use(middleware.CORSMiddleware(cfg.FEOrigin))

	r.GET("/health", handlers.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	limiter := middleware.NewClientLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, limiterIdleTTL)
	tracking := r.Group("/api/v1")
	tracking.Use(middleware.APIKeyRequired(cfg.TrackingAPIKey), middleware.RateLimit(limiter, m))
	{
		tracking.POST("/visitors", trackHandlers.RegisterVisitor)
		tracking.POST("/page-views", trackHandlers.OpenPageView)
		tracking.PATCH("/page-views/:id", trackHandlers.ClosePageView)
		tracking.POST("/behaviors", trackHandlers.TrackBehavior)
		tracking.POST("/searches", trackHandlers.TrackSearch)
		tracking.PUT("/preferences", trackHandlers.UpsertPreference)
	}

	api := r.Group("/api")
	{
		api.POST("/signup", authHandlers.Signup)
		api.POST("/login", authHandlers.Login)
		api.POST("/logout", authHandlers.Logout)

		protected := api.Group("/")
		protected.Use(middleware.AuthRequired(jwtManager, logger))
		{
			protected.GET("/profile", authHandlers.Profile)

			stats := protected.Group("/stats")
			{
				stats.GET("/event-counts", statsHandlers.GetEventCountsOverTime)
				stats.GET("/average-duration", statsHandlers.GetAverageDuration)
				stats.GET("/average-scroll-depth", statsHandlers.GetAverageScrollDepth)
				stats.GET("/average-event-param", statsHandlers.GetAverageEventParameter)
				stats.GET("/unique-visitors", statsHandlers.GetUniqueVisitorsOverTime)
				stats.GET("/top-paths", statsHandlers.GetTopPagePaths)
				stats.GET("/top-clicks", statsHandlers.GetTopClicks)
			}
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("API server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("API server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}

func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg.Level = lvl
	return zcfg.Build()
}
