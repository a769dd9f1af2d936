package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/picksrocket/picksrocket/internal/api/handlers"
	"github.com/picksrocket/picksrocket/internal/api/middleware"
	"github.com/picksrocket/picksrocket/internal/config"
	"github.com/picksrocket/picksrocket/internal/models"
	"github.com/picksrocket/picksrocket/internal/pkg/database"
	"github.com/picksrocket/picksrocket/internal/pkg/logger"
	"github.com/picksrocket/picksrocket/internal/providers"
	"github.com/picksrocket/picksrocket/internal/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	structuredLogger := logger.InitLogger("info", cfg.IsDevelopment())
	logger.WithService("picksrocket").WithFields(logrus.Fields{
		"environment": cfg.Env,
		"port":        cfg.Port,
	}).Info("Starting PicksRocket service")

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logger.WithService("picksrocket").Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(&models.SavedPick{}); err != nil {
		logger.WithService("picksrocket").Fatalf("Failed to run migrations: %v", err)
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.WithService("picksrocket").Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.WithService("picksrocket").Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Shared infrastructure
	cacheService := services.NewCacheService(redisClient, structuredLogger)
	breakerService := services.NewCircuitBreakerService(cfg.CircuitBreakerThreshold, structuredLogger)
	edgeClient := providers.NewEdgeClient(
		cfg.EdgeAPIBase,
		cfg.ExternalAPITimeout,
		cfg.ExternalAPIRateLimit,
		cacheService,
		breakerService,
		structuredLogger,
	)
	logoResolver := providers.NewLogoResolver(structuredLogger, nil)

	// Pick generation services
	aiPicksService := services.NewAIPicksService(edgeClient, cfg, structuredLogger)
	gamePicksService := services.NewGamePicksService(edgeClient, cfg, structuredLogger)
	soccerPicksService := services.NewSoccerPicksService(edgeClient, cfg, structuredLogger)
	pickStore := models.NewPickStore(db.DB)

	metrics := middleware.NewMetrics()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(structuredLogger))
	router.Use(middleware.CORS(cfg.CorsOrigins))
	router.Use(metrics.Handler())

	picksHandler := handlers.NewPicksHandler(aiPicksService, gamePicksService, metrics, structuredLogger)
	soccerHandler := handlers.NewSoccerHandler(soccerPicksService, logoResolver, metrics, structuredLogger)
	gamesHandler := handlers.NewGamesHandler(edgeClient, cfg, metrics, structuredLogger)
	savedPicksHandler := handlers.NewSavedPicksHandler(pickStore, structuredLogger)
	healthHandler := handlers.NewHealthHandler(db, redisClient, edgeClient, structuredLogger)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/:sport/ai-picks", picksHandler.GenerateAIPicks)
		apiV1.POST("/nba/game-picks", picksHandler.GenerateGamePicks)
		apiV1.GET("/:sport/games-with-odds", gamesHandler.GetGamesWithOdds)
		apiV1.GET("/:sport/upcoming-games", gamesHandler.GetUpcomingGames)

		apiV1.GET("/soccer/ai-picks", soccerHandler.GetAIPicks)
		apiV1.GET("/soccer/tournaments", soccerHandler.GetTournaments)
		apiV1.GET("/soccer/team-logo", soccerHandler.GetTeamLogo)

		authed := apiV1.Group("/picks", middleware.AuthRequired(cfg.JWTSecret))
		{
			authed.POST("/save", savedPicksHandler.Save)
			authed.GET("/history", savedPicksHandler.History)
		}
	}

	router.GET("/health", healthHandler.GetHealth)
	router.HEAD("/health", healthHandler.GetHealth)
	router.GET("/ready", healthHandler.GetReadiness)
	router.HEAD("/ready", healthHandler.GetReadiness)
	router.GET("/metrics", metrics.Exporter())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		logger.WithService("picksrocket").WithField("port", cfg.Port).Info("PicksRocket service started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithService("picksrocket").Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.WithService("picksrocket").Info("Shutting down PicksRocket service...")

	// The server has 5 seconds to finish the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithService("picksrocket").Fatalf("Service forced to shutdown: %v", err)
	}

	logger.WithService("picksrocket").Info("PicksRocket service exited")
}
