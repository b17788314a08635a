package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ptpal/internal/cache"
	"ptpal/internal/config"
	"ptpal/internal/notify"
	"ptpal/internal/repository"
	"ptpal/internal/scheduler"
	"ptpal/internal/service"
	"ptpal/internal/transport/rest"
	"ptpal/internal/transport/ws"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const cooldownTTL = 6 * time.Hour

func main() {
	// .env is optional, real deployments use environment variables
	godotenv.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("LOG_PRETTY") == "true" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	cfg := config.Load()
	fcmCfg := config.DefaultFCMConfig()
	if fcmCfg.IsEnabled() {
		logger.Info().Msg("FCM push delivery configured")
	} else {
		logger.Warn().Msg("FCM_SERVER_KEY not set, push delivery disabled")
	}

	ctx := context.Background()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping MongoDB")
	}
	logger.Info().Str("db", cfg.MongoDB).Msg("connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping Redis")
	}
	logger.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")

	// WebSocket hub
	wsHub := ws.NewHub(logger)

	// Repositories and caches
	memberRepo := repository.NewMemberRepo(db)
	trainerRepo := repository.NewTrainerRepo(db)
	eventRepo := repository.NewEventRepo(db)
	insightRepo := repository.NewInsightRepo(db)
	cooldown := cache.NewCooldownCache(rdb, cooldownTTL)

	// Notifications: push plus live dashboard fan-out
	fcm := notify.NewFCMDispatcher(fcmCfg, trainerRepo, logger)
	notifier := notify.Multi{fcm, wsHub}

	// Services
	authSvc := service.NewAuthService()
	insightSvc := service.NewInsightService(memberRepo, trainerRepo, eventRepo, insightRepo, cooldown, notifier, logger)

	// Background sweeps
	sweepCtx, stopSweeps := context.WithCancel(ctx)
	defer stopSweeps()
	sweeper := scheduler.NewSweeper(trainerRepo, insightSvc, logger)
	sweeper.Start(sweepCtx)

	router := rest.NewRouter(&rest.Container{
		AuthService:    authSvc,
		InsightService: insightSvc,
		WSHub:          wsHub,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.HTTPPort).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen failed")
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	stopSweeps()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("forced shutdown")
	}

	logger.Info().Msg("server exited")
}
