package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/resort-backend/internal/config"
	"github.com/iliyamo/resort-backend/internal/database"
	"github.com/iliyamo/resort-backend/internal/handler"
	"github.com/iliyamo/resort-backend/internal/logging"
	"github.com/iliyamo/resort-backend/internal/queue"
	"github.com/iliyamo/resort-backend/internal/repository"
	"github.com/iliyamo/resort-backend/internal/router"
	"github.com/iliyamo/resort-backend/internal/service"
	"github.com/iliyamo/resort-backend/internal/utils"
)

func main() {
	_ = godotenv.Load() // .env is optional

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.IsProd())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatal("schema migration failed", zap.Error(err))
	}

	// Redis only backs rate limiting; without it the limiter is off.
	var limiter redis.Scripter
	rdb, err := config.NewRedisClient(ctx)
	if err != nil {
		logger.Warn("redis unavailable, rate limiting disabled", zap.Error(err))
	} else {
		defer rdb.Close()
		limiter = rdb
	}

	var events service.EventPublisher
	if cfg.RabbitURL != "" {
		pub, err := queue.NewPublisher(cfg.RabbitURL, logger)
		if err != nil {
			logger.Fatal("rabbitmq publisher", zap.Error(err))
		}
		events = pub
	} else {
		logger.Info("RABBITMQ_URL not set, enquiry events disabled")
	}

	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if !tokens.Ready() {
		logger.Warn("JWT_SECRET not set, registration and login will fail")
	}

	userRepo := repository.NewUserRepo(db, cfg.BcryptCost)
	enquiryRepo := repository.NewEnquiryRepo(db)

	userSvc := service.NewUserService(userRepo, tokens, logger)
	enquirySvc := service.NewEnquiryService(enquiryRepo, events, logger)

	e := router.New(router.Deps{
		Users:       handler.NewUserHandler(userSvc, logger),
		Enquiries:   handler.NewEnquiryHandler(enquirySvc, logger),
		Tokens:      tokens,
		Accounts:    userRepo,
		DB:          db,
		Redis:       limiter,
		RateLimit:   config.LoadRateLimitConfig(),
		CORSOrigins: cfg.CORSOrigins,
		Log:         logger,
	})

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
