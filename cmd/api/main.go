package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"study-match/internal/config"
	"study-match/internal/db"
	apihttp "study-match/internal/http"
	"study-match/internal/messaging"
	"study-match/internal/repository"
	"study-match/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	questionRepo := repository.NewPgQuestionRepository(pool)
	quizConfigRepo := repository.NewPgQuizConfigRepository(pool)
	answerRepo := repository.NewPgAnswerRepository(pool)
	profileRepo := repository.NewPgProfileRepository(pool)
	groupRepo := repository.NewPgGroupRepository(pool)
	groupProfileRepo := repository.NewPgGroupProfileRepository(pool)
	sessionRepo := repository.NewPgSessionRepository(pool)
	eventRepo := repository.NewPgGroupEventRepository(pool)
	topicRepo := repository.NewPgTopicRepository(pool)
	userRepo := repository.NewPgUserRepository(pool)

	cacheTTL := time.Duration(cfg.GroupCacheTTLSeconds) * time.Second
	groupCache := service.NewMemoryGroupProfileCache(cacheTTL)
	var tokenStore service.RefreshTokenStore
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			groupCache = service.NewRedisGroupProfileCache(redisClient, cacheTTL)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}

	bus := messaging.NewInMemoryBus(cfg.EventWorkers, logger)
	defer bus.Close()

	tokenSvc := service.NewTokenService(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	userSvc := service.NewUserService(userRepo, logger)
	quizSvc := service.NewQuizService(questionRepo, quizConfigRepo, answerRepo, profileRepo, bus, logger)
	groupProfileSvc := service.NewGroupProfileService(groupRepo, profileRepo, groupProfileRepo, groupCache, logger)
	groupProfileSvc.RegisterHandlers(bus)
	groupSvc := service.NewGroupService(groupRepo, bus, logger)
	matchingSvc := service.NewMatchingService(groupRepo, profileRepo, groupProfileSvc, logger)
	feedSvc := service.NewFeedService(quizSvc, matchingSvc, groupRepo, sessionRepo, eventRepo, topicRepo, nil, logger)

	authHandler := apihttp.NewAuthHandler(logger, userSvc, tokenSvc)
	quizHandler := apihttp.NewQuizHandler(logger, quizSvc)
	feedHandler := apihttp.NewFeedHandler(logger, feedSvc)
	groupHandler := apihttp.NewGroupHandler(logger, groupSvc, matchingSvc, groupProfileSvc)
	router := apihttp.NewRouter(logger, tokenSvc, authHandler, quizHandler, feedHandler, groupHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
