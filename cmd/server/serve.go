package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/avatarctic/ledger/configs"
	"github.com/avatarctic/ledger/internal/application/services"
	"github.com/avatarctic/ledger/internal/core/ports"
	"github.com/avatarctic/ledger/internal/infrastructure/coze"
	"github.com/avatarctic/ledger/internal/infrastructure/db"
	"github.com/avatarctic/ledger/internal/infrastructure/export"
	"github.com/avatarctic/ledger/internal/infrastructure/health"
	"github.com/avatarctic/ledger/internal/infrastructure/httpserver"
	"github.com/avatarctic/ledger/internal/infrastructure/objectstore"
	"github.com/avatarctic/ledger/internal/infrastructure/redis"
	"github.com/avatarctic/ledger/internal/infrastructure/repositories"
	"github.com/avatarctic/ledger/internal/infrastructure/tempstore"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default).",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
		SilenceUsage: true,
	}
}

func runServe() error {
	cfg, err := configs.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := newLogger(&cfg.Log)
	logger.Info("Starting ledger service...")

	database, err := db.Open(&cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close()
	logger.Info("Connected to database successfully")

	if err := database.Migrate(cfg.Database.MigrationsPath); err != nil {
		logger.WithError(err).Warn("Failed to run migrations")
	}

	hcs := []ports.HealthChecker{health.NewDBHealthChecker(database)}

	var accountRepo ports.AccountRepository = repositories.NewAccountRepository(database, logger)
	var rateLimiter ports.RateLimiterService
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		logger.Info("Connected to Redis successfully")

		cache := redis.NewRedisCache(redisClient, cfg.Redis.CachePrefix)
		accountRepo = repositories.NewCachingAccountRepository(accountRepo, cache, cfg.Redis.AccountTTL)
		rateLimiter = services.NewRateLimiterService(repositories.NewRateLimitRedisRepository(redisClient), &services.RateLimiterConfig{
			RequestsPerMinute: cfg.RateLimit.DefaultRequestsPerMinute,
			BurstMultiplier:   cfg.RateLimit.BurstMultiplier,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         cfg.RateLimit.KeyPrefix,
		}, logger)
		hcs = append(hcs, health.NewRedisHealthChecker(redisClient))
	} else {
		logger.Warn("Redis disabled: no account cache and no rate limiting")
	}

	var storage ports.ObjectStorage
	if cfg.Storage.Configured() {
		s3, err := objectstore.NewS3Storage(&cfg.Storage, logger)
		if err != nil {
			return err
		}
		storage = s3
		hcs = append(hcs, health.NewStorageHealthChecker(s3))
	} else {
		logger.Warn("Object storage not configured: uploads are kept in memory behind temporary URLs")
	}

	temp := tempstore.New(tempstore.Options{
		AudioTTL: cfg.TempAssets.AudioTTL,
		ImageTTL: cfg.TempAssets.ImageTTL,
		Logger:   logger,
	})
	defer temp.Close()

	var recognizer ports.SpeechRecognizer
	var chat ports.ChatModel
	if cfg.AI.APIKey != "" {
		recognizer = coze.NewASRClient(coze.Options{
			APIKey:            cfg.AI.APIKey,
			BaseURL:           cfg.AI.BaseURL,
			Timeout:           cfg.AI.Timeout,
			RequestsPerMinute: cfg.AI.RequestsPerMinute,
			Logger:            logger,
		})
		chat = coze.NewLLMClient(coze.Options{
			APIKey:            cfg.AI.APIKey,
			BaseURL:           cfg.AI.ModelBaseURL,
			Timeout:           cfg.AI.Timeout,
			RequestsPerMinute: cfg.AI.RequestsPerMinute,
			Logger:            logger,
		}, cfg.AI.Temperature)
	} else {
		logger.Warn("AI_API_KEY not configured: speech and image recognition are unavailable")
	}

	deps := httpserver.ServerDeps{
		AccountService: services.NewAccountService(accountRepo, export.NewXLSXExporter(), logger),
		UploadService:  services.NewUploadService(storage, temp, logger),
		SpeechService: services.NewSpeechService(recognizer, services.SpeechConfig{
			MaxAttempts: cfg.AI.ASRMaxAttempts,
			RetryDelay:  cfg.AI.ASRRetryDelay,
		}, logger),
		ExtractionService: services.NewExtractionService(chat, services.ExtractionConfig{
			VoiceModel:  cfg.AI.VoiceModel,
			VisionModel: cfg.AI.VisionModel,
		}, logger),
		AuthService:        services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger),
		RateLimiterService: rateLimiter,
		TempAssets:         temp,
		HealthCheckers:     hcs,
	}

	server := httpserver.NewServer(&httpserver.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		TLSCertFile:    cfg.Server.TLSCertFile,
		TLSKeyFile:     cfg.Server.TLSKeyFile,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		PublicURL:      cfg.Server.PublicURL,
		BodyLimit:      cfg.Server.BodyLimit,
	}, logger, deps)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.WithFields(logrus.Fields{"signal": sig.String()}).Info("Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server exited")
	return nil
}
