package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Aman3008akn/chitchat/internal/config"
	apihttp "github.com/Aman3008akn/chitchat/internal/http"
	"github.com/Aman3008akn/chitchat/internal/llm"
	"github.com/Aman3008akn/chitchat/internal/service"
	"github.com/Aman3008akn/chitchat/internal/storage"
	"github.com/Aman3008akn/chitchat/internal/store"
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

	kv, err := newKV(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("storage init", zap.Error(err))
	}
	defer kv.Close()

	chatStore := store.New(logger, kv)
	if err := chatStore.Load(ctx); err != nil {
		logger.Warn("chat store load failed, starting empty", zap.Error(err))
	}

	gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Fatal("gemini client init", zap.Error(err))
	}
	defer gemini.Close()

	coordinator := service.NewChatCoordinator(logger, chatStore, gemini)

	projector := service.NewThemeProjector()
	configSvc := service.NewConfigService(logger, kv, projector, cfg.UIConfigURL,
		time.Duration(cfg.UIConfigRefreshSeconds)*time.Second)
	configSvc.StartAutoRefresh(ctx)

	settingsSvc := service.NewSettingsService(logger, kv)
	settingsSvc.Load(ctx)

	deploySvc := service.NewDeployService(logger, cfg.BuildWebhookURL)

	chatHandler := apihttp.NewChatHandler(logger, chatStore, coordinator)
	configHandler := apihttp.NewConfigHandler(logger, configSvc, projector)
	settingsHandler := apihttp.NewSettingsHandler(logger, settingsSvc)
	adminHandler := apihttp.NewAdminHandler(logger, deploySvc)
	router := apihttp.NewRouter(logger, chatHandler, configHandler, settingsHandler, adminHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("storage", cfg.StorageBackend))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newKV(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.KV, error) {
	switch cfg.StorageBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(ctxPing).Err(); err != nil {
			return nil, err
		}
		return storage.NewRedisKV(client), nil
	case "postgres":
		return storage.NewPgKV(ctx, cfg.DatabaseURL)
	case "memory":
		logger.Warn("using in-memory storage, conversations will not survive restarts")
		return storage.NewMemoryKV(), nil
	default:
		return storage.NewSQLiteKV(cfg.SQLitePath)
	}
}
