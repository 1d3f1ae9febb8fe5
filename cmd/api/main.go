package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fvaletk/tastyai/internal/api"
	"github.com/fvaletk/tastyai/internal/core/ai/cache"
	"github.com/fvaletk/tastyai/internal/core/conversation"
	"github.com/fvaletk/tastyai/internal/core/store"
	"github.com/fvaletk/tastyai/internal/infrastructure/config"
	"github.com/fvaletk/tastyai/internal/pkg/common"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 載入 .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	// 載入設定
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("openrouter_model", cfg.OpenRouter.Model),
		zap.String("classify_model", cfg.OpenRouter.ClassifyModel),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
	)

	// 初始化快取
	cacheManager := cache.NewManager(cfg)
	if cfg.Cache.Enabled && cacheManager == nil {
		common.LogFatal("Failed to initialize cache manager")
	}
	defer cacheManager.Close()

	// 初始化對話儲存：Redis 開啟時用 Redis，否則退回記憶體儲存
	var convStore conversation.Store
	if cfg.Redis.Enabled {
		redisStore, err := store.NewRedisStore(cfg)
		if err != nil {
			common.LogFatal("Failed to connect to redis", zap.Error(err))
		}
		defer redisStore.Close()
		convStore = redisStore
	} else {
		common.LogInfo("Redis 停用，使用記憶體對話儲存")
		convStore = store.NewMemoryStore(cfg.Conversation.CarryTTL)
	}

	// 設置路由
	router, err := api.SetupRouter(cfg, cacheManager, convStore)
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server",
				zap.Error(err),
			)
			os.Exit(1)
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown",
			zap.Error(err),
		)
		os.Exit(1)
	}

	common.LogInfo("Server exited")
}
