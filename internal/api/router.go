package api

import (
	"context"
	"net/http"
	"time"

	"github.com/fvaletk/tastyai/internal/api/handlers/chat"
	"github.com/fvaletk/tastyai/internal/api/handlers/health"
	"github.com/fvaletk/tastyai/internal/api/middleware"
	"github.com/fvaletk/tastyai/internal/core/ai/cache"
	"github.com/fvaletk/tastyai/internal/core/ai/service"
	"github.com/fvaletk/tastyai/internal/core/conversation"
	"github.com/fvaletk/tastyai/internal/core/search"
	"github.com/fvaletk/tastyai/internal/infrastructure/config"
	"github.com/fvaletk/tastyai/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 整條對話管線最多五趟模型往返，超時要蓋得住
	timeoutDuration = 120 * time.Second
	// 請求體大小限制 (1MB)，純文字對話用不到更多
	maxBodySize = 1 << 20
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, cacheManager *cache.CacheManager, store conversation.Store) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(maxBodySize))

	common.LogInfo("Initializing services",
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.String("model", cfg.OpenRouter.Model),
		zap.String("classify_model", cfg.OpenRouter.ClassifyModel),
		zap.Duration("timeout", timeoutDuration),
	)

	// 初始化服務
	aiService := service.NewService(cfg, cacheManager)
	searchService := search.NewService(cfg)
	machine := conversation.NewStateMachine(
		aiService,
		searchService,
		store,
		cfg.Conversation.ContextWindow,
		cfg.Conversation.SummaryTurns,
	)

	chatHandler := chat.NewHandler(machine, store)

	// 請求超時
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetHeader("X-Request-ID")),
				zap.Duration("timeout", timeoutDuration),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  "REQUEST_TIMEOUT",
				"details": gin.H{
					"timeout": timeoutDuration.String(),
				},
			})
			c.Abort()
		}
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck(cfg, aiService))
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	// API 路由組
	apiGroup := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		apiGroup.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	apiGroup.Use(middleware.Deduplication(cfg))
	{
		apiGroup.POST("/chat", chatHandler.HandleChat)
		apiGroup.GET("/chat/:id/history", chatHandler.HandleHistory)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}
