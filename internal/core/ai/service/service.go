package service

import (
	"context"

	"github.com/fvaletk/tastyai/internal/core/ai/cache"
	"github.com/fvaletk/tastyai/internal/core/ai/openrouter"
	"github.com/fvaletk/tastyai/internal/infrastructure/config"
)

// Service AI 服務：OpenRouter 客戶端前面掛一層回應快取。
// 同一組 system + prompt 在存活時間內直接取快取，不再打外部 API。
type Service struct {
	config       *config.Config
	client       *openrouter.Client
	cacheManager *cache.CacheManager
}

// NewService 創建 AI 服務
func NewService(cfg *config.Config, cacheManager *cache.CacheManager) *Service {
	return &Service{
		config:       cfg,
		client:       openrouter.NewClient(cfg),
		cacheManager: cacheManager,
	}
}

// Complete 統一對外方法
func (s *Service) Complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	if val, err := s.cacheManager.Get(ctx, system, user); err == nil && val != "" {
		return val, nil
	}

	content, err := s.client.Complete(ctx, system, user, temperature)
	if err != nil {
		return "", err
	}

	_ = s.cacheManager.Set(ctx, system, user, content)

	return content, nil
}

// CacheStats 回報快取統計，供健康檢查端點使用
func (s *Service) CacheStats() map[string]interface{} {
	return s.cacheManager.GetStats()
}
