package search

import (
	"context"
	"strings"

	"github.com/fvaletk/tastyai/internal/core/conversation"
	"github.com/fvaletk/tastyai/internal/infrastructure/config"
	"github.com/fvaletk/tastyai/internal/pkg/common"

	"go.uber.org/zap"
)

// 沒有任何可用偏好時的通用查詢詞
const defaultQuery = "healthy dinner"

// Service 食譜檢索服務：偏好組成查詢文字、轉向量、查索引
type Service struct {
	config   *config.Config
	embedder *EmbeddingClient
	index    *IndexClient
}

// NewService 創建檢索服務
func NewService(cfg *config.Config) *Service {
	return &Service{
		config:   cfg,
		embedder: NewEmbeddingClient(cfg),
		index:    NewIndexClient(cfg),
	}
}

// Search 依偏好檢索食譜
func (s *Service) Search(ctx context.Context, prefs conversation.Preferences) ([]conversation.RecipeRecord, error) {
	query := BuildQuery(prefs)

	common.LogInfo("食譜檢索開始",
		zap.String("query", query),
		zap.Int("top_k", s.config.VectorIndex.TopK),
	)

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	records, err := s.index.Query(ctx, vector)
	if err != nil {
		return nil, err
	}

	common.LogInfo("食譜檢索完成", zap.Int("count", len(records)))
	return records, nil
}

// BuildQuery 把非未知的偏好欄位組成查詢文字，
// 全部未知時退回通用查詢詞
func BuildQuery(prefs conversation.Preferences) string {
	var parts []string
	appendKnown := func(v string) {
		v = strings.TrimSpace(v)
		if v != "" && v != conversation.SlotUnknown && !strings.EqualFold(v, "none") {
			parts = append(parts, v)
		}
	}

	appendKnown(prefs.Dish)
	appendKnown(prefs.Cuisine)
	appendKnown(prefs.Diet)
	appendKnown(prefs.MealType)
	appendKnown(prefs.CookingTime)
	for _, ing := range prefs.Ingredients {
		appendKnown(ing)
	}

	if len(parts) == 0 {
		return defaultQuery
	}
	return strings.Join(parts, " ")
}
