package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fvaletk/tastyai/internal/core/conversation"
	"github.com/fvaletk/tastyai/internal/infrastructure/config"
	"github.com/fvaletk/tastyai/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisStore Redis 對話儲存。
// 訊息日誌用 list（RPUSH 保插入順序），帶入結果用附 TTL 的字串鍵。
type RedisStore struct {
	client *redis.Client
	config *config.Config
}

// NewRedisStore 創建 Redis 對話儲存並驗證連線
func NewRedisStore(cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	common.LogInfo("Redis 對話儲存已連線", zap.String("addr", cfg.Redis.Addr))

	return &RedisStore{
		client: client,
		config: cfg,
	}, nil
}

func turnsKey(id string) string   { return "tastyai:turns:" + id }
func carriedKey(id string) string { return "tastyai:carried:" + id }

// AppendTurn 附加一則訊息到對話日誌
func (s *RedisStore) AppendTurn(ctx context.Context, conversationID, role, content string) error {
	turn := conversation.NewTurn(role, content)
	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to marshal turn: %w", err)
	}

	key := turnsKey(conversationID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.Expire(ctx, key, s.config.Conversation.CarryTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

// LoadTurns 讀取完整對話日誌（插入順序）
func (s *RedisStore) LoadTurns(ctx context.Context, conversationID string) ([]conversation.Turn, error) {
	raw, err := s.client.LRange(ctx, turnsKey(conversationID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load turns: %w", err)
	}

	turns := make([]conversation.Turn, 0, len(raw))
	for _, item := range raw {
		var turn conversation.Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			common.LogWarn("略過無法解析的對話訊息", zap.Error(err))
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// SaveCarried 覆寫本輪結束後要帶入下一輪的結果
func (s *RedisStore) SaveCarried(ctx context.Context, conversationID string, results []conversation.RecipeRecord) error {
	payload, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal carried results: %w", err)
	}
	if err := s.client.Set(ctx, carriedKey(conversationID), payload, s.config.Conversation.CarryTTL).Err(); err != nil {
		return fmt.Errorf("failed to save carried results: %w", err)
	}
	return nil
}

// LoadCarried 讀取上一輪帶入的結果，不存在時回傳空切片
func (s *RedisStore) LoadCarried(ctx context.Context, conversationID string) ([]conversation.RecipeRecord, error) {
	raw, err := s.client.Get(ctx, carriedKey(conversationID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load carried results: %w", err)
	}

	var results []conversation.RecipeRecord
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal carried results: %w", err)
	}
	return results, nil
}

// Close 關閉 Redis 連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}
