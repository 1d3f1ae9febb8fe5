package store

import (
	"context"
	"sync"
	"time"

	"github.com/fvaletk/tastyai/internal/core/conversation"
)

// MemoryStore 行程內對話儲存，Redis 停用時的預設實作。
// 帶入結果同樣套用存活時間，行為與 Redis 版一致。
type MemoryStore struct {
	mu       sync.RWMutex
	turns    map[string][]conversation.Turn
	carried  map[string]carriedEntry
	carryTTL time.Duration
}

type carriedEntry struct {
	results   []conversation.RecipeRecord
	expiresAt time.Time
}

// NewMemoryStore 創建記憶體對話儲存
func NewMemoryStore(carryTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		turns:    make(map[string][]conversation.Turn),
		carried:  make(map[string]carriedEntry),
		carryTTL: carryTTL,
	}
}

// AppendTurn 附加一則訊息到對話日誌
func (s *MemoryStore) AppendTurn(_ context.Context, conversationID, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[conversationID] = append(s.turns[conversationID], conversation.NewTurn(role, content))
	return nil
}

// LoadTurns 讀取完整對話日誌（插入順序）
func (s *MemoryStore) LoadTurns(_ context.Context, conversationID string) ([]conversation.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]conversation.Turn(nil), s.turns[conversationID]...), nil
}

// SaveCarried 覆寫本輪結束後要帶入下一輪的結果
func (s *MemoryStore) SaveCarried(_ context.Context, conversationID string, results []conversation.RecipeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carried[conversationID] = carriedEntry{
		results:   append([]conversation.RecipeRecord(nil), results...),
		expiresAt: time.Now().Add(s.carryTTL),
	}
	return nil
}

// LoadCarried 讀取上一輪帶入的結果，過期或不存在時回傳空切片
func (s *MemoryStore) LoadCarried(_ context.Context, conversationID string) ([]conversation.RecipeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.carried[conversationID]
	if !ok {
		return nil, nil
	}
	if s.carryTTL > 0 && time.Now().After(entry.expiresAt) {
		delete(s.carried, conversationID)
		return nil, nil
	}
	return append([]conversation.RecipeRecord(nil), entry.results...), nil
}
