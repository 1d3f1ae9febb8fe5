package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/fvaletk/tastyai/internal/infrastructure/config"
	"github.com/fvaletk/tastyai/internal/pkg/common"

	"go.uber.org/zap"
)

// CacheManager 模型輸出的記憶體快取，鍵為 prompt 雜湊
type CacheManager struct {
	config *config.Config
	mu     sync.RWMutex
	store  map[string]cacheEntry
	stats  cacheStats
	done   chan struct{}
}

// cacheEntry 快取條目
type cacheEntry struct {
	value       string
	expiresAt   time.Time
	createdAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// cacheStats 快取統計
type cacheStats struct {
	hits      int64
	misses    int64
	evictions int64
	errors    int64
}

// NewManager 創建新的快取管理器，停用時回傳 nil
func NewManager(cfg *config.Config) *CacheManager {
	if !cfg.Cache.Enabled {
		common.LogInfo("Cache disabled")
		return nil
	}

	m := &CacheManager{
		config: cfg,
		store:  make(map[string]cacheEntry),
		done:   make(chan struct{}),
	}

	// 啟動清理過期快取的協程
	go m.startCleanup()

	common.LogInfo("快取管理員已初始化",
		zap.Int("最大容量", cfg.Cache.MaxSize),
		zap.Duration("存活時間", cfg.Cache.TTL),
		zap.Duration("清理間隔", cfg.Cache.CleanupInterval),
	)

	return m
}

// Get 獲取快取值
func (m *CacheManager) Get(ctx context.Context, system, prompt string) (string, error) {
	if m == nil || !m.config.Cache.Enabled {
		return "", common.ErrCacheDisabled
	}

	key := generateKey(system, prompt)

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.store[key]
	if !exists {
		m.stats.misses++
		common.LogCacheMiss("ai", key)
		return "", common.ErrCacheDisabled
	}

	if time.Now().After(entry.expiresAt) {
		delete(m.store, key)
		m.stats.evictions++
		m.stats.misses++
		common.LogInfo("快取已過期", zap.String("鍵", key))
		return "", common.ErrCacheDisabled
	}

	entry.lastAccess = time.Now()
	entry.accessCount++
	m.store[key] = entry
	m.stats.hits++

	common.LogCacheHit("ai", key)
	return entry.value, nil
}

// Set 設置快取值
func (m *CacheManager) Set(ctx context.Context, system, prompt, value string) error {
	if m == nil || !m.config.Cache.Enabled {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// 容量滿時先清過期項目，再做 LRU 淘汰
	if len(m.store) >= m.config.Cache.MaxSize {
		evicted := m.cleanupLocked()
		common.LogInfo("快取清理執行", zap.Int("清理數量", evicted))

		if len(m.store) >= m.config.Cache.MaxSize {
			m.evictLRULocked()
		}

		if len(m.store) >= m.config.Cache.MaxSize {
			m.stats.errors++
			common.LogWarn("快取已滿", zap.Int("目前容量", len(m.store)))
			return common.ErrCacheFull
		}
	}

	now := time.Now()
	m.store[generateKey(system, prompt)] = cacheEntry{
		value:      value,
		expiresAt:  now.Add(m.config.Cache.TTL),
		createdAt:  now,
		lastAccess: now,
	}

	return nil
}

// generateKey 生成快取鍵
func generateKey(system, prompt string) string {
	hash := sha256.Sum256([]byte(system + "\x00" + prompt))
	return fmt.Sprintf("text:%s", hex.EncodeToString(hash[:]))
}

// startCleanup 啟動清理過期快取的協程
func (m *CacheManager) startCleanup() {
	ticker := time.NewTicker(m.config.Cache.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			m.cleanupLocked()
			m.mu.Unlock()
		case <-m.done:
			return
		}
	}
}

// Close 停止清理協程
func (m *CacheManager) Close() {
	if m == nil {
		return
	}
	close(m.done)
}

// cleanupLocked 清理過期的快取，呼叫端必須持有寫鎖
func (m *CacheManager) cleanupLocked() int {
	now := time.Now()
	count := 0

	for key, entry := range m.store {
		if now.After(entry.expiresAt) {
			delete(m.store, key)
			count++
			m.stats.evictions++
		}
	}

	return count
}

// evictLRULocked 淘汰最少使用的項目，呼叫端必須持有寫鎖
func (m *CacheManager) evictLRULocked() {
	var oldestKey string
	var oldestAccess time.Time
	var lowestAccessCount int

	for key, entry := range m.store {
		if oldestKey == "" ||
			entry.accessCount < lowestAccessCount ||
			(entry.accessCount == lowestAccessCount && entry.lastAccess.Before(oldestAccess)) {
			oldestKey = key
			oldestAccess = entry.lastAccess
			lowestAccessCount = entry.accessCount
		}
	}

	if oldestKey != "" {
		delete(m.store, oldestKey)
		m.stats.evictions++
		common.LogInfo("快取已淘汰(LRU)", zap.String("鍵", oldestKey))
	}
}

// GetStats 獲取快取統計信息
func (m *CacheManager) GetStats() map[string]interface{} {
	if m == nil {
		return map[string]interface{}{"enabled": false}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"enabled":   true,
		"size":      len(m.store),
		"hits":      m.stats.hits,
		"misses":    m.stats.misses,
		"evictions": m.stats.evictions,
		"errors":    m.stats.errors,
	}
}
