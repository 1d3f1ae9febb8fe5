package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/fvaletk/tastyai/internal/core/conversation"
	"github.com/fvaletk/tastyai/internal/infrastructure/config"

	"github.com/go-resty/resty/v2"
)

// IndexClient 食譜向量索引客戶端（Pinecone 相容介面）
type IndexClient struct {
	config *config.Config
	client *resty.Client
}

// NewIndexClient 創建索引客戶端
func NewIndexClient(cfg *config.Config) *IndexClient {
	host := cfg.VectorIndex.Host
	if host != "" && !strings.HasPrefix(host, "http") {
		host = "https://" + host
	}

	client := resty.New().
		SetBaseURL(host).
		SetHeader("Api-Key", cfg.VectorIndex.APIKey).
		SetTimeout(cfg.VectorIndex.Timeout)

	return &IndexClient{
		config: cfg,
		client: client,
	}
}

// queryMatch 索引回傳的單筆結果
type queryMatch struct {
	ID       string                     `json:"id"`
	Score    float64                    `json:"score"`
	Metadata map[string]json.RawMessage `json:"metadata"`
}

// Query 以向量查詢最相近的食譜，回傳依分數排序的結果
func (c *IndexClient) Query(ctx context.Context, vector []float32) ([]conversation.RecipeRecord, error) {
	req := map[string]interface{}{
		"vector":          vector,
		"topK":            c.config.VectorIndex.TopK,
		"includeMetadata": true,
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/query")
	if err != nil {
		return nil, fmt.Errorf("failed to query vector index: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("vector index returned status %d: %s", resp.StatusCode(), resp.String())
	}

	var result struct {
		Matches []queryMatch `json:"matches"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse vector index response: %w", err)
	}

	records := make([]conversation.RecipeRecord, 0, len(result.Matches))
	for _, m := range result.Matches {
		records = append(records, conversation.RecipeRecord{
			Title:       metadataString(m.Metadata, "title"),
			Link:        metadataString(m.Metadata, "link"),
			Ingredients: metadataList(m.Metadata, "ingredients"),
			Directions:  metadataList(m.Metadata, "directions"),
			Source:      metadataString(m.Metadata, "source"),
			Score:       m.Score,
		})
	}
	return records, nil
}

// metadataString 取出字串欄位
func metadataString(meta map[string]json.RawMessage, key string) string {
	raw, ok := meta[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// metadataList 取出清單欄位。
// 索引裡的清單可能是真正的 JSON 陣列，也可能是被字串化的陣列
// （"[\"a\", \"b\"]"），兩種都要吃。
func metadataList(meta map[string]json.RawMessage, key string) []string {
	raw, ok := meta[key]
	if !ok {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), &list); err == nil {
		return list
	}
	// 連字串化陣列都不是，當成單一項目
	return []string{s}
}
