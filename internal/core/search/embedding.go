package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fvaletk/tastyai/internal/infrastructure/config"

	"github.com/go-resty/resty/v2"
)

// EmbeddingClient 文字向量嵌入客戶端（OpenAI 相容介面）
type EmbeddingClient struct {
	config *config.Config
	client *resty.Client
}

// NewEmbeddingClient 創建嵌入客戶端
func NewEmbeddingClient(cfg *config.Config) *EmbeddingClient {
	client := resty.New().
		SetBaseURL(cfg.Embedding.BaseURL).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.Embedding.APIKey)).
		SetTimeout(cfg.Embedding.Timeout)

	return &EmbeddingClient{
		config: cfg,
		client: client,
	}
}

// Embed 把查詢文字轉成向量
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	req := map[string]interface{}{
		"model": c.config.Embedding.Model,
		"input": text,
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/embeddings")
	if err != nil {
		return nil, fmt.Errorf("failed to send embedding request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("embedding API returned status %d: %s", resp.StatusCode(), resp.String())
	}

	var result struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse embedding response: %w", err)
	}
	if len(result.Data) == 0 || len(result.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding in response")
	}

	return result.Data[0].Embedding, nil
}
