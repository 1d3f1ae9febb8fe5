package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fvaletk/tastyai/internal/infrastructure/config"
	"github.com/fvaletk/tastyai/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// 低於此溫度的呼叫視為分類、抽取類階段，改用較便宜的分類模型
const classifyTemperatureCeiling = 0.3

// Client OpenRouter 聊天補全客戶端
type Client struct {
	config *config.Config
	client *resty.Client
}

// NewClient 創建 OpenRouter 客戶端
func NewClient(cfg *config.Config) *Client {
	client := resty.New().
		SetBaseURL("https://openrouter.ai/api/v1").
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.OpenRouter.APIKey)).
		SetHeader("HTTP-Referer", "https://tastyai.dev").
		SetHeader("X-Title", "TastyAI").
		SetTimeout(cfg.OpenRouter.Timeout)

	return &Client{
		config: cfg,
		client: client,
	}
}

// Complete 發送一組 system + user 訊息並回傳模型輸出文字。
// 單趟阻塞請求，失敗不重試，由呼叫端決定降級方式。
func (c *Client) Complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	model := c.config.OpenRouter.Model
	if temperature <= classifyTemperatureCeiling && c.config.OpenRouter.ClassifyModel != "" {
		model = c.config.OpenRouter.ClassifyModel
	}

	req := map[string]interface{}{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": temperature,
		"max_tokens":  c.config.OpenRouter.MaxTokens,
	}

	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")
	if err != nil {
		common.LogAICall(model, time.Since(start), err, "")
		return "", fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		err := fmt.Errorf("OpenRouter API returned status %d: %s", resp.StatusCode(), resp.String())
		common.LogAICall(model, time.Since(start), err, "")
		return "", err
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to parse OpenRouter response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenRouter response")
	}

	common.LogAICall(model, time.Since(start), nil, "")
	common.LogDebug("OpenRouter 回應",
		zap.String("model", model),
		zap.Int("length", len(result.Choices[0].Message.Content)),
	)

	return result.Choices[0].Message.Content, nil
}
