package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/fvaletk/tastyai/internal/pkg/common"

	"go.uber.org/zap"
)

// IntentClassifier 將最新一則使用者訊息分類為四種意圖之一。
// 對話訊號（是否展示過食譜、是否首則訊息）除了提供給模型，
// 也用於分類後的確定性覆寫。
type IntentClassifier struct {
	oracle        Oracle
	contextWindow int
}

// NewIntentClassifier 創建意圖分類器
func NewIntentClassifier(oracle Oracle, contextWindow int) *IntentClassifier {
	if contextWindow <= 0 {
		contextWindow = 4
	}
	return &IntentClassifier{
		oracle:        oracle,
		contextWindow: contextWindow,
	}
}

const intentSystemPrompt = "You are an intent classification expert. Respond only with valid JSON."

// Classify 分類最新一則使用者訊息的意圖。
// 模型或解析失敗時降級為 {new_search, 0.3, "fallback"}，不回傳錯誤。
func (c *IntentClassifier) Classify(ctx context.Context, turns []Turn) IntentResult {
	// 沒有任何訊息時不呼叫模型
	if len(turns) == 0 {
		return IntentResult{Intent: IntentNewSearch, Confidence: 1.0, Reasoning: "empty conversation"}
	}

	lastUserMsg := LastUserMessage(turns)
	if lastUserMsg == "" {
		return IntentResult{Intent: IntentNewSearch, Confidence: 1.0, Reasoning: "no user message"}
	}

	// 分類前先算好三個對話訊號
	recipesShown := HasAssistantTurn(turns)
	assistantCount := len(turns) - CountUserTurns(turns)
	isFirstRequest := CountUserTurns(turns) == 1

	var contextSB strings.Builder
	for _, t := range RecentTurns(turns, c.contextWindow) {
		contextSB.WriteString(fmt.Sprintf("%s: %s\n", t.Role, t.Content))
	}

	prompt := fmt.Sprintf(`Analyze the user's latest message and classify their intent.

Conversation context:
%s
User's latest message: "%s"

IMPORTANT CONTEXT:
- Recipes have been shown in this conversation: %t
- This is the first user message: %t
- Number of assistant responses: %d

Classify the intent into ONE of these categories:

1. "new_search" - User wants to search for new recipes (new cuisine, new dish, different meal)
   - Use this if NO recipes have been shown yet (first message or no assistant responses)
   - Use this if user is asking for something completely new
   - Examples: "I want Italian food", "Show me breakfast recipes", "I'm looking for desserts"

2. "comparison" - User is comparing or asking about differences between previously shown recipes
   - ONLY use if recipes have already been shown
   - Examples: "What's the difference?", "Which one is quicker?", "Which is healthier?"

3. "recipe_request" - User wants the full recipe for a specific dish that was already mentioned/shown
   - ONLY use if recipes have already been shown and user is selecting one
   - Examples: "Give me the recipe for X" (where X was shown), "Show me the first one"

4. "general" - General questions or conversation
   - Examples: "Thanks", "Tell me more", "What do you recommend?"

CRITICAL RULE: If recipes have NOT been shown yet (no assistant messages), the intent MUST be "new_search"
even if the user says "I want to prepare X" or "give me the recipe for X". They need to see recipe options first.

Respond with ONLY a JSON object:
{
  "intent": "new_search" | "comparison" | "recipe_request" | "general",
  "confidence": 0.0 to 1.0,
  "reasoning": "brief explanation"
}

CRITICAL: Your entire response must be valid JSON only. No other text.`,
		contextSB.String(), lastUserMsg, recipesShown, isFirstRequest, assistantCount)

	raw, err := c.oracle.Complete(ctx, intentSystemPrompt, prompt, 0.2)
	if err != nil {
		common.LogWarn("意圖分類失敗，使用降級結果", zap.Error(err))
		return IntentResult{Intent: IntentNewSearch, Confidence: 0.3, Reasoning: "fallback"}
	}

	var parsed struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}
	if err := parseOracleJSON(raw, &parsed); err != nil {
		common.LogWarn("意圖分類輸出無法解析，使用降級結果", zap.Error(err))
		return IntentResult{Intent: IntentNewSearch, Confidence: 0.3, Reasoning: "fallback"}
	}

	result := IntentResult{
		Intent:     ParseIntent(parsed.Intent),
		Confidence: parsed.Confidence,
		Reasoning:  parsed.Reasoning,
	}
	if result.Confidence == 0 {
		result.Confidence = 0.5
	}

	// 覆寫規則：沒有任何助理回覆時，除了 new_search 之外的意圖都不成立
	if !recipesShown && result.Intent != IntentNewSearch {
		common.LogWarn("覆寫為 new_search：尚未展示任何食譜",
			zap.String("original_intent", string(result.Intent)))
		result.Reasoning = fmt.Sprintf("Overridden from %s: %s (no recipes shown yet)", result.Intent, result.Reasoning)
		result.Intent = IntentNewSearch
	}

	common.LogInfo("意圖分類完成",
		zap.String("intent", string(result.Intent)),
		zap.Float64("confidence", result.Confidence),
		zap.String("reasoning", result.Reasoning),
	)

	return result
}
