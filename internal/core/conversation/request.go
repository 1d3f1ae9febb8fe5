package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/fvaletk/tastyai/internal/pkg/common"

	"go.uber.org/zap"
)

// RequestResolver 在意圖為 recipe_request 時細分請求類型：
// 指定已展示的食譜（specific_recipe）、重提先前討論過的菜式（dish）、
// 還是需要重新檢索的新菜式（new_dish）。
type RequestResolver struct {
	oracle    Oracle
	extractor *ReferenceExtractor
}

// NewRequestResolver 創建食譜請求解析器
func NewRequestResolver(oracle Oracle, extractor *ReferenceExtractor) *RequestResolver {
	return &RequestResolver{
		oracle:    oracle,
		extractor: extractor,
	}
}

const requestSystemPrompt = "You are an expert at analyzing recipe requests. Respond only with valid JSON."

// Resolve 解析食譜請求。已展示標題以 1 開始編號提供給模型，
// 序數詞 first/second/third 對應時間順序清單的索引 0/1/2，
// specific_recipe 的 matched_recipe_title 必須逐字取自清單。
func (r *RequestResolver) Resolve(ctx context.Context, turns []Turn, current []RecipeRecord, intentReasoning string) RequestResult {
	lastUserMsg := LastUserMessage(turns)
	if lastUserMsg == "" {
		return RequestResult{Type: RequestNewDish, Reasoning: "no user message found"}
	}

	shownTitles := r.extractor.Extract(turns)

	common.LogDebug("已展示的食譜標題",
		zap.Strings("titles", shownTitles),
		zap.String("user_request", lastUserMsg),
	)

	raw, err := r.oracle.Complete(ctx, requestSystemPrompt, r.buildPrompt(turns, shownTitles, current, lastUserMsg, intentReasoning), 0.2)
	if err != nil {
		return r.fallback(shownTitles, lastUserMsg, err)
	}

	var parsed struct {
		Type               string `json:"type"`
		MatchedRecipeTitle string `json:"matched_recipe_title"`
		DishName           string `json:"dish_name"`
		Reasoning          string `json:"reasoning"`
	}
	if err := parseOracleJSON(raw, &parsed); err != nil {
		return r.fallback(shownTitles, lastUserMsg, err)
	}

	result := RequestResult{
		Type:               ParseRequestType(parsed.Type),
		MatchedRecipeTitle: strings.TrimSpace(parsed.MatchedRecipeTitle),
		DishName:           strings.TrimSpace(parsed.DishName),
		Reasoning:          parsed.Reasoning,
	}

	// 反模式抑制：訊息帶比較疑問詞彙、又沒有明確的食譜請求語句
	// 或序數指稱時，不採信 specific_recipe，降為 dish。
	// 避免比較提問被誤導進完整食譜展示。
	if result.Type == RequestSpecificRecipe {
		_, hasOrdinal := OrdinalReference(lastUserMsg, len(shownTitles))
		if HasComparisonQuestionCue(lastUserMsg) && !HasExplicitRecipeCue(lastUserMsg) && !hasOrdinal {
			common.LogWarn("抑制 specific_recipe：訊息帶比較疑問詞彙且無明確請求語句",
				zap.String("matched_title", result.MatchedRecipeTitle),
			)
			result.Type = RequestDish
			result.MatchedRecipeTitle = ""
			result.Reasoning = fmt.Sprintf("Suppressed: %s (comparison vocabulary without explicit request)", result.Reasoning)
		}
	}

	common.LogInfo("食譜請求解析完成",
		zap.String("type", string(result.Type)),
		zap.String("matched_title", result.MatchedRecipeTitle),
		zap.String("dish", result.DishName),
		zap.String("reasoning", result.Reasoning),
	)

	return result
}

// buildPrompt 組裝解析 prompt
func (r *RequestResolver) buildPrompt(turns []Turn, shownTitles []string, current []RecipeRecord, lastUserMsg, intentReasoning string) string {
	var contextSB strings.Builder
	for _, t := range RecentTurns(turns, 6) {
		content := common.CollapseWhitespace(t.Content)
		if runes := []rune(content); len(runes) > 200 {
			content = string(runes[:200])
		}
		contextSB.WriteString(fmt.Sprintf("%s: %s\n", t.Role, content))
	}

	numbered := "None"
	if len(shownTitles) > 0 {
		var sb strings.Builder
		for i, title := range shownTitles {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, title))
		}
		numbered = sb.String()
	}

	available := "None"
	if len(current) > 0 {
		var sb strings.Builder
		for i, rec := range current {
			if i >= 5 {
				break
			}
			sb.WriteString(fmt.Sprintf("- %s\n", rec.Title))
		}
		available = sb.String()
	}

	if intentReasoning == "" {
		intentReasoning = "No specific reasoning provided"
	}

	return fmt.Sprintf(`Analyze the user's latest message to determine what they're requesting.

Intent Classification Reasoning (from conversation analysis):
%s

Conversation context (last 6 messages):
%s
User's latest message: "%s"

Previously shown recipes in this conversation (in order of appearance):
%s
IMPORTANT: When user says "the first one/option", they mean recipe #1 in the list above.
When user says "the second one/option", they mean recipe #2 in the list above, etc.

Available results (current recipes):
%s
Determine if the user is requesting:
1. "specific_recipe" - User wants a specific recipe that was mentioned/shown before
   - User mentions a specific recipe name from the previously shown recipes
   - User says "the first one", "the second one", "the third one", "that one", "this one"
   - User is selecting one of the recipes that were already presented

2. "dish" - User is talking about a dish type, and recipes for this dish were already shown
   - User mentions a dish type/category but NOT a specific recipe name
   - User wants to see those recipes again or is still deciding between them

3. "new_dish" - User is requesting a completely new dish that wasn't discussed
   - No recipes for this dish were shown before
   - This is a new search request that needs to go through parse/search

CRITICAL FOR ORDINAL REFERENCES:
- If user says "the first one/option/recipe", matched_recipe_title should be the recipe at index 0 in the numbered list above
- If user says "the second one/option/recipe", matched_recipe_title should be the recipe at index 1 in the numbered list above
- If user says "the third one/option/recipe", matched_recipe_title should be the recipe at index 2 in the numbered list above
- Always use the EXACT title from the numbered list above, preserving capitalization and punctuation

Respond with ONLY a JSON object:
{
  "type": "specific_recipe" | "dish" | "new_dish",
  "matched_recipe_title": "exact recipe title if specific_recipe, else null",
  "dish_name": "dish name if dish, else null",
  "reasoning": "brief explanation"
}

CRITICAL: Your entire response must be valid JSON only. No other text.`,
		intentReasoning, contextSB.String(), lastUserMsg, numbered, available)
}

// fallback 模型失敗時的確定性降級：
// 有展示過標題且訊息很短（≤5 詞）時視為重提先前的菜式，否則視為新菜式。
func (r *RequestResolver) fallback(shownTitles []string, lastUserMsg string, err error) RequestResult {
	common.LogWarn("食譜請求解析失敗，使用降級結果", zap.Error(err))

	if len(shownTitles) > 0 && len(strings.Fields(lastUserMsg)) <= 5 {
		return RequestResult{
			Type:      RequestDish,
			Reasoning: "Fallback: short message with previously shown recipes",
		}
	}
	return RequestResult{
		Type:      RequestNewDish,
		Reasoning: "Fallback: new dish",
	}
}
