package conversation

import (
	"context"
	"fmt"

	"github.com/fvaletk/tastyai/internal/pkg/common"

	"go.uber.org/zap"
)

// PreferenceParser 從最新一則使用者訊息抽取偏好欄位。
// 欄位沒提到就是哨兵值 "unknown"。
type PreferenceParser struct {
	oracle Oracle
}

// NewPreferenceParser 創建偏好解析器
func NewPreferenceParser(oracle Oracle) *PreferenceParser {
	return &PreferenceParser{oracle: oracle}
}

const preferenceSystemPrompt = `You are a helpful assistant that extracts user meal preferences from natural language input.
Always return a JSON object with the following fields:
- language: the user's language (e.g., 'English', 'Spanish')
- cuisine: type of cuisine requested, e.g., 'italian', 'mexican', etc.
- diet: dietary constraint (e.g., 'low-carb', 'vegetarian', 'gluten-free', or 'none')
- dish: the specific dish if mentioned (e.g., 'pizza', 'lasagna')
- ingredients: list of ingredients the user mentioned
- allergies: list of allergies the user mentioned
- meal_type: breakfast, lunch, dinner, dessert or snack
- cooking_time: how much time the user has (e.g., 'quick', 'under 30 minutes')

If any field is not mentioned, mark it as 'unknown' (empty list for ingredients and allergies).

Format your response as valid JSON only, with no explanation or extra text.`

// Parse 解析使用者偏好。模型或解析失敗時回傳錯誤，
// 由呼叫端決定是否作為請求級失敗上報。
func (p *PreferenceParser) Parse(ctx context.Context, turns []Turn) (Preferences, error) {
	lastUserMsg := LastUserMessage(turns)
	if lastUserMsg == "" {
		return UnknownPreferences(), fmt.Errorf("no user message to parse")
	}

	prompt := fmt.Sprintf("Extract the meal preferences from this message:\n\n%q", lastUserMsg)

	raw, err := p.oracle.Complete(ctx, preferenceSystemPrompt, prompt, 0)
	if err != nil {
		common.LogError("偏好解析失敗", zap.Error(err))
		return UnknownPreferences(), fmt.Errorf("preference parsing failed: %w", err)
	}

	var prefs Preferences
	if err := parseOracleJSON(raw, &prefs); err != nil {
		common.LogError("偏好解析輸出無法解析", zap.Error(err))
		return UnknownPreferences(), fmt.Errorf("failed to parse preferences: %w", err)
	}

	// 欄位只在這裡標準化一次，下游直接使用
	prefs.Normalize()

	common.LogInfo("偏好解析完成",
		zap.String("language", prefs.Language),
		zap.String("cuisine", prefs.Cuisine),
		zap.String("diet", prefs.Diet),
		zap.String("dish", prefs.Dish),
		zap.Int("ingredients", len(prefs.Ingredients)),
	)

	return prefs, nil
}
