package conversation

import (
	"strings"
	"time"

	"github.com/fvaletk/tastyai/internal/pkg/common"
)

// 訊息角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn 對話中的單一訊息，建立後不可變更。
// 插入順序即時間順序，序數指稱（"the second one"）依賴這個順序。
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTurn 創建新的對話訊息
func NewTurn(role, content string) Turn {
	return Turn{
		Role:      role,
		Content:   strings.TrimSpace(content),
		Timestamp: time.Now(),
	}
}

// LastUserMessage 取最後一則使用者訊息，沒有則回空字串
func LastUserMessage(turns []Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleUser {
			return turns[i].Content
		}
	}
	return ""
}

// HasAssistantTurn 檢查是否出現過助理訊息（= 是否已向使用者展示過食譜）
func HasAssistantTurn(turns []Turn) bool {
	for _, t := range turns {
		if t.Role == RoleAssistant {
			return true
		}
	}
	return false
}

// CountUserTurns 計算使用者訊息數
func CountUserTurns(turns []Turn) int {
	n := 0
	for _, t := range turns {
		if t.Role == RoleUser {
			n++
		}
	}
	return n
}

// RecentTurns 取最近 n 則訊息
func RecentTurns(turns []Turn, n int) []Turn {
	if len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}

// RecipeRecord 檢索到的食譜，由向量索引回傳後不再變更。
// 標題（不分大小寫、空白標準化後）在單一對話內視為主鍵。
type RecipeRecord struct {
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Ingredients []string `json:"ingredients"`
	Directions  []string `json:"directions"`
	Source      string   `json:"source"`
	Score       float64  `json:"score"`
}

// NormalizedTitle 標準化後的標題，用於比對與去重
func (r RecipeRecord) NormalizedTitle() string {
	return strings.ToLower(strings.Join(strings.Fields(r.Title), " "))
}

// MergeResults 合併本輪結果與上一輪帶入的結果。
// 本輪結果優先，依標準化標題去重。
func MergeResults(current, carried []RecipeRecord) []RecipeRecord {
	merged := make([]RecipeRecord, 0, len(current)+len(carried))
	seen := make(map[string]bool)
	for _, r := range current {
		key := r.NormalizedTitle()
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, r)
	}
	for _, r := range carried {
		key := r.NormalizedTitle()
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, r)
	}
	return merged
}

// SlotUnknown 偏好欄位未知時的哨兵值
const SlotUnknown = "unknown"

// Preferences 從自然語言解析出的使用者偏好，每個欄位不是具體值就是 "unknown"。
type Preferences struct {
	Language    string   `json:"language"`
	Cuisine     string   `json:"cuisine"`
	Diet        string   `json:"diet"`
	Dish        string   `json:"dish"`
	Ingredients []string `json:"ingredients"`
	Allergies   []string `json:"allergies"`
	MealType    string   `json:"meal_type"`
	CookingTime string   `json:"cooking_time"`
}

// Normalize 將空欄位補成哨兵值，欄位只在邊界標準化一次
func (p *Preferences) Normalize() {
	fill := func(s *string) {
		*s = strings.TrimSpace(*s)
		if *s == "" {
			*s = SlotUnknown
		}
	}
	fill(&p.Language)
	fill(&p.Cuisine)
	fill(&p.Diet)
	fill(&p.Dish)
	fill(&p.MealType)
	fill(&p.CookingTime)
	if p.Ingredients == nil {
		p.Ingredients = []string{}
	}
	if p.Allergies == nil {
		p.Allergies = []string{}
	}
}

// UnknownPreferences 全部未知的偏好
func UnknownPreferences() Preferences {
	p := Preferences{}
	p.Normalize()
	return p
}

// ReplyLanguage 回覆語言，未知時回傳英文
func (p Preferences) ReplyLanguage() string {
	if p.Language == "" || p.Language == SlotUnknown {
		return "English"
	}
	return p.Language
}

// Intent 使用者意圖
type Intent string

const (
	IntentNewSearch     Intent = "new_search"
	IntentComparison    Intent = "comparison"
	IntentRecipeRequest Intent = "recipe_request"
	IntentGeneral       Intent = "general"
)

// ParseIntent 將模型輸出轉成 Intent，無法辨識時回傳 new_search
func ParseIntent(s string) Intent {
	switch Intent(strings.TrimSpace(strings.ToLower(s))) {
	case IntentComparison:
		return IntentComparison
	case IntentRecipeRequest:
		return IntentRecipeRequest
	case IntentGeneral:
		return IntentGeneral
	default:
		return IntentNewSearch
	}
}

// IntentResult 意圖分類結果，每輪重新計算、不做持久化
type IntentResult struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// RequestType 食譜請求的細分類型
type RequestType string

const (
	RequestSpecificRecipe RequestType = "specific_recipe"
	RequestDish           RequestType = "dish"
	RequestNewDish        RequestType = "new_dish"
)

// ParseRequestType 將模型輸出轉成 RequestType，無法辨識時回傳 new_dish
func ParseRequestType(s string) RequestType {
	switch RequestType(strings.TrimSpace(strings.ToLower(s))) {
	case RequestSpecificRecipe:
		return RequestSpecificRecipe
	case RequestDish:
		return RequestDish
	default:
		return RequestNewDish
	}
}

// RequestResult 食譜請求解析結果
type RequestResult struct {
	Type               RequestType `json:"type"`
	MatchedRecipeTitle string      `json:"matched_recipe_title"`
	DishName           string      `json:"dish_name"`
	Reasoning          string      `json:"reasoning"`
}

// parseOracleJSON 解析模型輸出的 JSON。
// 先去除圍欄與前後雜訊，第一次解析失敗時補上未加引號的鍵再試一次。
func parseOracleJSON(raw string, v interface{}) error {
	obj := common.ExtractJSONObject(raw)
	if err := common.ParseJSON(obj, v); err != nil {
		return common.ParseJSON(common.QuoteJSONKeys(obj), v)
	}
	return nil
}
