package conversation

import (
	"strings"

	"github.com/fvaletk/tastyai/internal/pkg/common"

	"go.uber.org/zap"
)

// RecipeSelector 把解析出的標題或序數指稱綁定到結果池中的具體食譜。
// 策略順序固定：完全相符 > 子字串包含 > 模糊詞彙重疊 > 序數指稱 > 取第一筆。
// 這個順序是正確性的一部分，不可調換。
type RecipeSelector struct{}

// NewRecipeSelector 創建食譜選擇器
func NewRecipeSelector() *RecipeSelector {
	return &RecipeSelector{}
}

// Selection 選擇結果。LowConfidence 表示所有策略都落空、
// 僅以排名第一的食譜充當預設值，不是真正的比對命中。
type Selection struct {
	Recipe        *RecipeRecord
	Strategy      string
	LowConfidence bool
}

// Select 依固定優先序比對。pool 為空時回傳 nil。
func (s *RecipeSelector) Select(matchedTitle, userMessage string, pool []RecipeRecord) *Selection {
	if len(pool) == 0 {
		return nil
	}

	normalizedTarget := common.NormalizeTitle(matchedTitle)

	// 1. 完全相符（不分大小寫、空白標準化）
	if normalizedTarget != "" {
		for i := range pool {
			if pool[i].NormalizedTitle() == normalizedTarget {
				common.LogDebug("食譜比對：完全相符", zap.String("title", pool[i].Title))
				return &Selection{Recipe: &pool[i], Strategy: "exact"}
			}
		}

		// 2. 子字串包含（雙向）
		for i := range pool {
			poolTitle := pool[i].NormalizedTitle()
			if poolTitle == "" {
				continue
			}
			if strings.Contains(poolTitle, normalizedTarget) || strings.Contains(normalizedTarget, poolTitle) {
				common.LogDebug("食譜比對：子字串包含", zap.String("title", pool[i].Title))
				return &Selection{Recipe: &pool[i], Strategy: "substring"}
			}
		}

		// 3. 模糊詞彙重疊：只取長度 >3 的詞，
		// 至少 min(2, 目標詞數) 個詞共同出現才算命中
		targetWords := significantWords(normalizedTarget)
		if len(targetWords) > 0 {
			required := 2
			if len(targetWords) < required {
				required = len(targetWords)
			}
			for i := range pool {
				poolTitle := pool[i].NormalizedTitle()
				matched := 0
				for _, w := range targetWords {
					if strings.Contains(poolTitle, w) {
						matched++
					}
				}
				if matched >= required {
					common.LogDebug("食譜比對：模糊詞彙重疊",
						zap.String("title", pool[i].Title),
						zap.Int("matched_words", matched),
					)
					return &Selection{Recipe: &pool[i], Strategy: "fuzzy"}
				}
			}
		}
	}

	// 4. 序數指稱：對使用者訊息的字面內容查固定序數表
	if idx, ok := OrdinalReference(userMessage, len(pool)); ok {
		common.LogDebug("食譜比對：序數指稱",
			zap.Int("index", idx),
			zap.String("title", pool[idx].Title),
		)
		return &Selection{Recipe: &pool[idx], Strategy: "ordinal"}
	}

	// 5. 全部落空：取排名第一的食譜當低信心預設值
	common.LogWarn("食譜比對全部落空，取排名第一的食譜",
		zap.String("title", pool[0].Title),
	)
	return &Selection{Recipe: &pool[0], Strategy: "default", LowConfidence: true}
}

// significantWords 取長度 >3 的詞
func significantWords(s string) []string {
	var words []string
	for _, w := range strings.Fields(s) {
		if len(w) > 3 {
			words = append(words, w)
		}
	}
	return words
}
